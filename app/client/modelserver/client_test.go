package modelserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"spacyserver/app/config"
	"spacyserver/app/nlp"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	di := do.New()
	do.ProvideValue(di, &config.Config{
		Models: config.Models{
			Base: config.BaseModel{Backend: "remote", Name: "en_core_web_trf"},
			AMR:  config.AMRModel{Backend: "remote", Name: "parse_xfm"},
			Remote: config.RemoteModel{
				BaseURL:       server.URL,
				Timeout:       5 * time.Second,
				ProbeAttempts: 3,
			},
		},
	})

	client, err := NewClient(di)
	require.NoError(t, err)
	client.probeInterval = time.Millisecond

	return client
}

func TestPingRetriesUntilHealthy(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))

	require.NoError(t, client.Ping(context.Background()))
	assert.EqualValues(t, 3, calls.Load())
}

func TestPingGivesUp(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := client.Ping(context.Background())
	assert.ErrorIs(t, err, ErrStatus)
}

func TestProcess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/process", r.URL.Path)

		var req processRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "en_core_web_trf", req.Model)
		assert.Equal(t, "Hi.", req.Text)

		_ = json.NewEncoder(w).Encode(nlp.Doc{
			Tokens: []nlp.Token{
				{I: 0, Text: "Hi", Head: 0, Dep: "ROOT", RightEdge: 1},
				{I: 1, Idx: 2, Text: ".", Head: 0, Dep: "punct", LeftEdge: 1, RightEdge: 1},
			},
			Sents: []nlp.Span{{Start: 0, End: 2}},
		})
	}))

	doc, err := client.Process(context.Background(), "Hi.")
	require.NoError(t, err)

	assert.Equal(t, "Hi.", doc.Text)
	assert.Len(t, doc.Tokens, 2)
	assert.NotNil(t, doc.Spans)
	assert.NoError(t, doc.Validate())
}

func TestParseSents(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/amr", r.URL.Path)

		var req amrRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "parse_xfm", req.Model)

		graphs := make([]string, 0, len(req.Sentences))
		for range req.Sentences {
			graphs = append(graphs, "(h / hi)")
		}
		_ = json.NewEncoder(w).Encode(amrResponse{Graphs: graphs})
	}))

	graphs, err := client.ParseSents(context.Background(), []string{"Hi.", "Bye."})
	require.NoError(t, err)
	assert.Equal(t, []string{"(h / hi)", "(h / hi)"}, graphs)
}

func TestStatusError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model crashed"))
	}))

	_, err := client.Process(context.Background(), "Hi.")
	require.ErrorIs(t, err, ErrStatus)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "model crashed", statusErr.Body)
}
