package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"spacyserver/app/client/modelserver"
	"spacyserver/app/config"
	"spacyserver/app/nlp"
	"spacyserver/app/service/amrviz"
	"spacyserver/app/service/models"
	"spacyserver/app/service/parser"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rulesConfig() *config.Config {
	return &config.Config{
		Env: config.EnvDev,
		Server: config.Server{
			Addr:      ":0",
			BodyLimit: 1 << 20,
		},
		Models: config.Models{
			Base:  config.BaseModel{Backend: models.BackendRules},
			Coref: config.CorefModel{Backend: models.BackendRules},
			AMR:   config.AMRModel{Backend: models.BackendRules},
		},
	}
}

func remoteConfig(url string) *config.Config {
	cfg := rulesConfig()
	cfg.Models.Base.Backend = models.BackendRemote
	cfg.Models.AMR.Backend = models.BackendNone
	cfg.Models.Remote = config.RemoteModel{
		BaseURL:       url,
		Timeout:       5 * time.Second,
		ProbeAttempts: 1000,
	}
	return cfg
}

func newServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	di := do.New()
	do.ProvideValue(di, cfg)
	do.Provide(di, modelserver.NewClient)
	do.Provide(di, models.New)
	do.Provide(di, parser.New)
	do.Provide(di, amrviz.New)
	do.Provide(di, New)
	t.Cleanup(func() { _ = di.Shutdown() })

	return do.MustInvoke[*Server](di)
}

// aliceDoc is what a remote model server returns for "Alice met Bob.".
func aliceDoc() nlp.Doc {
	return nlp.Doc{
		Text: "Alice met Bob.",
		Tokens: []nlp.Token{
			{I: 0, Idx: 0, Text: "Alice", Pos: "PROPN", Tag: "NNP", Dep: "nsubj", Head: 1, Whitespace: " ", EntIOB: "B", EntType: "PERSON"},
			{I: 1, Idx: 6, Text: "met", Pos: "VERB", Tag: "VBD", Dep: "ROOT", Head: 1, RightEdge: 3, Whitespace: " "},
			{I: 2, Idx: 10, Text: "Bob", Pos: "PROPN", Tag: "NNP", Dep: "dobj", Head: 1, LeftEdge: 2, RightEdge: 2, EntIOB: "B", EntType: "PERSON"},
			{I: 3, Idx: 13, Text: ".", Pos: "PUNCT", Tag: ".", Dep: "punct", Head: 1, LeftEdge: 3, RightEdge: 3},
		},
		Sents:      []nlp.Span{{Start: 0, End: 4}},
		NounChunks: []nlp.Span{{Start: 0, End: 1, Label: "NP"}, {Start: 2, End: 3, Label: "NP"}},
		Ents:       []nlp.Span{{Start: 0, End: 1, Label: "PERSON"}, {Start: 2, End: 3, Label: "PERSON"}},
	}
}

func fakeModelServer(t *testing.T, ready *atomic.Bool, processStatus int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			if !ready.Load() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("OK"))
		case "/process":
			if processStatus != http.StatusOK {
				w.WriteHeader(processStatus)
				_, _ = w.Write([]byte("out of memory"))
				return
			}
			_ = json.NewEncoder(w).Encode(aliceDoc())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestHealthBeforeModelsReady(t *testing.T) {
	var ready atomic.Bool
	s := newServer(t, remoteConfig(fakeModelServer(t, &ready, http.StatusOK).URL))

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", readBody(t, resp))
	assert.Equal(t, "false", resp.Header.Get("X-Models-Ready"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestParseBlocksUntilModelsReady(t *testing.T) {
	var ready atomic.Bool
	s := newServer(t, remoteConfig(fakeModelServer(t, &ready, http.StatusOK).URL))

	type outcome struct {
		resp *http.Response
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader("Alice met Bob."))
		resp, err := s.app.Test(req, -1)
		done <- outcome{resp, err}
	}()

	select {
	case <-done:
		t.Fatal("parse returned before the models were ready")
	case <-time.After(300 * time.Millisecond):
	}

	ready.Store(true)

	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.Equal(t, http.StatusOK, out.resp.StatusCode)

		var result parser.ParseResult
		require.NoError(t, json.Unmarshal([]byte(readBody(t, out.resp)), &result))
		assert.Len(t, result.Tokens, 4)
		assert.Len(t, result.Entities, 2)
		assert.Empty(t, result.AMRGraphs)
	case <-time.After(10 * time.Second):
		t.Fatal("parse did not return after the models became ready")
	}
}

func TestParseModelFailure(t *testing.T) {
	var ready atomic.Bool
	ready.Store(true)
	s := newServer(t, remoteConfig(fakeModelServer(t, &ready, http.StatusInternalServerError).URL))

	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader("Alice met Bob."))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	assert.Contains(t, body.Error, "out of memory")
}

func TestParseRules(t *testing.T) {
	s := newServer(t, rulesConfig())

	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader("Alice met Bob. She liked him."))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var raw map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &raw))
	assert.Len(t, raw, 5)
	assert.Len(t, raw["coref_clusters"], 2)
	assert.Len(t, raw["amr_graphs"], 2)
}

func TestParseEmptyBody(t *testing.T) {
	s := newServer(t, rulesConfig())

	resp, err := s.app.Test(httptest.NewRequest(http.MethodPost, "/parse", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"tokens":[],"noun_chunks":[],"entities":[],"coref_clusters":[],"amr_graphs":[]}`, readBody(t, resp))
}

func TestNotFound(t *testing.T) {
	s := newServer(t, rulesConfig())

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/parse", nil),
		httptest.NewRequest(http.MethodPost, "/health", nil),
		httptest.NewRequest(http.MethodGet, "/missing", nil),
	} {
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, req.URL.Path)
		assert.Equal(t, "Not Found", readBody(t, resp))
	}
}

func TestRenderAMR(t *testing.T) {
	s := newServer(t, rulesConfig())

	req := httptest.NewRequest(http.MethodPost, "/amr/render?format=dot", strings.NewReader("Alice met Bob."))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vnd.graphviz", resp.Header.Get("Content-Type"))
	assert.Contains(t, readBody(t, resp), "meet-01")

	req = httptest.NewRequest(http.MethodPost, "/amr/render?format=gif", strings.NewReader("Alice met Bob."))
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShutdownAfterRun(t *testing.T) {
	cfg := rulesConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	s := newServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout):
		t.Fatal("Run did not return")
	}

	assert.NoError(t, s.Shutdown())
	assert.NoError(t, s.Shutdown())
}
