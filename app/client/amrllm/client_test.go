package amrllm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spacyserver/app/config"
	"spacyserver/app/nlp/penman"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, reply func(prompt string) string) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "test",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: reply(req.Messages[0].Content),
					},
					FinishReason: openai.FinishReasonStop,
				},
			},
		})
	}))
	t.Cleanup(server.Close)

	di := do.New()
	do.ProvideValue(di, &config.Config{
		Models: config.Models{
			OpenAI: config.OpenAI{
				BaseURL: server.URL + "/v1",
				Token:   "test",
				Model:   "gpt-test",
			},
		},
	})

	client, err := NewClient(di)
	require.NoError(t, err)

	return client
}

func TestParseSentsKeepsOrder(t *testing.T) {
	client := newTestClient(t, func(prompt string) string {
		switch {
		case strings.Contains(prompt, "Alice left."):
			return "```penman\n(l / leave-11\n   :ARG0 (p / person))\n```"
		case strings.Contains(prompt, "Bob smiled."):
			return "(s / smile-01)"
		default:
			return "(x / unknown)"
		}
	})

	graphs, err := client.ParseSents(context.Background(), []string{"Alice left.", "Bob smiled."})
	require.NoError(t, err)
	require.Len(t, graphs, 2)

	first, err := penman.Parse(graphs[0])
	require.NoError(t, err)
	snt, _ := first.MetaValue("snt")
	assert.Equal(t, "Alice left.", snt)
	assert.Equal(t, "leave-11", first.Root.Concept)

	second, err := penman.Parse(graphs[1])
	require.NoError(t, err)
	snt, _ = second.MetaValue("snt")
	assert.Equal(t, "Bob smiled.", snt)
	assert.Equal(t, "smile-01", second.Root.Concept)
}

func TestParseSentsRejectsInvalidGraph(t *testing.T) {
	client := newTestClient(t, func(string) string {
		return "I cannot parse that sentence."
	})

	_, err := client.ParseSents(context.Background(), []string{"Hmm."})
	assert.ErrorIs(t, err, penman.ErrSyntax)
}

func TestCleanGraph(t *testing.T) {
	assert.Equal(t, "(a / b)", cleanGraph("```\n(a / b)\n```"))
	assert.Equal(t, "(a / b :ARG0 (c / d))", cleanGraph("Here it is: (a / b :ARG0 (c / d)) hope it helps"))
	assert.Equal(t, "nothing", cleanGraph("  nothing "))
}
