package parser

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"spacyserver/app/config"
	"spacyserver/app/nlp/penman"
	"spacyserver/app/service/models"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptyResultJSON = `{"tokens":[],"noun_chunks":[],"entities":[],"coref_clusters":[],"amr_graphs":[]}`

func newService(t *testing.T) *Service {
	t.Helper()

	di := do.New()
	do.ProvideValue(di, &config.Config{
		Env: config.EnvDev,
		Models: config.Models{
			Base:  config.BaseModel{Backend: models.BackendRules},
			Coref: config.CorefModel{Backend: models.BackendRules},
			AMR:   config.AMRModel{Backend: models.BackendRules},
		},
	})
	do.Provide(di, models.New)
	do.Provide(di, New)
	t.Cleanup(func() { _ = di.Shutdown() })

	return do.MustInvoke[*Service](di)
}

func TestParseEmptyTextSkipsModels(t *testing.T) {
	svc := &Service{}

	result, err := svc.Parse(context.Background(), "")
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, emptyResultJSON, string(data))
}

func TestTextOf(t *testing.T) {
	assert.Equal(t, "hi", TextOf("hi"))
	assert.Equal(t, "", TextOf(42))
	assert.Equal(t, "", TextOf(nil))
	assert.Equal(t, "", TextOf(map[string]any{"text": "hi"}))
}

func TestZeroResultMarshalsEmptyLists(t *testing.T) {
	data, err := json.Marshal(ParseResult{})
	require.NoError(t, err)
	assert.Equal(t, emptyResultJSON, string(data))
}

func TestSetRejectsUnknownKey(t *testing.T) {
	result := NewParseResult()

	err := result.Set("sentiment", []string{"positive"})
	assert.ErrorIs(t, err, ErrUnknownKey)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Equal(t, emptyResultJSON, string(data))
}

func TestSetKnownKeys(t *testing.T) {
	result := NewParseResult()

	require.NoError(t, result.Set(KeyNounChunks, []SpanRecord{{Text: "Alice", RootText: "Alice"}}))
	assert.Len(t, result.NounChunks, 1)

	err := result.Set(KeyTokens, "not tokens")
	assert.ErrorIs(t, err, ErrValueType)
	assert.NotNil(t, result.Tokens)

	require.NoError(t, result.Set(KeyAMRGraphs, []AMRGraphRecord(nil)))
	assert.NotNil(t, result.AMRGraphs)
}

func TestUnmarshalRejectsUnknownKey(t *testing.T) {
	var result ParseResult

	err := json.Unmarshal([]byte(`{"tokens":[],"extra":1}`), &result)
	assert.ErrorIs(t, err, ErrUnknownKey)

	require.NoError(t, json.Unmarshal([]byte(`{"tokens":[]}`), &result))
	assert.NotNil(t, result.AMRGraphs)
}

func TestParseAliceMetBob(t *testing.T) {
	svc := newService(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := svc.Parse(ctx, "Alice met Bob.")
	require.NoError(t, err)

	require.Len(t, result.Tokens, 4)
	for i, tok := range result.Tokens {
		assert.Equal(t, i, tok.Index)
		assert.True(t, tok.HeadIndex >= 0 && tok.HeadIndex < len(result.Tokens))
		assert.True(t, tok.LeftEdgeIndex >= 0 && tok.LeftEdgeIndex < len(result.Tokens))
		assert.True(t, tok.RightEdgeIndex >= 0 && tok.RightEdgeIndex < len(result.Tokens))
	}
	assert.Equal(t, "met", result.Tokens[1].Text)
	assert.Equal(t, "ROOT", result.Tokens[1].Dep)
	assert.True(t, result.Tokens[0].IsSentStart)
	assert.True(t, result.Tokens[3].IsSentEnd)

	require.Len(t, result.Entities, 2)
	assert.Equal(t, EntityRecord{
		Text:         "Alice",
		Start:        0,
		Label:        "PERSON",
		RootText:     "Alice",
		RootDep:      "nsubj",
		RootHeadText: "met",
	}, result.Entities[0])

	require.Len(t, result.NounChunks, 2)
	assert.Equal(t, "Bob", result.NounChunks[1].Text)
	assert.Equal(t, "dobj", result.NounChunks[1].RootDep)

	assert.Empty(t, result.CorefClusters)

	require.Len(t, result.AMRGraphs, 1)
	graph := result.AMRGraphs[0]
	assert.Equal(t, []int{0, 1, 2, 3}, graph.TokenIndices)
	assert.NotEmpty(t, graph.Alignments)
	assert.Equal(t, "Alice met Bob.", graph.Metadata["snt"])
	assert.Contains(t, graph.Triples, penman.Triple{Source: "m", Role: ":instance", Target: "meet-01"})
	require.Len(t, graph.Epidata, len(graph.Triples))
	assert.Equal(t, graph.Triples[0], graph.Epidata[0].Triple)
}

func TestParseCorefClusters(t *testing.T) {
	svc := newService(t)

	result, err := svc.Parse(context.Background(), "Alice met Bob. She liked him.")
	require.NoError(t, err)

	require.Len(t, result.CorefClusters, 2)
	assert.Equal(t, "Alice", result.CorefClusters[0][0].Text)
	assert.Equal(t, "She", result.CorefClusters[0][1].Text)
	assert.Equal(t, 4, result.CorefClusters[0][1].Start)
	assert.Equal(t, "him", result.CorefClusters[1][1].Text)
	assert.Len(t, result.AMRGraphs, 2)
}

func TestParseResultJSONShape(t *testing.T) {
	svc := newService(t)

	result, err := svc.Parse(context.Background(), "Alice met Bob.")
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, len(Keys))
	for _, key := range Keys {
		assert.Contains(t, raw, key)
	}

	var decoded ParseResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, len(result.Tokens), len(decoded.Tokens))
}

func TestParseMultilineText(t *testing.T) {
	svc := newService(t)

	result, err := svc.Parse(context.Background(), "Hello\n\nworld")
	require.NoError(t, err)

	require.Len(t, result.Tokens, 3)
	assert.Equal(t, "\n\n", result.Tokens[1].Text)
	assert.Equal(t, "world", result.Tokens[2].Text)
	assert.Equal(t, 7, result.Tokens[2].CharIndex)

	require.NotEmpty(t, result.AMRGraphs)
	for _, graph := range result.AMRGraphs {
		assert.NotContains(t, graph.Metadata["snt"], "\n")
		assert.NotEmpty(t, graph.Triples)
	}
}
