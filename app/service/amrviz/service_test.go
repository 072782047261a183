package amrviz

import (
	"context"
	"testing"

	"spacyserver/app/nlp/penman"
	"spacyserver/app/service/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraphs() []parser.AMRGraphRecord {
	return []parser.AMRGraphRecord{
		{
			Metadata: map[string]string{"snt": "Alice met Bob."},
			Triples: []penman.Triple{
				{Source: "m", Role: penman.InstanceRole, Target: "meet-01"},
				{Source: "m", Role: ":ARG0", Target: "p"},
				{Source: "p", Role: penman.InstanceRole, Target: "person"},
				{Source: "p", Role: ":name", Target: "n"},
				{Source: "n", Role: penman.InstanceRole, Target: "name"},
				{Source: "n", Role: ":op1", Target: `"Alice"`},
			},
		},
	}
}

func newService(t *testing.T) *Service {
	t.Helper()

	svc, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown() })

	return svc
}

func TestRenderDOT(t *testing.T) {
	svc := newService(t)

	out, err := svc.Render(context.Background(), sampleGraphs(), FormatDOT)
	require.NoError(t, err)

	dot := string(out)
	assert.Contains(t, dot, "g0_m")
	assert.Contains(t, dot, "meet-01")
	assert.Contains(t, dot, ":ARG0")
	assert.Contains(t, dot, "plaintext")
	assert.Contains(t, dot, "cluster_0")
	assert.Contains(t, dot, "Alice met Bob.")
}

func TestRenderClusterPerGraph(t *testing.T) {
	svc := newService(t)

	graphs := append(sampleGraphs(), sampleGraphs()...)
	out, err := svc.Render(context.Background(), graphs, FormatDOT)
	require.NoError(t, err)

	dot := string(out)
	assert.Contains(t, dot, "subgraph cluster_0")
	assert.Contains(t, dot, "subgraph cluster_1")
	assert.Contains(t, dot, "g1_m")
}

func TestRenderSVG(t *testing.T) {
	svc := newService(t)

	out, err := svc.Render(context.Background(), sampleGraphs(), FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<svg")
}

func TestRenderUnsupportedFormat(t *testing.T) {
	svc := newService(t)

	_, err := svc.Render(context.Background(), sampleGraphs(), "gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/svg+xml", ContentType(FormatSVG))
	assert.Equal(t, "text/vnd.graphviz", ContentType(FormatDOT))
}
