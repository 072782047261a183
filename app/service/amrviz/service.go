// Package amrviz draws AMR graphs with graphviz.
package amrviz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"spacyserver/app/nlp/penman"
	"spacyserver/app/service/parser"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/samber/do"
)

const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

var ErrUnsupportedFormat = errors.New("unsupported render format")

var formats = map[string]graphviz.Format{
	FormatDOT: graphviz.XDOT,
	FormatSVG: graphviz.SVG,
}

var _ do.Shutdownable = (*Service)(nil)

type Service struct {
	mu sync.Mutex
	gv *graphviz.Graphviz
}

func New(_ *do.Injector) (*Service, error) {
	gv, err := graphviz.New(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to init graphviz: %w", err)
	}

	return &Service{
		gv: gv,
	}, nil
}

// ContentType returns the media type of a rendered format.
func ContentType(format string) string {
	if format == FormatSVG {
		return "image/svg+xml"
	}
	return "text/vnd.graphviz"
}

// Render draws every graph into one document, one cluster of nodes per sentence.
// Variables are labelled with their concept, constants are drawn as plain text.
func (s *Service) Render(ctx context.Context, graphs []parser.AMRGraphRecord, format string) ([]byte, error) {
	gvFormat, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	graph, err := s.gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	for i, record := range graphs {
		// graphviz draws subgraphs named cluster_* as boxes
		cluster, err := graph.CreateSubGraphByName("cluster_" + strconv.Itoa(i))
		if err != nil {
			return nil, fmt.Errorf("graph %d: failed to create cluster: %w", i, err)
		}
		if snt := record.Metadata["snt"]; snt != "" {
			cluster.SetLabel(snt)
		}

		if err = drawGraph(cluster, "g"+strconv.Itoa(i)+"_", record.Triples); err != nil {
			return nil, fmt.Errorf("graph %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err = s.gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.Bytes(), nil
}

func drawGraph(graph *cgraph.Graph, prefix string, triples []penman.Triple) error {
	nodes := make(map[string]*cgraph.Node)

	for _, t := range triples {
		if t.Role != penman.InstanceRole {
			continue
		}

		node, err := graph.CreateNodeByName(prefix + t.Source)
		if err != nil {
			return err
		}
		node.SetLabel(t.Source + " / " + t.Target)
		nodes[t.Source] = node
	}

	for i, t := range triples {
		if t.Role == penman.InstanceRole {
			continue
		}

		source, ok := nodes[t.Source]
		if !ok {
			continue
		}

		target, ok := nodes[t.Target]
		if !ok {
			constant, err := graph.CreateNodeByName(prefix + "c" + strconv.Itoa(i))
			if err != nil {
				return err
			}
			constant.SetLabel(t.Target)
			constant.SetShape(cgraph.PlainTextShape)
			target = constant
		}

		edge, err := graph.CreateEdgeByName(prefix+"e"+strconv.Itoa(i), source, target)
		if err != nil {
			return err
		}
		edge.SetLabel(t.Role)
	}

	return nil
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gv.Close()
}
