package nlp

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidDoc = errors.New("invalid doc")

type InvalidDocError struct {
	Reason string
	Index  int
}

func (e *InvalidDocError) Error() string {
	return fmt.Sprintf("invalid doc: %s at %d", e.Reason, e.Index)
}

func (e *InvalidDocError) Is(target error) bool {
	return target == ErrInvalidDoc
}

// Pipeline turns raw text into an annotated Doc.
type Pipeline interface {
	Process(ctx context.Context, text string) (*Doc, error)
}

// Component adds annotations to an already processed Doc.
type Component interface {
	Name() string
	Annotate(ctx context.Context, doc *Doc) error
}

// AMRParser produces one PENMAN graph per input sentence.
type AMRParser interface {
	ParseSents(ctx context.Context, sents []string) ([]string, error)
}

// Aligner adds surface alignments to PENMAN graphs. Sentences are space-joined tokens.
// It returns the aligned graphs and one ISI alignment string per graph.
type Aligner interface {
	Align(ctx context.Context, sents []string, graphs []string) ([]string, []string, error)
}
