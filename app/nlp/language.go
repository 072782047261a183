package nlp

import (
	"context"
	"fmt"
)

var _ Pipeline = (*Language)(nil)

// Language runs a base pipeline followed by attached components.
type Language struct {
	base       Pipeline
	components []Component
}

func NewLanguage(base Pipeline) *Language {
	return &Language{base: base}
}

// AddPipe appends a component; it runs after the base pipeline and earlier components.
func (l *Language) AddPipe(c Component) {
	l.components = append(l.components, c)
}

func (l *Language) PipeNames() []string {
	names := make([]string, 0, len(l.components))
	for _, c := range l.components {
		names = append(names, c.Name())
	}
	return names
}

func (l *Language) Process(ctx context.Context, text string) (*Doc, error) {
	doc, err := l.base.Process(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("base pipeline: %w", err)
	}

	if doc.Spans == nil {
		doc.Spans = make(map[string][]Span)
	}

	for _, c := range l.components {
		if err = c.Annotate(ctx, doc); err != nil {
			return nil, fmt.Errorf("component %s: %w", c.Name(), err)
		}
	}

	if err = doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Models is the set of handles published once loading completes.
type Models struct {
	NLP     *Language
	AMR     AMRParser
	Aligner Aligner
}
