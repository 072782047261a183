// Package rules is the built-in English backend. Tokens, sentences, part-of-speech
// tags and statistical entities come from prose; a lexicon corrects function words,
// and heuristics add lemmas, dependencies, noun chunks, coreference and AMR graphs.
package rules

import (
	"context"
	"fmt"

	"spacyserver/app/nlp"

	"github.com/jdkato/prose/v2"
)

const Name = "rules"

var _ nlp.Pipeline = (*Pipeline)(nil)

// Pipeline tokenizes, tags, parses and finds entities in one pass. The prose
// model is loaded once and shared by every call.
type Pipeline struct {
	model *prose.Model
}

func New() (*Pipeline, error) {
	// an empty document loads the default tagger and entity extractor
	warm, err := prose.NewDocument("", prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("failed to load prose model: %w", err)
	}

	return &Pipeline{
		model: warm.Model,
	}, nil
}

// split runs prose over text and returns the located tokens and sentences.
func (p *Pipeline) split(text string) (tokenized, []nlp.Span, error) {
	doc, err := prose.NewDocument(text, prose.UsingModel(p.model))
	if err != nil {
		return tokenized{}, nil, fmt.Errorf("prose: %w", err)
	}

	t := tokenize(text, locate(text, doc.Tokens()))

	return t, sentences(t, sentenceEnds(text, doc.Sentences())), nil
}

func (p *Pipeline) Process(ctx context.Context, text string) (*nlp.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, sents, err := p.split(text)
	if err != nil {
		return nil, err
	}

	doc := nlp.NewDoc(text)
	doc.Tokens = t.tokens
	doc.Sents = sents

	tagTokens(doc.Tokens, doc.Sents)
	doc.NounChunks = parseDependencies(doc.Tokens, doc.Sents)
	doc.Ents = recognizeEntities(doc.Tokens, doc.Sents, t.labels)

	return doc, nil
}
