package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"spacyserver/app/nlp"
	"spacyserver/app/nlp/penman"
	"spacyserver/app/nlp/rules"
	"spacyserver/app/service/models"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

type Service struct {
	modelsSvc *models.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		modelsSvc: do.MustInvoke[*models.Service](di),
	}, nil
}

// TextOf returns value when it is a string and "" otherwise.
func TextOf(value any) string {
	text, _ := value.(string)
	return text
}

// Parse runs the loaded models once over text. Empty text returns the empty
// result without waiting for the models.
func (s *Service) Parse(ctx context.Context, text string) (*ParseResult, error) {
	result := NewParseResult()
	if len(text) == 0 {
		return result, nil
	}

	loaded, err := s.modelsSvc.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("models unavailable: %w", err)
	}

	start := time.Now()

	doc, err := loaded.NLP.Process(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to process text: %w", err)
	}

	if loaded.AMR != nil {
		if result.AMRGraphs, err = amrGraphs(ctx, loaded, doc); err != nil {
			return nil, err
		}
	}

	result.Tokens = tokenRecords(doc)
	result.NounChunks = pie.Map(doc.NounChunks, func(chunk nlp.Span) SpanRecord {
		return spanRecord(doc, chunk)
	})
	result.Entities = pie.Map(doc.Ents, func(ent nlp.Span) EntityRecord {
		return entityRecord(doc, ent)
	})
	result.CorefClusters = pie.Map(doc.SpanGroups(rules.ClusterPrefix), func(key string) []SpanRecord {
		return pie.Map(doc.Spans[key], func(mention nlp.Span) SpanRecord {
			return spanRecord(doc, mention)
		})
	})
	result.normalize()

	slog.Debug("Parsed text",
		"tokens", len(result.Tokens),
		"sentences", len(doc.Sents),
		"graphs", len(result.AMRGraphs),
		"duration", time.Since(start),
	)

	return result, nil
}

func amrGraphs(ctx context.Context, loaded *nlp.Models, doc *nlp.Doc) ([]AMRGraphRecord, error) {
	sents := make([]string, 0, len(doc.Sents))
	tokenized := make([]string, 0, len(doc.Sents))
	indices := make([][]int, 0, len(doc.Sents))

	for _, sent := range doc.Sents {
		sents = append(sents, doc.SpanText(sent))

		words := make([]string, 0, sent.End-sent.Start)
		ids := make([]int, 0, sent.End-sent.Start)
		for i := sent.Start; i < sent.End; i++ {
			words = append(words, alignerWord(doc.Tokens[i].Text))
			ids = append(ids, i)
		}

		tokenized = append(tokenized, strings.Join(words, " "))
		indices = append(indices, ids)
	}

	graphs, err := loaded.AMR.ParseSents(ctx, sents)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AMR graphs: %w", err)
	}
	if len(graphs) != len(sents) {
		return nil, fmt.Errorf("AMR parser returned %d graphs for %d sentences", len(graphs), len(sents))
	}

	aligned, alignments, err := loaded.Aligner.Align(ctx, tokenized, graphs)
	if err != nil {
		return nil, fmt.Errorf("failed to align AMR graphs: %w", err)
	}

	records := make([]AMRGraphRecord, 0, len(aligned))
	for i, graph := range aligned {
		decoded, err := penman.Decode(graph)
		if err != nil {
			return nil, fmt.Errorf("failed to decode AMR graph %d: %w", i, err)
		}

		records = append(records, AMRGraphRecord{
			Graph:        graph,
			TokenIndices: indices[i],
			Alignments:   alignments[i],
			Triples:      append([]penman.Triple{}, decoded.Triples...),
			Epidata:      epidataRecords(decoded),
			Metadata:     decoded.Metadata,
		})
	}

	return records, nil
}

// alignerWord keeps whitespace tokens from collapsing when sentences are space-joined.
func alignerWord(text string) string {
	if strings.TrimSpace(text) == "" {
		return "_"
	}
	return text
}

func epidataRecords(g *penman.Graph) []EpidataRecord {
	return pie.Map(g.Epidata, func(entry penman.TripleData) EpidataRecord {
		record := EpidataRecord{
			Triple:  entry.Triple,
			Epidata: make([]EpidatumRecord, 0, len(entry.Epidata)),
		}

		for _, e := range entry.Epidata {
			record.Epidata = append(record.Epidata, EpidatumRecord{
				Mode:        e.Mode(),
				Type:        e.TypeName(),
				Repr:        e.Repr(),
				Annotations: e.Annotations(),
			})
		}

		return record
	})
}

func tokenRecords(doc *nlp.Doc) []TokenRecord {
	return pie.Map(doc.Tokens, func(tok nlp.Token) TokenRecord {
		return TokenRecord{
			Index:          tok.I,
			CharIndex:      tok.Idx,
			Text:           tok.Text,
			Lemma:          tok.Lemma,
			Pos:            tok.Pos,
			Tag:            tok.Tag,
			Dep:            tok.Dep,
			IsAlpha:        tok.IsAlpha,
			IsStop:         tok.IsStop,
			IsSentStart:    tok.IsSentStart,
			IsSentEnd:      tok.IsSentEnd,
			EntType:        tok.EntType,
			EntIOB:         tok.EntIOB,
			HeadIndex:      tok.Head,
			LeftEdgeIndex:  tok.LeftEdge,
			RightEdgeIndex: tok.RightEdge,
			Norm:           tok.Norm,
			EntKB:          tok.EntKBID,
			Morph:          tok.Morph,
			Whitespace:     tok.Whitespace,
		}
	})
}

func spanRecord(doc *nlp.Doc, span nlp.Span) SpanRecord {
	root := doc.Tokens[doc.Root(span)]

	return SpanRecord{
		Text:         doc.SpanText(span),
		Start:        span.Start,
		RootText:     root.Text,
		RootDep:      root.Dep,
		RootHeadText: doc.Tokens[root.Head].Text,
	}
}

func entityRecord(doc *nlp.Doc, span nlp.Span) EntityRecord {
	root := doc.Tokens[doc.Root(span)]

	return EntityRecord{
		Text:         doc.SpanText(span),
		ID:           span.ID,
		Start:        span.Start,
		EntID:        span.EntID,
		Label:        span.Label,
		RootText:     root.Text,
		RootDep:      root.Dep,
		RootHeadText: doc.Tokens[root.Head].Text,
	}
}
