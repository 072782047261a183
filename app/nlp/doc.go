package nlp

import (
	"sort"
	"strings"
)

// Token is a single word or punctuation mark with its linguistic annotations.
// I is the position of the token in the doc, Idx its character offset in the doc text.
type Token struct {
	I           int    `json:"i"`
	Idx         int    `json:"idx"`
	Text        string `json:"text"`
	Lemma       string `json:"lemma"`
	Pos         string `json:"pos"`
	Tag         string `json:"tag"`
	Dep         string `json:"dep"`
	Head        int    `json:"head"`
	LeftEdge    int    `json:"left_edge"`
	RightEdge   int    `json:"right_edge"`
	IsAlpha     bool   `json:"is_alpha"`
	IsStop      bool   `json:"is_stop"`
	IsSentStart bool   `json:"is_sent_start"`
	IsSentEnd   bool   `json:"is_sent_end"`
	EntType     string `json:"ent_type"`
	EntIOB      string `json:"ent_iob"`
	EntKBID     string `json:"ent_kb_id"`
	Norm        string `json:"norm"`
	Morph       string `json:"morph"`
	Whitespace  string `json:"whitespace"`
}

// Span is a slice of doc tokens [Start, End).
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label,omitempty"`
	ID    uint64 `json:"id,omitempty"`
	EntID uint64 `json:"ent_id,omitempty"`
}

// Doc is the output of a pipeline run over one text.
type Doc struct {
	Text       string            `json:"text"`
	Tokens     []Token           `json:"tokens"`
	Sents      []Span            `json:"sents"`
	NounChunks []Span            `json:"noun_chunks"`
	Ents       []Span            `json:"ents"`
	Spans      map[string][]Span `json:"spans"`
}

func NewDoc(text string) *Doc {
	return &Doc{
		Text:  text,
		Spans: make(map[string][]Span),
	}
}

// SpanText joins span tokens with their trailing whitespace, omitting the last one.
func (d *Doc) SpanText(s Span) string {
	var builder strings.Builder

	for i := s.Start; i < s.End; i++ {
		builder.WriteString(d.Tokens[i].Text)
		if i < s.End-1 {
			builder.WriteString(d.Tokens[i].Whitespace)
		}
	}

	return builder.String()
}

// Root returns the index of the first span token whose head lies outside the span
// or points at itself.
func (d *Doc) Root(s Span) int {
	for i := s.Start; i < s.End; i++ {
		head := d.Tokens[i].Head
		if head == i || head < s.Start || head >= s.End {
			return i
		}
	}

	return s.Start
}

// SpanGroups returns the span group keys with the given prefix in a stable order.
// Numeric suffixes sort numerically, so coref_clusters_10 follows coref_clusters_9.
func (d *Doc) SpanGroups(prefix string) []string {
	keys := make([]string, 0, len(d.Spans))
	for key := range d.Spans {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := strings.TrimPrefix(keys[i], prefix), strings.TrimPrefix(keys[j], prefix)
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})

	return keys
}

// Validate checks that every token reference points inside the doc.
func (d *Doc) Validate() error {
	n := len(d.Tokens)

	for i, tok := range d.Tokens {
		if tok.I != i {
			return &InvalidDocError{Reason: "token index out of order", Index: i}
		}
		if tok.Head < 0 || tok.Head >= n {
			return &InvalidDocError{Reason: "head out of range", Index: i}
		}
		if tok.LeftEdge < 0 || tok.LeftEdge >= n || tok.RightEdge < 0 || tok.RightEdge >= n {
			return &InvalidDocError{Reason: "edge out of range", Index: i}
		}
	}

	check := func(spans []Span) error {
		for _, s := range spans {
			if s.Start < 0 || s.End > n || s.Start >= s.End {
				return &InvalidDocError{Reason: "span out of range", Index: s.Start}
			}
		}
		return nil
	}

	for _, group := range [][]Span{d.Sents, d.NounChunks, d.Ents} {
		if err := check(group); err != nil {
			return err
		}
	}

	for _, group := range d.Spans {
		if err := check(group); err != nil {
			return err
		}
	}

	return nil
}
