package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"spacyserver/app/nlp/penman"
)

var (
	ErrUnknownKey = errors.New("unknown parse result key")
	ErrValueType  = errors.New("invalid parse result value type")
)

const (
	KeyTokens        = "tokens"
	KeyNounChunks    = "noun_chunks"
	KeyEntities      = "entities"
	KeyCorefClusters = "coref_clusters"
	KeyAMRGraphs     = "amr_graphs"
)

// Keys lists the parse result fields in serialization order.
var Keys = []string{KeyTokens, KeyNounChunks, KeyEntities, KeyCorefClusters, KeyAMRGraphs}

type TokenRecord struct {
	Index          int    `json:"index"`
	CharIndex      int    `json:"char_index"`
	Text           string `json:"text"`
	Lemma          string `json:"lemma"`
	Pos            string `json:"pos"`
	Tag            string `json:"tag"`
	Dep            string `json:"dep"`
	IsAlpha        bool   `json:"is_alpha"`
	IsStop         bool   `json:"is_stop"`
	IsSentStart    bool   `json:"is_sent_start"`
	IsSentEnd      bool   `json:"is_sent_end"`
	EntType        string `json:"ent_type"`
	EntIOB         string `json:"ent_iob"`
	HeadIndex      int    `json:"head_index"`
	LeftEdgeIndex  int    `json:"left_edge_index"`
	RightEdgeIndex int    `json:"right_edge_index"`
	Norm           string `json:"norm"`
	EntKB          string `json:"ent_kb"`
	Morph          string `json:"morph"`
	Whitespace     string `json:"whitespace"`
}

// SpanRecord describes a noun chunk or a coreference mention.
type SpanRecord struct {
	Text         string `json:"text"`
	Start        int    `json:"start"`
	RootText     string `json:"root_text"`
	RootDep      string `json:"root_dep"`
	RootHeadText string `json:"root_head_text"`
}

type EntityRecord struct {
	Text         string `json:"text"`
	ID           uint64 `json:"id"`
	Start        int    `json:"start"`
	EntID        uint64 `json:"ent_id"`
	Label        string `json:"label"`
	RootText     string `json:"root_text"`
	RootDep      string `json:"root_dep"`
	RootHeadText string `json:"root_head_text"`
}

type EpidatumRecord struct {
	Mode        int            `json:"mode"`
	Type        string         `json:"type"`
	Repr        string         `json:"repr"`
	Annotations map[string]any `json:"annotations"`
}

type EpidataRecord struct {
	Triple  penman.Triple    `json:"triple"`
	Epidata []EpidatumRecord `json:"epidata"`
}

type AMRGraphRecord struct {
	Graph        string            `json:"graph"`
	TokenIndices []int             `json:"token_indices"`
	Alignments   string            `json:"alignments"`
	Triples      []penman.Triple   `json:"triples"`
	Epidata      []EpidataRecord   `json:"epidata"`
	Metadata     map[string]string `json:"metadata"`
}

// ParseResult is the response contract. Every field is always present and
// serializes as a list, empty when nothing was found.
type ParseResult struct {
	Tokens        []TokenRecord    `json:"tokens"`
	NounChunks    []SpanRecord     `json:"noun_chunks"`
	Entities      []EntityRecord   `json:"entities"`
	CorefClusters [][]SpanRecord   `json:"coref_clusters"`
	AMRGraphs     []AMRGraphRecord `json:"amr_graphs"`
}

// parseResultJSON has the same fields without the custom (un)marshalers.
type parseResultJSON ParseResult

func NewParseResult() *ParseResult {
	return &ParseResult{
		Tokens:        []TokenRecord{},
		NounChunks:    []SpanRecord{},
		Entities:      []EntityRecord{},
		CorefClusters: [][]SpanRecord{},
		AMRGraphs:     []AMRGraphRecord{},
	}
}

func (r *ParseResult) normalize() {
	if r.Tokens == nil {
		r.Tokens = []TokenRecord{}
	}
	if r.NounChunks == nil {
		r.NounChunks = []SpanRecord{}
	}
	if r.Entities == nil {
		r.Entities = []EntityRecord{}
	}
	if r.CorefClusters == nil {
		r.CorefClusters = [][]SpanRecord{}
	}
	if r.AMRGraphs == nil {
		r.AMRGraphs = []AMRGraphRecord{}
	}
}

// Set assigns a field by its JSON key. Keys outside the fixed five are rejected
// and a value of the wrong type leaves the field untouched.
func (r *ParseResult) Set(key string, value any) error {
	var ok bool

	switch key {
	case KeyTokens:
		ok = assign(&r.Tokens, value)
	case KeyNounChunks:
		ok = assign(&r.NounChunks, value)
	case KeyEntities:
		ok = assign(&r.Entities, value)
	case KeyCorefClusters:
		ok = assign(&r.CorefClusters, value)
	case KeyAMRGraphs:
		ok = assign(&r.AMRGraphs, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	if !ok {
		return fmt.Errorf("%w: %s cannot hold %T", ErrValueType, key, value)
	}

	r.normalize()

	return nil
}

func assign[T any](field *T, value any) bool {
	v, ok := value.(T)
	if ok {
		*field = v
	}
	return ok
}

func (r ParseResult) MarshalJSON() ([]byte, error) {
	r.normalize()
	return json.Marshal(parseResultJSON(r))
}

func (r *ParseResult) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var raw parseResultJSON
	if err := decoder.Decode(&raw); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return fmt.Errorf("%w: %w", ErrUnknownKey, err)
		}
		return err
	}

	*r = ParseResult(raw)
	r.normalize()

	return nil
}
