package rules

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"spacyserver/app/nlp"
	"spacyserver/app/nlp/penman"
)

const alignmentPrefix = "e."

var _ nlp.Aligner = (*Aligner)(nil)

var senseSuffix = regexp.MustCompile(`-\d+$`)

// unaligned concepts are introduced by the graph structure, not by a word.
var unaligned = map[string]bool{
	"name": true, "person": true, "thing": true, "multi-sentence": true, "date-entity": true,
	"quantity": true, "amr-empty": true, "organization": true, "country": true, "city": true,
	"state": true, "continent": true, "percentage-entity": true, "monetary-quantity": true,
}

// Aligner matches graph concepts and constants to the words of the sentence.
type Aligner struct{}

func NewAligner() *Aligner {
	return &Aligner{}
}

// wordIndex lists, for every surface form and lemma, the tokens carrying it in
// sentence order. cursor skips entries that were already aligned.
type wordIndex struct {
	positions map[string][]int
	cursor    map[string]int
	used      []bool
}

func newWordIndex(tokens []string) *wordIndex {
	idx := &wordIndex{
		positions: make(map[string][]int, len(tokens)*2),
		cursor:    make(map[string]int),
		used:      make([]bool, len(tokens)),
	}

	for i, t := range tokens {
		lower := strings.ToLower(t)
		if c, ok := nominative[lower]; ok {
			lower = c
		}

		seen := map[string]bool{}
		for _, key := range append([]string{t}, lemmaCandidates(lower)...) {
			if seen[key] {
				continue
			}
			seen[key] = true
			idx.positions[key] = append(idx.positions[key], i)
		}
	}

	return idx
}

// take returns the first unaligned token for want, or the last token carrying it
// when all of them are aligned already.
func (idx *wordIndex) take(want string) int {
	list := idx.positions[want]
	if len(list) == 0 {
		return -1
	}

	c := idx.cursor[want]
	for c < len(list) && idx.used[list[c]] {
		c++
	}
	idx.cursor[want] = c

	if c == len(list) {
		return list[len(list)-1]
	}

	idx.used[list[c]] = true
	return list[c]
}

type isiPair struct {
	token int
	path  string
}

func (a *Aligner) Align(ctx context.Context, sents []string, graphs []string) ([]string, []string, error) {
	if len(sents) != len(graphs) {
		return nil, nil, fmt.Errorf("align: %d sentences but %d graphs", len(sents), len(graphs))
	}

	aligned := make([]string, 0, len(graphs))
	isi := make([]string, 0, len(graphs))

	for k := range graphs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		tree, err := penman.Parse(graphs[k])
		if err != nil {
			return nil, nil, fmt.Errorf("align graph %d: %w", k, err)
		}

		pairs := alignTree(tree, strings.Split(sents[k], " "))

		aligned = append(aligned, penman.Format(tree))
		isi = append(isi, formatISI(pairs))
	}

	return aligned, isi, nil
}

func alignTree(tree *penman.Tree, tokens []string) []isiPair {
	idx := newWordIndex(tokens)

	var pairs []isiPair

	match := func(want string, path string) *penman.Alignment {
		best := idx.take(want)
		if best < 0 {
			return nil
		}

		pairs = append(pairs, isiPair{token: best, path: path})

		return &penman.Alignment{Prefix: alignmentPrefix, Indices: []int{best}}
	}

	tree.Walk(func(n *penman.Node, path string) {
		n.Align = nil
		concept := strings.ToLower(senseSuffix.ReplaceAllString(n.Concept, ""))
		if !unaligned[concept] {
			n.Align = match(concept, path)
		}

		for k, e := range n.Edges {
			e.RoleAlign = nil
			if e.Target != nil {
				continue
			}

			e.ValueAlign = nil
			edgePath := path + "." + strconv.Itoa(k+1)

			switch value := e.Value; {
			case value == "-":
				for _, neg := range []string{"not", "no", "never"} {
					if e.ValueAlign = match(neg, edgePath); e.ValueAlign != nil {
						break
					}
				}
			case strings.HasPrefix(value, `"`):
				if unquoted, err := strconv.Unquote(value); err == nil {
					e.ValueAlign = match(unquoted, edgePath)
				}
			default:
				e.ValueAlign = match(strings.ToLower(value), edgePath)
			}
		}
	})

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].token < pairs[j].token
	})

	return pairs
}

// formatISI renders token-path pairs such as "0-1.1.1.1 1-1".
func formatISI(pairs []isiPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, strconv.Itoa(p.token)+"-"+p.path)
	}

	return strings.Join(parts, " ")
}
