package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"spacyserver/app/nlp"
)

const (
	CorefName     = "coref"
	ClusterPrefix = "coref_clusters_"

	// antecedents are searched this many sentences back
	corefWindow = 3
	// and at most this many mentions back
	corefMaxCandidates = 64
)

var _ nlp.Component = (*Coref)(nil)

// Coref links pronouns and repeated names into clusters stored as span groups.
type Coref struct{}

func NewCoref() *Coref {
	return &Coref{}
}

func (c *Coref) Name() string {
	return CorefName
}

type mention struct {
	span    nlp.Span
	sent    int
	pronoun bool
	gender  string
	plural  bool
	key     string
}

func (c *Coref) Annotate(ctx context.Context, doc *nlp.Doc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mentions := collectMentions(doc)

	parent := make([]int, len(mentions))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i := range mentions {
		if j := antecedent(mentions, i); j >= 0 {
			a, b := find(i), find(j)
			if a < b {
				a, b = b, a
			}
			parent[a] = b
		}
	}

	clusters := make(map[int][]nlp.Span)
	var order []int
	for i, m := range mentions {
		root := find(i)
		if _, ok := clusters[root]; !ok {
			order = append(order, root)
		}
		clusters[root] = append(clusters[root], m.span)
	}

	n := 0
	for _, root := range order {
		spans := clusters[root]
		if len(spans) < 2 {
			continue
		}
		n++
		doc.Spans[fmt.Sprintf("%s%d", ClusterPrefix, n)] = spans
	}

	return nil
}

func collectMentions(doc *nlp.Doc) []mention {
	sentOf := make([]int, len(doc.Tokens))
	for k, s := range doc.Sents {
		for i := s.Start; i < s.End; i++ {
			sentOf[i] = k
		}
	}

	entLabel := make(map[int]string)
	for _, e := range doc.Ents {
		for i := e.Start; i < e.End; i++ {
			entLabel[i] = e.Label
		}
	}

	var mentions []mention

	for _, chunk := range doc.NounChunks {
		root := doc.Root(chunk)
		t := doc.Tokens[root]
		if t.Pos == "PRON" {
			continue
		}

		m := mention{
			span:   chunk,
			sent:   sentOf[root],
			plural: t.Tag == "NNS" || t.Tag == "NNPS",
			key:    strings.ToLower(t.Lemma),
		}

		m.gender = "neut"
		if entLabel[root] == "PERSON" {
			m.gender = ""
			first := strings.ToLower(doc.Tokens[chunk.Start].Text)
			for i := chunk.Start; i <= root; i++ {
				if entLabel[i] == "PERSON" {
					first = strings.ToLower(doc.Tokens[i].Text)
					break
				}
			}
			switch {
			case femaleNames[first]:
				m.gender = "fem"
			case maleNames[first]:
				m.gender = "masc"
			}
		}

		mentions = append(mentions, m)
	}

	for i, t := range doc.Tokens {
		info, ok := personalPronouns[strings.ToLower(t.Text)]
		if !ok || t.Pos != "PRON" {
			continue
		}

		mentions = append(mentions, mention{
			span:    nlp.Span{Start: i, End: i + 1},
			sent:    sentOf[i],
			pronoun: true,
			gender:  info.gender,
			plural:  info.plural,
		})
	}

	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].span.Start < mentions[j].span.Start
	})

	return mentions
}

func compatible(pronoun, candidate mention) bool {
	if pronoun.plural != candidate.plural {
		return pronoun.plural && candidate.gender == "neut" && !candidate.pronoun
	}
	if pronoun.plural {
		return true
	}
	if candidate.gender == "" {
		return pronoun.gender != "neut"
	}
	return pronoun.gender == candidate.gender
}

// antecedent returns the index of the mention i refers back to, or -1.
func antecedent(mentions []mention, i int) int {
	m := mentions[i]

	for j := i - 1; j >= 0 && i-j <= corefMaxCandidates; j-- {
		c := mentions[j]
		if m.sent-c.sent > corefWindow {
			break
		}
		if c.span.End > m.span.Start {
			continue
		}

		switch {
		case m.pronoun:
			if compatible(m, c) && !(c.pronoun && c.sent == m.sent) {
				return j
			}
		case !c.pronoun && c.key != "" && c.key == m.key:
			return j
		}
	}

	return -1
}
