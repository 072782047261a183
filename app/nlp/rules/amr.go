package rules

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"spacyserver/app/nlp"
	"spacyserver/app/nlp/penman"
)

var _ nlp.AMRParser = (*AMR)(nil)

var prepRoles = map[string]string{
	"in": ":location", "at": ":location", "near": ":location", "on": ":location",
	"under": ":location", "behind": ":location", "across": ":location", "around": ":location",
	"with": ":accompanier", "for": ":beneficiary", "from": ":source", "to": ":destination",
	"into": ":destination", "about": ":topic", "by": ":ARG0", "during": ":time",
	"after": ":time", "before": ":time", "since": ":time", "until": ":time", "without": ":manner",
	"of": ":poss", "between": ":location", "through": ":path",
}

var markRoles = map[string]string{
	"when": ":time", "while": ":time", "after": ":time", "before": ":time", "until": ":time",
	"since": ":time", "if": ":condition", "unless": ":condition", "because": ":cause",
	"although": ":concession", "though": ":concession", "that": ":ARG1",
}

var labelConcepts = map[string]string{
	"PERSON": "person",
	"ORG":    "organization",
	"GPE":    "country",
}

var quantityConcepts = map[string]string{
	"CARDINAL": "quantity",
	"PERCENT":  "percentage-entity",
	"MONEY":    "monetary-quantity",
}

// AMR builds PENMAN graphs from the dependency parse of each sentence.
type AMR struct {
	pipeline *Pipeline
}

func NewAMR(p *Pipeline) *AMR {
	return &AMR{pipeline: p}
}

func (a *AMR) ParseSents(ctx context.Context, sents []string) ([]string, error) {
	graphs := make([]string, 0, len(sents))

	for _, sent := range sents {
		doc, err := a.pipeline.Process(ctx, sent)
		if err != nil {
			return nil, fmt.Errorf("process %q: %w", sent, err)
		}

		tree := &penman.Tree{Root: newGraphBuilder(doc).build()}
		tree.SetMeta("snt", sent)

		graphs = append(graphs, penman.Format(tree))
	}

	return graphs, nil
}

type graphBuilder struct {
	doc      *nlp.Doc
	children map[int][]int
	entities map[int]nlp.Span
	vars     map[string]int
	done     map[int]bool
}

func newGraphBuilder(doc *nlp.Doc) *graphBuilder {
	b := &graphBuilder{
		doc:      doc,
		children: make(map[int][]int),
		entities: make(map[int]nlp.Span),
		vars:     make(map[string]int),
		done:     make(map[int]bool),
	}

	for i, t := range doc.Tokens {
		if t.Head != i {
			b.children[t.Head] = append(b.children[t.Head], i)
		}
	}

	for _, e := range doc.Ents {
		for i := e.Start; i < e.End; i++ {
			b.entities[i] = e
		}
	}

	return b
}

var variableStart = regexp.MustCompile(`[a-z]`)

func (b *graphBuilder) variable(concept string) string {
	letter := variableStart.FindString(strings.ToLower(concept))
	if letter == "" {
		letter = "x"
	}

	b.vars[letter]++
	if n := b.vars[letter]; n > 1 {
		return letter + strconv.Itoa(n)
	}

	return letter
}

func (b *graphBuilder) node(concept string) *penman.Node {
	return &penman.Node{Var: b.variable(concept), Concept: concept}
}

func (b *graphBuilder) build() *penman.Node {
	var roots []int

	for _, s := range b.doc.Sents {
		root := b.doc.Root(s)
		if pos := b.doc.Tokens[root].Pos; pos == "PUNCT" || pos == "SPACE" {
			continue
		}
		roots = append(roots, root)
	}

	switch len(roots) {
	case 0:
		return b.node("amr-empty")
	case 1:
		return b.token(roots[0])
	}

	multi := b.node("multi-sentence")
	for k, r := range roots {
		multi.Edges = append(multi.Edges, &penman.Edge{Role: ":snt" + strconv.Itoa(k+1), Target: b.token(r)})
	}

	return multi
}

// token builds the node for token i, wrapping coordinated tokens in a conjunction node.
func (b *graphBuilder) token(i int) *penman.Node {
	var conj []int
	cc := ""
	for _, c := range b.children[i] {
		switch b.doc.Tokens[c].Dep {
		case "conj":
			conj = append(conj, c)
		case "cc":
			cc = strings.ToLower(b.doc.Tokens[c].Lemma)
		}
	}

	if len(conj) == 0 || cc == "" {
		return b.single(i)
	}

	group := b.node(cc)
	group.Edges = append(group.Edges, &penman.Edge{Role: ":op1", Target: b.single(i)})
	for k, c := range conj {
		group.Edges = append(group.Edges, &penman.Edge{Role: ":op" + strconv.Itoa(k+2), Target: b.single(c)})
	}

	return group
}

func (b *graphBuilder) single(i int) *penman.Node {
	b.done[i] = true
	t := b.doc.Tokens[i]

	if ent, ok := b.entities[i]; ok {
		return b.entity(ent)
	}

	if t.Pos == "AUX" {
		if n := b.copula(i); n != nil {
			return n
		}
	}

	n := b.node(conceptFor(t))
	b.arguments(n, i, t.Dep == "ROOT" || t.Pos == "VERB")

	return n
}

func conceptFor(t nlp.Token) string {
	lower := strings.ToLower(t.Text)

	switch t.Pos {
	case "VERB", "AUX":
		return t.Lemma + "-01"
	case "PRON":
		if c, ok := nominative[lower]; ok {
			return c
		}
		return lower
	case "PROPN":
		return lower
	}

	return strings.ToLower(t.Lemma)
}

// copula turns "X is happy" into (h / happy :domain X) and "X is a doctor" into (d / doctor :domain X).
func (b *graphBuilder) copula(i int) *penman.Node {
	for _, c := range b.children[i] {
		dep := b.doc.Tokens[c].Dep
		if dep != "acomp" && dep != "attr" {
			continue
		}

		n := b.single(c)
		for _, s := range b.children[i] {
			if b.doc.Tokens[s].Dep == "nsubj" {
				n.Edges = append(n.Edges, &penman.Edge{Role: ":domain", Target: b.token(s)})
			}
		}
		b.arguments(n, i, false)

		return n
	}

	return nil
}

func (b *graphBuilder) entity(ent nlp.Span) *penman.Node {
	for i := ent.Start; i < ent.End; i++ {
		b.done[i] = true
	}

	words := make([]string, 0, ent.End-ent.Start)
	for i := ent.Start; i < ent.End; i++ {
		words = append(words, b.doc.Tokens[i].Text)
	}

	switch ent.Label {
	case "DATE":
		return b.date(words)
	case "CARDINAL", "PERCENT", "MONEY":
		n := b.node(quantityConcepts[ent.Label])
		n.Edges = append(n.Edges, &penman.Edge{Role: ":quant", Value: words[len(words)-1]})
		if ent.Label == "MONEY" {
			n.Edges = append(n.Edges, &penman.Edge{Role: ":unit", Target: b.node("dollar")})
		}
		return n
	}

	concept := labelConcepts[ent.Label]
	if ent.Label == "GPE" {
		if c := places[strings.ToLower(strings.Join(words, " "))]; c != "" {
			concept = c
		}
	}
	if concept == "" {
		concept = "thing"
	}

	n := b.node(concept)
	name := b.node("name")
	for k, w := range words {
		name.Edges = append(name.Edges, &penman.Edge{Role: ":op" + strconv.Itoa(k+1), Value: strconv.Quote(w)})
	}
	n.Edges = append(n.Edges, &penman.Edge{Role: ":name", Target: name})

	root := b.doc.Root(ent)
	b.arguments(n, root, false)

	return n
}

func (b *graphBuilder) date(words []string) *penman.Node {
	if len(words) == 1 && relativeDates[strings.ToLower(words[0])] {
		return b.node(strings.ToLower(words[0]))
	}

	n := b.node("date-entity")
	for _, w := range words {
		lower := strings.ToLower(w)
		switch {
		case months[lower] > 0:
			n.Edges = append(n.Edges, &penman.Edge{Role: ":month", Value: strconv.Itoa(months[lower])})
		case isYear(w):
			n.Edges = append(n.Edges, &penman.Edge{Role: ":year", Value: w})
		case isNumber(w):
			n.Edges = append(n.Edges, &penman.Edge{Role: ":day", Value: w})
		}
	}

	return n
}

// arguments attaches the dependents of token i to n.
func (b *graphBuilder) arguments(n *penman.Node, i int, predicate bool) {
	for _, c := range b.children[i] {
		if b.done[c] {
			continue
		}

		t := b.doc.Tokens[c]
		role := ""

		switch t.Dep {
		case "nsubj":
			role = ":ARG0"
			if !predicate {
				role = ":domain"
			}
		case "nsubjpass", "dobj", "xcomp", "ccomp":
			role = ":ARG1"
		case "dative":
			role = ":ARG2"
		case "amod", "compound", "acomp":
			role = ":mod"
		case "poss":
			role = ":poss"
		case "npadvmod":
			role = ":time"
		case "advmod":
			role = ":manner"
			if !strings.HasSuffix(strings.ToLower(t.Text), "ly") {
				role = ":mod"
			}
		case "neg":
			b.done[c] = true
			n.Edges = append(n.Edges, &penman.Edge{Role: ":polarity", Value: "-"})
			continue
		case "nummod":
			b.done[c] = true
			n.Edges = append(n.Edges, &penman.Edge{Role: ":quant", Value: t.Text})
			continue
		case "det":
			if strings.ToLower(t.Text) == "no" {
				b.done[c] = true
				n.Edges = append(n.Edges, &penman.Edge{Role: ":polarity", Value: "-"})
			}
			continue
		case "prep":
			b.preposition(n, c)
			continue
		case "advcl":
			role = ":time"
			for _, m := range b.children[c] {
				if b.doc.Tokens[m].Dep == "mark" {
					if r, ok := markRoles[strings.ToLower(b.doc.Tokens[m].Text)]; ok {
						role = r
					}
				}
			}
		}

		if role == "" {
			continue
		}

		n.Edges = append(n.Edges, &penman.Edge{Role: role, Target: b.token(c)})
	}
}

func (b *graphBuilder) preposition(n *penman.Node, prep int) {
	b.done[prep] = true
	lemma := strings.ToLower(b.doc.Tokens[prep].Text)

	role, ok := prepRoles[lemma]
	if !ok {
		role = ":prep-" + lemma
	}

	for _, c := range b.children[prep] {
		if b.doc.Tokens[c].Dep != "pobj" || b.done[c] {
			continue
		}

		r := role
		if ent, ok := b.entities[c]; ok && ent.Label == "DATE" {
			r = ":time"
		}
		n.Edges = append(n.Edges, &penman.Edge{Role: r, Target: b.token(c)})
	}
}
