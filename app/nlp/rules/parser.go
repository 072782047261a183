package rules

import (
	"spacyserver/app/nlp"
)

type unitKind int

const (
	unitOther unitKind = iota
	unitNoun
	unitPred
)

// unit is a phrase the attachment pass treats as one item: a noun phrase, a predicate
// with its auxiliaries, or a single token.
type unit struct {
	kind   unitKind
	start  int
	head   int
	copula bool
	toInf  bool
	marked bool
}

var chunkDeps = map[string]bool{
	"nsubj": true, "nsubjpass": true, "dobj": true, "dative": true, "pobj": true,
	"ROOT": true, "conj": true, "attr": true, "npadvmod": true,
}

type depParser struct {
	toks     []nlp.Token
	idx      []int
	absorbed map[int]bool
	passive  map[int]bool
	root     int
}

func (p *depParser) attach(child, head int, dep string) {
	if child == head {
		return
	}
	p.toks[child].Head = head
	p.toks[child].Dep = dep
}

// parseDependencies assigns heads, labels and subtree edges sentence by sentence
// and returns the noun chunks.
func parseDependencies(tokens []nlp.Token, sents []nlp.Span) []nlp.Span {
	var chunks []nlp.Span

	for _, s := range sents {
		chunks = append(chunks, parseSentence(tokens, s)...)
	}

	return chunks
}

func parseSentence(tokens []nlp.Token, s nlp.Span) []nlp.Span {
	p := &depParser{
		toks:     tokens,
		absorbed: make(map[int]bool),
		passive:  make(map[int]bool),
	}

	for i := s.Start; i < s.End; i++ {
		tokens[i].Head = i
		tokens[i].Dep = ""
		if tokens[i].Pos != "SPACE" {
			p.idx = append(p.idx, i)
		}
	}

	var units []unit
	if len(p.idx) == 0 {
		p.root = s.Start
	} else {
		p.absorbVerbGroups()
		units = p.units()
		p.chooseRoot(units)
		p.attachUnits(units)
	}

	p.finish(s)

	var chunks []nlp.Span
	for _, u := range units {
		if u.kind == unitNoun && chunkDeps[tokens[u.head].Dep] {
			chunks = append(chunks, nlp.Span{Start: u.start, End: u.head + 1})
		}
	}

	return chunks
}

// absorbVerbGroups attaches auxiliaries, negation, adverbs and infinitival "to"
// directly preceding each lexical verb.
func (p *depParser) absorbVerbGroups() {
	for k, i := range p.idx {
		verb := &p.toks[i]
		if verb.Pos != "VERB" {
			continue
		}

		hasBe := false
		for j := k - 1; j >= 0; j-- {
			t := p.toks[p.idx[j]]

			var dep string
			switch {
			case t.Pos == "AUX":
				dep = "aux"
				if t.Lemma == "be" {
					hasBe = true
				}
				if t.Lemma == "have" && verb.Tag == "VBD" {
					verb.Tag = "VBN"
					verb.Morph = tagMorph["VBN"]
				}
			case t.Tag == "TO":
				dep = "aux"
			case t.Lemma == "not":
				dep = "neg"
			case t.Pos == "ADV":
				dep = "advmod"
			}

			if dep == "" {
				break
			}

			p.absorbed[p.idx[j]] = true
			p.attach(p.idx[j], i, dep)
		}

		if hasBe && (verb.Tag == "VBD" || verb.Tag == "VBN") {
			verb.Tag = "VBN"
			verb.Morph = tagMorph["VBN"]
			p.passive[i] = true

			for j := k - 1; j >= 0 && p.absorbed[p.idx[j]]; j-- {
				if t := &p.toks[p.idx[j]]; t.Dep == "aux" && t.Lemma == "be" {
					t.Dep = "auxpass"
				}
			}
		}
	}
}

func (p *depParser) units() []unit {
	var units []unit

	for k := 0; k < len(p.idx); {
		i := p.idx[k]
		t := p.toks[i]

		switch {
		case p.absorbed[i]:
			k++

		case t.Pos == "VERB" || t.Pos == "AUX":
			u := unit{kind: unitPred, start: i, head: i, copula: t.Pos == "AUX"}
			if k > 0 && p.toks[p.idx[k-1]].Tag == "TO" && p.absorbed[p.idx[k-1]] {
				u.toInf = true
			}
			units = append(units, u)
			k++

		default:
			if u, next, ok := p.nounPhrase(k); ok {
				units = append(units, u)
				k = next
				continue
			}
			units = append(units, unit{kind: unitOther, start: i, head: i})
			k++
		}
	}

	pendingMark := false
	for n := range units {
		u := &units[n]
		if u.kind == unitOther && p.toks[u.head].Pos == "SCONJ" {
			pendingMark = true
		}
		if u.kind == unitPred && pendingMark {
			u.marked = true
			pendingMark = false
		}
	}

	return units
}

// nounPhrase groups determiners, possessives, adjectives and nominals starting at
// position at. The last nominal is the head.
func (p *depParser) nounPhrase(at int) (unit, int, bool) {
	head := -1

	k := at
scan:
	for k < len(p.idx) {
		t := p.toks[p.idx[k]]

		switch {
		case t.Pos == "PRON" && t.Tag != "PRP$":
			if k == at {
				head = k
				k++
			}
			break scan
		case t.Pos == "NOUN" || t.Pos == "PROPN" || t.Pos == "NUM":
			if head >= 0 && t.Pos == "NUM" {
				break scan
			}
			head = k
			k++
		case t.Pos == "DET" || t.Tag == "PRP$" || t.Pos == "ADJ":
			if head >= 0 {
				break scan
			}
			k++
		default:
			break scan
		}
	}

	if head < 0 {
		return unit{}, at, false
	}

	headTok := p.idx[head]
	for m := at; m < head; m++ {
		i := p.idx[m]

		var dep string
		switch t := p.toks[i]; {
		case t.Tag == "PRP$":
			dep = "poss"
		case t.Pos == "DET":
			dep = "det"
		case t.Pos == "ADJ":
			dep = "amod"
		case t.Pos == "NUM":
			dep = "nummod"
		default:
			dep = "compound"
		}
		p.attach(i, headTok, dep)
	}

	u := unit{kind: unitNoun, start: p.idx[at], head: headTok}

	end := head + 1
	if end < len(p.idx) && p.toks[p.idx[end]].Tag == "POS" {
		p.attach(p.idx[end], headTok, "case")

		if owned, next, ok := p.nounPhrase(end + 1); ok {
			p.attach(headTok, owned.head, "poss")
			owned.start = u.start
			return owned, next, true
		}

		return u, end + 1, true
	}

	return u, end, true
}

func (p *depParser) chooseRoot(units []unit) {
	p.root = -1

	for _, u := range units {
		if u.kind == unitPred && !u.marked && !u.toInf {
			p.root = u.head
			return
		}
	}

	for _, kind := range []unitKind{unitPred, unitNoun, unitOther} {
		for _, u := range units {
			if u.kind == kind {
				p.root = u.head
				return
			}
		}
	}

	p.root = p.idx[0]
}

// predicateFollows reports whether the unit after n opens a finite clause.
func predicateFollows(units []unit, n int) bool {
	return n+1 < len(units) && units[n+1].kind == unitPred && !units[n+1].toInf
}

func (p *depParser) attachUnits(units []unit) {
	var (
		pendingSubj []int
		objects     []int

		lastPred    = -1
		lastNoun    = -1
		lastKind    = unitOther
		pendingADP  = -1
		ccTok       = -1
		ccTarget    = -1
		ccKind      = unitOther
		markTok     = -1
		lastPredCop = false
	)

	for n, u := range units {
		h := u.head
		t := p.toks[h]

		switch u.kind {
		case unitNoun:
			switch {
			case pendingADP >= 0:
				p.attach(h, pendingADP, "pobj")
				pendingADP = -1
			case ccTok >= 0 && ccKind == unitNoun && !(lastPred >= 0 && predicateFollows(units, n)):
				p.attach(h, ccTarget, "conj")
				ccTok = -1
			case lastPred >= 0 && !predicateFollows(units, n):
				switch {
				case lastPredCop:
					p.attach(h, lastPred, "attr")
				case len(objects) == 1 && p.toks[objects[0]].Dep == "dobj":
					p.toks[objects[0]].Dep = "dative"
					p.attach(h, lastPred, "dobj")
				default:
					p.attach(h, lastPred, "dobj")
				}
				objects = append(objects, h)
			default:
				pendingSubj = append(pendingSubj, h)
			}
			lastNoun = h
			lastKind = unitNoun

		case unitPred:
			if len(pendingSubj) > 0 {
				subj := pendingSubj[len(pendingSubj)-1]
				dep := "nsubj"
				if p.passive[h] {
					dep = "nsubjpass"
				}
				p.attach(subj, h, dep)
				for _, other := range pendingSubj[:len(pendingSubj)-1] {
					p.attach(other, h, "npadvmod")
				}
				pendingSubj = nil
			}

			if u.marked && markTok >= 0 {
				p.attach(markTok, h, "mark")
			}

			if h != p.root {
				switch {
				case u.marked:
					dep := "advcl"
					if markTok >= 0 && p.toks[markTok].Lemma == "that" {
						dep = "ccomp"
					}
					gov := p.root
					if dep == "ccomp" && lastPred >= 0 {
						gov = lastPred
					}
					p.attach(h, gov, dep)
				case u.toInf && lastPred >= 0:
					p.attach(h, lastPred, "xcomp")
				case ccTok >= 0 && lastPred >= 0:
					p.attach(h, lastPred, "conj")
					p.attach(ccTok, lastPred, "cc")
				case lastPred >= 0:
					p.attach(h, lastPred, "ccomp")
				default:
					p.attach(h, p.root, "advcl")
				}
			}

			ccTok, markTok, pendingADP = -1, -1, -1
			objects = nil
			lastPred = h
			lastPredCop = u.copula
			lastKind = unitPred

		default:
			gov := lastPred
			if gov < 0 {
				gov = p.root
			}

			switch t.Pos {
			case "ADP":
				p.attach(h, gov, "prep")
				pendingADP = h
			case "CCONJ":
				target := lastNoun
				if lastKind == unitPred || target < 0 {
					target = gov
				}
				p.attach(h, target, "cc")
				ccTok, ccTarget, ccKind = h, target, lastKind
			case "SCONJ":
				markTok = h
			case "ADJ":
				if lastPred >= 0 {
					p.attach(h, lastPred, "acomp")
				} else if lastNoun >= 0 {
					p.attach(h, lastNoun, "amod")
				}
			case "ADV":
				p.attach(h, gov, "advmod")
			case "PART":
				if t.Lemma == "not" {
					p.attach(h, gov, "neg")
				}
			case "PUNCT":
				p.attach(h, p.root, "punct")
			case "INTJ":
				p.attach(h, p.root, "intj")
			}
		}
	}

	if markTok >= 0 {
		p.attach(markTok, p.root, "mark")
	}
}

// finish labels the root, attaches leftovers and computes subtree edges.
func (p *depParser) finish(s nlp.Span) {
	root := p.root

	p.toks[root].Head = root
	p.toks[root].Dep = "ROOT"

	for i := s.Start; i < s.End; i++ {
		t := &p.toks[i]
		if i == root || t.Dep != "" {
			continue
		}

		if t.Pos == "SPACE" {
			head := i - 1
			if head < s.Start {
				head = root
			}
			t.Head, t.Dep = head, "dep"
			continue
		}

		t.Head, t.Dep = root, "dep"
	}

	// tokens cut off from the root by a cycle or a second root hang off the root
	order := p.preorder(s, root)
	reached := make([]bool, s.End-s.Start)
	for _, i := range order {
		reached[i-s.Start] = true
	}
	for i := s.Start; i < s.End; i++ {
		if !reached[i-s.Start] {
			p.toks[i].Head, p.toks[i].Dep = root, "dep"
		}
	}
	if len(order) < s.End-s.Start {
		order = p.preorder(s, root)
	}

	for i := s.Start; i < s.End; i++ {
		p.toks[i].LeftEdge = i
		p.toks[i].RightEdge = i
	}

	// children come after their head in preorder, so a reverse walk sees every
	// subtree complete before its head
	for k := len(order) - 1; k > 0; k-- {
		t := p.toks[order[k]]
		h := &p.toks[t.Head]
		if t.LeftEdge < h.LeftEdge {
			h.LeftEdge = t.LeftEdge
		}
		if t.RightEdge > h.RightEdge {
			h.RightEdge = t.RightEdge
		}
	}
}

// preorder lists the tokens reachable from root, each after its head.
func (p *depParser) preorder(s nlp.Span, root int) []int {
	children := make([][]int, s.End-s.Start)
	for i := s.Start; i < s.End; i++ {
		if h := p.toks[i].Head; h != i && h >= s.Start && h < s.End {
			children[h-s.Start] = append(children[h-s.Start], i)
		}
	}

	order := make([]int, 0, s.End-s.Start)
	stack := []int{root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, i)
		stack = append(stack, children[i-s.Start]...)
	}

	return order
}
