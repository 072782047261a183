package rules

import (
	"sort"
	"strconv"
	"strings"

	"spacyserver/app/nlp"
)

func lowerText(t nlp.Token) string {
	return strings.ToLower(strings.TrimSuffix(t.Text, "."))
}

func isYear(text string) bool {
	n, err := strconv.Atoi(text)
	return err == nil && len(text) == 4 && n >= 1000 && n <= 2100
}

// recognizeEntities finds named entities within sentences and sets token IOB tags.
// Lexicon matches come first; prose entities fill the tokens they leave uncovered.
func recognizeEntities(tokens []nlp.Token, sents []nlp.Span, labels []string) []nlp.Span {
	var ents []nlp.Span

	covered := make([]bool, len(tokens))
	for _, s := range sents {
		for i := s.Start; i < s.End; {
			span, ok := entityAt(tokens, s, i)
			if !ok {
				i++
				continue
			}

			ents = append(ents, span)
			for k := span.Start; k < span.End; k++ {
				covered[k] = true
			}
			i = span.End
		}
	}

	for _, s := range sents {
		for _, span := range statisticalEntities(tokens, s, labels) {
			free := true
			for k := span.Start; k < span.End; k++ {
				free = free && !covered[k]
			}
			if free {
				ents = append(ents, span)
			}
		}
	}

	sort.Slice(ents, func(i, j int) bool {
		return ents[i].Start < ents[j].Start
	})

	for i := range tokens {
		tokens[i].EntIOB = "O"
		tokens[i].EntType = ""
	}

	for _, e := range ents {
		for i := e.Start; i < e.End; i++ {
			tokens[i].EntType = e.Label
			tokens[i].EntIOB = "I"
		}
		tokens[e.Start].EntIOB = "B"
	}

	return ents
}

// statisticalEntities groups the IOB labels prose assigned within one sentence.
// Spans must start and end on a word.
func statisticalEntities(tokens []nlp.Token, s nlp.Span, labels []string) []nlp.Span {
	var (
		spans   []nlp.Span
		current *nlp.Span
	)

	closeSpan := func() {
		if current == nil {
			return
		}
		for current.End > current.Start && !isAlpha(tokens[current.End-1].Text) && !isNumber(tokens[current.End-1].Text) {
			current.End--
		}
		if current.End > current.Start {
			spans = append(spans, *current)
		}
		current = nil
	}

	for i := s.Start; i < s.End && i < len(labels); i++ {
		prefix, label, _ := strings.Cut(labels[i], "-")
		if label == "" {
			prefix, label = "", prefix
		}

		if label == "" || label == "O" || tokens[i].Pos == "SPACE" {
			closeSpan()
			continue
		}

		if current != nil && (prefix == "B" || current.Label != label) {
			closeSpan()
		}
		if current == nil {
			if !isAlpha(tokens[i].Text) && !isNumber(tokens[i].Text) {
				continue
			}
			current = &nlp.Span{Start: i, End: i, Label: label}
		}
		current.End = i + 1
	}
	closeSpan()

	return spans
}

func entityAt(tokens []nlp.Token, s nlp.Span, i int) (nlp.Span, bool) {
	t := tokens[i]
	lower := lowerText(t)

	if _, ok := months[lower]; ok && t.Pos == "PROPN" {
		end := i + 1
		if end < s.End && tokens[end].Pos == "NUM" {
			end++
		}
		if end+1 < s.End && tokens[end].Text == "," && isYear(tokens[end+1].Text) {
			end += 2
		}
		return nlp.Span{Start: i, End: end, Label: "DATE"}, true
	}

	if relativeDates[lower] {
		return nlp.Span{Start: i, End: i + 1, Label: "DATE"}, true
	}

	if t.Pos == "NUM" {
		if isYear(t.Text) {
			return nlp.Span{Start: i, End: i + 1, Label: "DATE"}, true
		}
		if i+1 < s.End && tokens[i+1].Text == "%" {
			return nlp.Span{Start: i, End: i + 2, Label: "PERCENT"}, true
		}
		if i > s.Start && tokens[i-1].Text == "$" {
			return nlp.Span{}, false
		}
		return nlp.Span{Start: i, End: i + 1, Label: "CARDINAL"}, true
	}

	if t.Text == "$" && i+1 < s.End && tokens[i+1].Pos == "NUM" {
		return nlp.Span{Start: i, End: i + 2, Label: "MONEY"}, true
	}

	if t.Pos != "PROPN" {
		return nlp.Span{}, false
	}

	titled := false
	start := i
	if titles[lower] {
		if i+1 >= s.End || tokens[i+1].Pos != "PROPN" {
			return nlp.Span{}, false
		}
		titled = true
		start = i + 1
	}

	end := start
	for end < s.End && tokens[end].Pos == "PROPN" {
		if _, ok := months[lowerText(tokens[end])]; ok && end > start {
			break
		}
		end++
	}

	words := make([]string, 0, end-start)
	for k := start; k < end; k++ {
		words = append(words, lowerText(tokens[k]))
	}
	name := strings.Join(words, " ")

	label := "PERSON"
	switch {
	case titled:
	case places[name] != "":
		label = "GPE"
	case orgSuffixes[words[len(words)-1]]:
		label = "ORG"
	case femaleNames[words[0]] || maleNames[words[0]]:
	case len(words) > 3:
		label = "ORG"
	}

	return nlp.Span{Start: start, End: end, Label: label}, true
}
