package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"spacyserver/app/nlp"
)

// analysis is the lexical annotation of one token.
type analysis struct {
	pos   string
	tag   string
	lemma string
}

var punctTags = map[string]string{
	".": ".", "!": ".", "?": ".", ",": ",", ":": ":", ";": ":", "-": "HYPH", "--": ":",
	"(": "-LRB-", ")": "-RRB-", "[": "-LRB-", "]": "-RRB-", "\"": "''", "'": "''", "$": "$", "%": "NN",
}

// universalPos maps Penn Treebank tags to universal part-of-speech tags.
var universalPos = map[string]string{
	"NN": "NOUN", "NNS": "NOUN", "NNP": "PROPN", "NNPS": "PROPN",
	"VB": "VERB", "VBD": "VERB", "VBG": "VERB", "VBN": "VERB", "VBP": "VERB", "VBZ": "VERB",
	"JJ": "ADJ", "JJR": "ADJ", "JJS": "ADJ", "RB": "ADV", "RBR": "ADV", "RBS": "ADV", "WRB": "ADV",
	"PRP": "PRON", "PRP$": "PRON", "WP": "PRON", "WP$": "PRON", "EX": "PRON",
	"DT": "DET", "PDT": "DET", "WDT": "DET", "IN": "ADP", "RP": "ADP", "CC": "CCONJ",
	"CD": "NUM", "MD": "AUX", "TO": "PART", "POS": "PART", "UH": "INTJ", "SYM": "SYM",
	"FW": "X", "LS": "X",
}

// nominativePronouns open a clause, so a known verb form after them is a verb.
var nominativePronouns = set("i", "you", "he", "she", "it", "we", "they")

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isNumber(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// verbLemma recovers a known base form from an inflected verb and returns its PTB tag.
func verbLemma(lower string) (string, string, bool) {
	if w, ok := irregularVerbs[lower]; ok {
		return w.pos, w.tag, true
	}

	if verbBases[lower] {
		return lower, "VBP", true
	}

	type rule struct {
		suffix string
		tag    string
	}

	for _, r := range []rule{{"ing", "VBG"}, {"ed", "VBD"}, {"es", "VBZ"}, {"s", "VBZ"}} {
		if !strings.HasSuffix(lower, r.suffix) || len(lower) <= len(r.suffix)+1 {
			continue
		}

		for _, c := range stemCandidates(strings.TrimSuffix(lower, r.suffix)) {
			if verbBases[c] {
				return c, r.tag, true
			}
		}
	}

	return "", "", false
}

func stemCandidates(stem string) []string {
	candidates := []string{stem, stem + "e"}
	if strings.HasSuffix(stem, "i") {
		candidates = append(candidates, strings.TrimSuffix(stem, "i")+"y")
	}
	if n := len(stem); n > 2 && stem[n-1] == stem[n-2] {
		candidates = append(candidates, stem[:n-1])
	}
	return candidates
}

// guessVerbLemma strips the inflection of a verb the lexicon does not know.
func guessVerbLemma(lower, tag string) string {
	if lemma, _, ok := verbLemma(lower); ok {
		return lemma
	}

	var suffix string
	switch tag {
	case "VBZ":
		suffix = "s"
		if strings.HasSuffix(lower, "ies") {
			return strings.TrimSuffix(lower, "ies") + "y"
		}
		if endsWithAny(lower, "ches", "shes", "sses", "xes") {
			suffix = "es"
		}
	case "VBD", "VBN":
		suffix = "ed"
		if strings.HasSuffix(lower, "ied") {
			return strings.TrimSuffix(lower, "ied") + "y"
		}
	case "VBG":
		suffix = "ing"
	}

	stem := strings.TrimSuffix(lower, suffix)
	if suffix == "" || stem == lower || len(stem) < 2 {
		return lower
	}
	if n := len(stem); n > 2 && stem[n-1] == stem[n-2] && !strings.HasSuffix(stem, "ss") && !strings.HasSuffix(stem, "ll") {
		return stem[:n-1]
	}

	return stem
}

func nounLemma(lower string) (string, string) {
	switch {
	case len(lower) > 3 && strings.HasSuffix(lower, "ies"):
		return strings.TrimSuffix(lower, "ies") + "y", "NNS"
	case len(lower) > 3 && endsWithAny(lower, "ches", "shes", "sses", "xes"):
		return strings.TrimSuffix(lower, "es"), "NNS"
	case len(lower) > 3 && strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") &&
		!strings.HasSuffix(lower, "us") && !strings.HasSuffix(lower, "is"):
		return strings.TrimSuffix(lower, "s"), "NNS"
	default:
		return lower, "NN"
	}
}

func knownLower(lower string) bool {
	if _, ok := closedClass[lower]; ok {
		return true
	}
	if _, _, ok := verbLemma(lower); ok {
		return true
	}
	return adjectives[lower]
}

// lemmaCandidates lists the base forms a word may have out of context.
func lemmaCandidates(lower string) []string {
	candidates := []string{lower}
	if l, ok := auxLemmas[lower]; ok {
		candidates = append(candidates, l)
	}
	if l, _, ok := verbLemma(lower); ok {
		candidates = append(candidates, l)
	}
	if l, tag := nounLemma(lower); tag == "NNS" {
		candidates = append(candidates, l)
	}
	return candidates
}

func isNominal(pos string) bool {
	return pos == "NOUN" || pos == "PROPN" || pos == "NUM"
}

// tagTokens annotates doc tokens sentence by sentence. A token arrives with the
// statistical tag prose gave it; the lexicon overrides function words and known
// names, and fixes verbs prose read as nouns right after a subject.
func tagTokens(tokens []nlp.Token, sents []nlp.Span) {
	for _, s := range sents {
		var prev *nlp.Token
		first := true

		for i := s.Start; i < s.End; i++ {
			t := &tokens[i]
			if isSpaceToken(t.Text) {
				t.Pos, t.Tag, t.Lemma, t.Norm = "SPACE", "_SP", t.Text, t.Text
				continue
			}

			lower := strings.ReplaceAll(strings.ToLower(t.Text), "’", "'")
			next := ""
			for j := i + 1; j < s.End; j++ {
				if !isSpaceToken(tokens[j].Text) {
					next = strings.ToLower(tokens[j].Text)
					break
				}
			}

			a := analyzeWord(t.Text, lower, t.Tag, prev, next, first)
			t.Pos, t.Tag, t.Lemma = a.pos, a.tag, a.lemma

			t.Norm = lower
			if n, ok := norms[lower]; ok {
				t.Norm = n
			}
			t.IsAlpha = isAlpha(t.Text)
			t.IsStop = stopWords[lower]
			t.Morph = morphFor(lower, a)

			prev = t
			first = false
		}
	}
}

func analyzeWord(word, lower, statTag string, prev *nlp.Token, next string, sentenceStart bool) analysis {
	switch {
	case isPunct(word):
		tag, ok := punctTags[word]
		if !ok {
			tag = "NFP"
		}
		pos := "PUNCT"
		if word == "$" {
			pos = "SYM"
		}
		if word == "%" {
			pos = "NOUN"
		}
		return analysis{pos: pos, tag: tag, lemma: word}

	case isNumber(word):
		return analysis{pos: "NUM", tag: "CD", lemma: lower}

	case lower == "'s":
		if prev != nil && isNominal(prev.Pos) {
			return analysis{pos: "PART", tag: "POS", lemma: "'s"}
		}
		return analysis{pos: "AUX", tag: "VBZ", lemma: "be"}

	case lower == "to":
		if verbBases[next] {
			return analysis{pos: "PART", tag: "TO", lemma: "to"}
		}
		return analysis{pos: "ADP", tag: "IN", lemma: "to"}

	case lower == "her":
		if next == "" || isPunct(next) || !knownNominalStart(next) {
			return analysis{pos: "PRON", tag: "PRP", lemma: "she"}
		}
		return analysis{pos: "PRON", tag: "PRP$", lemma: "her"}
	}

	if isCapitalized(word) && lower != "i" {
		if knownName(lower) || (strings.HasSuffix(lower, ".") && titles[strings.TrimSuffix(lower, ".")]) {
			return analysis{pos: "PROPN", tag: "NNP", lemma: word}
		}
		if months[lower] > 0 && isNumber(next) {
			return analysis{pos: "PROPN", tag: "NNP", lemma: word}
		}
	}

	proper := statTag == "NNP" || statTag == "NNPS"
	if w, ok := closedClass[lower]; ok && !(proper && !sentenceStart) {
		return closedWord(lower, w, next)
	}

	if prev != nil && verbBases[lower] && (prev.Tag == "TO" || prev.Tag == "MD" || prev.Lemma == "do" || prev.Lemma == "not") {
		return analysis{pos: "VERB", tag: "VB", lemma: lower}
	}

	if prev != nil && universalPos[statTag] != "VERB" {
		if lemma, tag, ok := verbLemma(lower); ok {
			switch {
			case nominativePronouns[strings.ToLower(prev.Text)] && prev.Pos == "PRON":
				return analysis{pos: "VERB", tag: tag, lemma: lemma}
			case prev.Pos == "PROPN" && (tag == "VBD" || tag == "VBZ"):
				return analysis{pos: "VERB", tag: tag, lemma: lemma}
			}
		}
	}

	switch pos := universalPos[statTag]; pos {
	case "":
		return guessWord(word, lower, prev, sentenceStart)
	case "VERB":
		tag := statTag
		if tag == "VBP" && prev != nil && prev.Tag == "NNP" {
			tag = "VBZ"
		}
		return analysis{pos: pos, tag: tag, lemma: guessVerbLemma(lower, statTag)}
	case "NOUN":
		lemma := lower
		if statTag == "NNS" {
			lemma, _ = nounLemma(lower)
		}
		return analysis{pos: pos, tag: statTag, lemma: lemma}
	case "PROPN":
		return analysis{pos: pos, tag: statTag, lemma: word}
	default:
		return analysis{pos: pos, tag: statTag, lemma: lower}
	}
}

func knownName(lower string) bool {
	return femaleNames[lower] || maleNames[lower] || places[lower] != ""
}

func closedWord(lower string, w lexEntry, next string) analysis {
	lemma := lower
	if l, ok := auxLemmas[lower]; ok {
		lemma = l
	}
	if lower == "i" {
		lemma = "I"
	}
	if lower == "that" && (next == "" || isPunct(next) || knownNominalStart(next)) {
		return analysis{pos: "DET", tag: "DT", lemma: lemma}
	}
	if w.pos == "AUX" && !auxFollows(next) && (lemma == "do" || lemma == "have") {
		return analysis{pos: "VERB", tag: w.tag, lemma: lemma}
	}
	return analysis{pos: w.pos, tag: w.tag, lemma: lemma}
}

// guessWord tags a word prose left without a tag.
func guessWord(word, lower string, prev *nlp.Token, sentenceStart bool) analysis {
	afterDeterminer := prev != nil && (prev.Pos == "DET" || prev.Tag == "PRP$" || prev.Pos == "ADJ" || prev.Tag == "POS")

	if isCapitalized(word) && (!sentenceStart || !knownLower(lower)) {
		return analysis{pos: "PROPN", tag: "NNP", lemma: word}
	}

	if !afterDeterminer {
		if lemma, tag, ok := verbLemma(lower); ok {
			return analysis{pos: "VERB", tag: tag, lemma: lemma}
		}
	}

	if adjectives[lower] || hasAnySuffix(lower, "ful", "ous", "ive", "able", "ible", "less", "ish") {
		return analysis{pos: "ADJ", tag: "JJ", lemma: lower}
	}

	if strings.HasSuffix(lower, "ly") && len(lower) > 4 {
		return analysis{pos: "ADV", tag: "RB", lemma: lower}
	}

	lemma, tag := nounLemma(lower)

	return analysis{pos: "NOUN", tag: tag, lemma: lemma}
}

// knownNominalStart reports whether a lower-cased word can open a noun phrase body.
func knownNominalStart(lower string) bool {
	if adjectives[lower] {
		return true
	}
	if w, ok := closedClass[lower]; ok {
		return w.pos == "NOUN"
	}
	if _, _, ok := verbLemma(lower); ok {
		return false
	}
	return isAlpha(lower)
}

func auxFollows(next string) bool {
	if next == "not" || next == "n't" {
		return true
	}
	_, tag, ok := verbLemma(next)
	return ok && tag != "VBZ"
}

func endsWithAny(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if len(s) > len(suffix)+2 && strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func morphFor(lower string, a analysis) string {
	switch {
	case a.pos == "PRON":
		if lower == "her" && a.tag == "PRP$" {
			return "Gender=Fem|Number=Sing|Person=3|Poss=Yes|PronType=Prs"
		}
		return pronounMorph[lower]
	case a.pos == "DET" && lower == "the":
		return "Definite=Def|PronType=Art"
	case a.pos == "DET" && (lower == "a" || lower == "an"):
		return "Definite=Ind|PronType=Art"
	case a.tag == "POS":
		return ""
	}

	return tagMorph[a.tag]
}
