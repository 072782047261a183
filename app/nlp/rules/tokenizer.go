package rules

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"spacyserver/app/nlp"

	"github.com/jdkato/prose/v2"
)

var (
	abbreviationRegex = regexp.MustCompile(`^(?i:mr|mrs|ms|dr|prof|st|jr|sr|inc|corp|ltd|co|vs|etc|e\.g|i\.e)\.$`)
	shortWordDotRegex = regexp.MustCompile(`^\p{Lu}\p{Ll}{1,2}\.$`)
)

// prose folds these into ASCII quotes before splitting
var quoteVariants = map[rune]string{
	'\'': "’‘",
	'"':  "“”",
}

const htmlApostrophe = "&rsquo;"

// maxSentenceSearch bounds the look-ahead when a sentence is located in the text.
const maxSentenceSearch = 256

// piece is a prose token located in the source text by byte offsets.
type piece struct {
	start int
	end   int
	tag   string
	label string
}

// tokenized is the tokenizer output: doc tokens plus the byte offset and
// prose entity label of each one.
type tokenized struct {
	tokens []nlp.Token
	starts []int
	labels []string
}

func isSpaceToken(text string) bool {
	return strings.TrimSpace(text) == ""
}

func isPunct(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return text != "" && !isSpaceToken(text)
}

// nextChunk returns the bounds of the next run of non-space runes at or after pos.
func nextChunk(text string, pos int) (int, int) {
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += size
	}

	end := pos
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if unicode.IsSpace(r) {
			break
		}
		end += size
	}

	return pos, end
}

// locate maps prose tokens back onto text. Prose never splits across whitespace,
// so each whitespace-separated chunk is matched against the tokens prose made of it.
func locate(text string, toks []prose.Token) []piece {
	pieces := make([]piece, 0, len(toks))

	k := 0
	for pos := 0; pos < len(text); {
		start, end := nextChunk(text, pos)
		if start == end {
			break
		}
		chunk := text[start:end]

		matched, used, ok := matchChunk(chunk, toks[k:])
		if !ok {
			matched = []piece{{end: len(chunk)}}
			if k < len(toks) {
				matched[0].tag, matched[0].label = toks[k].Tag, toks[k].Label
			}
			used = resync(chunk, toks[k:])
		}
		k += used

		for _, p := range normalizeChunk(chunk, matched) {
			p.start += start
			p.end += start
			pieces = append(pieces, p)
		}

		pos = end
	}

	return pieces
}

func matchChunk(chunk string, toks []prose.Token) ([]piece, int, bool) {
	var pieces []piece

	pos, n := 0, 0
	for pos < len(chunk) && n < len(toks) {
		tok := toks[n]
		n++
		if isSpaceToken(tok.Text) {
			continue
		}

		end, ok := matchToken(chunk, pos, tok.Text)
		if !ok {
			return nil, 0, false
		}

		pieces = append(pieces, piece{start: pos, end: end, tag: tok.Tag, label: tok.Label})
		pos = end
	}

	return pieces, n, pos == len(chunk)
}

// matchToken consumes the source bytes of one prose token starting at pos.
func matchToken(chunk string, pos int, text string) (int, bool) {
	for _, want := range text {
		if pos >= len(chunk) {
			return 0, false
		}
		if want == '\'' && strings.HasPrefix(chunk[pos:], htmlApostrophe) {
			pos += len(htmlApostrophe)
			continue
		}

		got, size := utf8.DecodeRuneInString(chunk[pos:])
		if got != want && !strings.ContainsRune(quoteVariants[want], got) {
			return 0, false
		}
		pos += size
	}

	return pos, true
}

// resync skips the prose tokens covering a chunk that could not be matched.
func resync(chunk string, toks []prose.Token) int {
	want := utf8.RuneCountInString(chunk)

	n, got := 0, 0
	for n < len(toks) && got < want {
		got += utf8.RuneCountInString(strings.TrimSpace(toks[n].Text))
		n++
	}

	return n
}

// normalizeChunk keeps known abbreviations whole and splits the period off short
// capitalized words such as "Bob.", whatever prose did with them.
func normalizeChunk(chunk string, pieces []piece) []piece {
	if abbreviationRegex.MatchString(chunk) {
		return []piece{{end: len(chunk), tag: pieces[0].tag, label: pieces[0].label}}
	}

	last := pieces[len(pieces)-1]
	if text := chunk[last.start:last.end]; shortWordDotRegex.MatchString(text) {
		dot := piece{start: last.end - 1, end: last.end, tag: "."}
		last.end--
		pieces = append(pieces[:len(pieces)-1:len(pieces)-1], last, dot)
	}

	return pieces
}

// tokenize builds doc tokens from located pieces. A single space after a token is
// stored as its whitespace; any other whitespace run becomes a token of its own.
// Character offsets are counted incrementally.
func tokenize(text string, pieces []piece) tokenized {
	out := tokenized{
		tokens: make([]nlp.Token, 0, len(pieces)+1),
		starts: make([]int, 0, len(pieces)+1),
		labels: make([]string, 0, len(pieces)+1),
	}

	pos, runes := 0, 0
	advance := func(to int) {
		runes += utf8.RuneCountInString(text[pos:to])
		pos = to
	}

	add := func(end int, tag, label string) {
		out.tokens = append(out.tokens, nlp.Token{
			I:    len(out.tokens),
			Idx:  runes,
			Text: text[pos:end],
			Tag:  tag,
		})
		out.starts = append(out.starts, pos)
		out.labels = append(out.labels, label)
		advance(end)
	}

	space := func(end int) {
		if pos == end {
			return
		}
		if n := len(out.tokens); n > 0 && text[pos] == ' ' {
			out.tokens[n-1].Whitespace = " "
			advance(pos + 1)
		}
		if pos < end {
			add(end, "_SP", "")
		}
	}

	for _, p := range pieces {
		space(p.start)
		add(p.end, p.tag, p.label)
	}
	space(len(text))

	return out
}

// sentenceEnds returns the byte offset just past each prose sentence. Sentences
// that cannot be found near the expected position are merged into the next one.
func sentenceEnds(text string, sents []prose.Sentence) []int {
	ends := make([]int, 0, len(sents))

	from := 0
	for _, s := range sents {
		body := strings.TrimSpace(s.Text)
		if body == "" {
			continue
		}

		window := text[from:]
		if limit := len(body) + maxSentenceSearch; len(window) > limit {
			window = window[:limit]
		}

		i := strings.Index(window, body)
		if i < 0 {
			continue
		}

		from += i + len(body)
		ends = append(ends, from)
	}

	return ends
}

// sentences cuts tokens at the sentence ends. Whitespace tokens stay with the
// sentence they follow.
func sentences(t tokenized, ends []int) []nlp.Span {
	var sents []nlp.Span

	start, e := 0, 0
	for i := 1; i < len(t.tokens); i++ {
		if isSpaceToken(t.tokens[i].Text) {
			continue
		}

		crossed := false
		for e < len(ends) && t.starts[i] >= ends[e] {
			e++
			crossed = true
		}

		if crossed {
			sents = append(sents, nlp.Span{Start: start, End: i})
			start = i
		}
	}

	if start < len(t.tokens) {
		sents = append(sents, nlp.Span{Start: start, End: len(t.tokens)})
	}

	for _, s := range sents {
		t.tokens[s.Start].IsSentStart = true
		t.tokens[s.End-1].IsSentEnd = true
	}

	return sents
}
