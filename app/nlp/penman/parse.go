package penman

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrSyntax = errors.New("penman syntax error")

type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("penman: %s at offset %d", e.Msg, e.Offset)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokSlash
	tokRole
	tokSymbol
	tokString
	tokAlign
	tokEOF
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// isSpace matches ASCII whitespace only. The lexer walks bytes, and UTF-8
// continuation bytes such as 0x85 and 0xA0 must stay inside symbols.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDelimiter(c byte) bool {
	return c == '(' || c == ')' || c == '/' || c == '~' || c == '"' || isSpace(c)
}

// lex splits the graph body into tokens. Comment lines are returned separately.
func lex(s string) ([]token, []string, error) {
	var (
		tokens   []token
		comments []string
	)

	i := 0
	for i < len(s) {
		c := s[i]

		switch {
		case isSpace(c):
			i++

		case c == '#':
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				end = len(s) - i
			}
			comments = append(comments, s[i:i+end])
			i += end

		case c == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++

		case c == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++

		case c == '/':
			tokens = append(tokens, token{tokSlash, "/", i})
			i++

		case c == '"':
			j := i + 1
			for j < len(s) && s[j] != '"' {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(s) {
				return nil, nil, &SyntaxError{Offset: i, Msg: "unterminated string"}
			}
			tokens = append(tokens, token{tokString, s[i : j+1], i})
			i = j + 1

		case c == '~':
			j := i + 1
			for j < len(s) && !isDelimiter(s[j]) && s[j] != ':' {
				j++
			}
			tokens = append(tokens, token{tokAlign, s[i:j], i})
			i = j

		case c == ':':
			j := i + 1
			for j < len(s) && !isDelimiter(s[j]) && s[j] != ':' {
				j++
			}
			tokens = append(tokens, token{tokRole, s[i:j], i})
			i = j

		default:
			j := i
			for j < len(s) && !isDelimiter(s[j]) {
				j++
			}
			tokens = append(tokens, token{tokSymbol, s[i:j], i})
			i = j
		}
	}

	tokens = append(tokens, token{tokEOF, "", len(s)})

	return tokens, comments, nil
}

// ParseAlignment reads a marker such as ~e.1,2 or ~3.
func ParseAlignment(s string) (*Alignment, error) {
	body := strings.TrimPrefix(s, "~")
	if body == s {
		return nil, &SyntaxError{Msg: "alignment must start with ~"}
	}

	split := strings.IndexFunc(body, unicode.IsDigit)
	if split < 0 {
		return nil, &SyntaxError{Msg: fmt.Sprintf("alignment %q has no indices", s)}
	}

	a := &Alignment{Prefix: body[:split]}
	for _, part := range strings.Split(body[split:], ",") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &SyntaxError{Msg: fmt.Sprintf("bad alignment index %q", part)}
		}
		a.Indices = append(a.Indices, n)
	}

	return a, nil
}

// parseMetadata reads "# ::key value ::key2 value2" comment lines.
func parseMetadata(comments []string) []Meta {
	var result []Meta

	for _, line := range comments {
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if !strings.HasPrefix(line, "::") {
			continue
		}

		for _, field := range strings.Split(line, "::")[1:] {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}

			key, value, _ := strings.Cut(field, " ")
			result = append(result, Meta{Key: key, Value: strings.TrimSpace(value)})
		}
	}

	return result
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, &SyntaxError{Offset: t.offset, Msg: fmt.Sprintf("expected %s, got %q", what, t.text)}
	}
	return t, nil
}

func (p *parser) optionalAlign() (*Alignment, error) {
	if p.peek().kind != tokAlign {
		return nil, nil
	}

	t := p.next()
	a, err := ParseAlignment(t.text)
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			se.Offset = t.offset
		}
		return nil, err
	}

	return a, nil
}

func (p *parser) node() (*Node, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}

	v, err := p.expect(tokSymbol, "variable")
	if err != nil {
		return nil, err
	}

	n := &Node{Var: v.text}

	if p.peek().kind == tokSlash {
		p.next()

		concept := p.next()
		if concept.kind != tokSymbol && concept.kind != tokString {
			return nil, &SyntaxError{Offset: concept.offset, Msg: "expected concept"}
		}
		n.Concept = concept.text

		if n.Align, err = p.optionalAlign(); err != nil {
			return nil, err
		}
	}

	for p.peek().kind == tokRole {
		edge, err := p.edge()
		if err != nil {
			return nil, err
		}
		n.Edges = append(n.Edges, edge)
	}

	if _, err = p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}

	return n, nil
}

func (p *parser) edge() (*Edge, error) {
	role := p.next()
	e := &Edge{Role: role.text}

	var err error
	if e.RoleAlign, err = p.optionalAlign(); err != nil {
		return nil, err
	}

	switch t := p.peek(); t.kind {
	case tokLParen:
		if e.Target, err = p.node(); err != nil {
			return nil, err
		}
	case tokSymbol, tokString:
		p.next()
		e.Value = t.text
		if e.ValueAlign, err = p.optionalAlign(); err != nil {
			return nil, err
		}
	default:
		return nil, &SyntaxError{Offset: t.offset, Msg: fmt.Sprintf("expected edge target after %s", role.text)}
	}

	return e, nil
}

// Parse reads one PENMAN graph with its metadata comments.
func Parse(s string) (*Tree, error) {
	tokens, comments, err := lex(s)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}

	root, err := p.node()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Offset: t.offset, Msg: fmt.Sprintf("unexpected %q after graph", t.text)}
	}

	return &Tree{
		Metadata: parseMetadata(comments),
		Root:     root,
	}, nil
}
