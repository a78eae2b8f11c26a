package jsonpos

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxDepth bounds container nesting so hostile input cannot exhaust the stack.
const MaxDepth = 512

// ParseError reports malformed input together with the position at which
// parsing stopped.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jsonpos: %s at line %d, column %d", e.Message, e.Line, e.Column)
}

// Parse reads a single JSON value from text. Every object records the line it
// started on and every property records the line its value started on.
func Parse(text string) (*Tree, error) {
	p := &parser{
		src:  text,
		line: 1,
		col:  1,
		tree: newTree(),
	}

	root, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if !p.eof() {
		return nil, p.errorf("unexpected character %s after JSON value", p.describe())
	}
	p.tree.root = root
	return p.tree, nil
}

type parser struct {
	src   string
	pos   int
	line  int
	col   int
	depth int
	tree  *Tree
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	return p.src[p.pos]
}

func (p *parser) advance() rune {
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return r
}

func (p *parser) skipWhitespace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.advance()
		default:
			return
		}
	}
}

func (p *parser) describe() string {
	if p.eof() {
		return "end of input"
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return strconv.QuoteRune(r)
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    p.line,
		Column:  p.col,
	}
}

func (p *parser) parseValue() (NodeID, error) {
	p.skipWhitespace()
	if p.eof() {
		return NoNode, p.errorf("unexpected end of input, expected a value")
	}

	switch c := p.peek(); {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		line, col := p.line, p.col
		str, err := p.parseString()
		if err != nil {
			return NoNode, err
		}
		return p.tree.add(Node{Kind: String, Str: str, Line: line, Column: col}), nil
	case c == '-' || isDigit(c):
		return p.parseNumber()
	case c == 't':
		return p.parseKeyword("true", Node{Kind: Bool, Bool: true})
	case c == 'f':
		return p.parseKeyword("false", Node{Kind: Bool})
	case c == 'n':
		return p.parseKeyword("null", Node{Kind: Null})
	default:
		return NoNode, p.errorf("unexpected character %s, expected a value", p.describe())
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return p.errorf("maximum nesting depth of %d exceeded", MaxDepth)
	}
	return nil
}

func (p *parser) parseObject() (NodeID, error) {
	if err := p.enter(); err != nil {
		return NoNode, err
	}
	defer func() { p.depth-- }()

	id := p.tree.add(Node{Kind: Object, Line: p.line, Column: p.col})
	p.advance() // {

	p.skipWhitespace()
	if !p.eof() && p.peek() == '}' {
		p.advance()
		return id, nil
	}

	for {
		p.skipWhitespace()
		if p.eof() {
			return NoNode, p.errorf("unexpected end of input, expected property name")
		}
		if p.peek() != '"' {
			return NoNode, p.errorf("expected property name, found %s", p.describe())
		}
		key, err := p.parseString()
		if err != nil {
			return NoNode, err
		}

		p.skipWhitespace()
		if p.eof() {
			return NoNode, p.errorf("unexpected end of input, expected ':' after property %q", key)
		}
		if p.peek() != ':' {
			return NoNode, p.errorf("expected ':' after property %q, found %s", key, p.describe())
		}
		p.advance()

		p.skipWhitespace()
		line, col := p.line, p.col
		value, err := p.parseValue()
		if err != nil {
			return NoNode, err
		}
		p.tree.setProperty(id, Property{Key: key, Value: value, Line: line, Column: col})

		p.skipWhitespace()
		if p.eof() {
			return NoNode, p.errorf("unexpected end of input, expected ',' or '}'")
		}
		switch p.peek() {
		case ',':
			p.advance()
		case '}':
			p.advance()
			return id, nil
		default:
			return NoNode, p.errorf("expected ',' or '}', found %s", p.describe())
		}
	}
}

func (p *parser) parseArray() (NodeID, error) {
	if err := p.enter(); err != nil {
		return NoNode, err
	}
	defer func() { p.depth-- }()

	id := p.tree.add(Node{Kind: Array, Line: p.line, Column: p.col})
	p.advance() // [

	p.skipWhitespace()
	if !p.eof() && p.peek() == ']' {
		p.advance()
		return id, nil
	}

	for {
		elem, err := p.parseValue()
		if err != nil {
			return NoNode, err
		}
		p.tree.nodes[id].Elems = append(p.tree.nodes[id].Elems, elem)

		p.skipWhitespace()
		if p.eof() {
			return NoNode, p.errorf("unexpected end of input, expected ',' or ']'")
		}
		switch p.peek() {
		case ',':
			p.advance()
		case ']':
			p.advance()
			return id, nil
		default:
			return NoNode, p.errorf("expected ',' or ']', found %s", p.describe())
		}
	}
}

// parseString consumes a quoted string. \uXXXX escapes are validated and kept
// verbatim rather than decoded.
func (p *parser) parseString() (string, error) {
	p.advance() // opening quote
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.peek()
		switch {
		case c == '"':
			p.advance()
			return b.String(), nil
		case c == '\\':
			p.advance()
			if p.eof() {
				return "", p.errorf("unterminated string")
			}
			switch e := p.peek(); e {
			case '"', '\\', '/':
				b.WriteByte(e)
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'u':
				p.advance()
				if len(p.src)-p.pos < 4 || !isHex(p.src[p.pos:p.pos+4]) {
					return "", p.errorf("invalid unicode escape")
				}
				b.WriteString(`\u`)
				b.WriteString(p.src[p.pos : p.pos+4])
				for i := 0; i < 4; i++ {
					p.advance()
				}
				continue
			default:
				return "", p.errorf("invalid escape character %s", p.describe())
			}
			p.advance()
		case c < 0x20:
			return "", p.errorf("unescaped control character in string")
		default:
			b.WriteRune(p.advance())
		}
	}
}

func (p *parser) parseNumber() (NodeID, error) {
	start, line, col := p.pos, p.line, p.col

	if p.peek() == '-' {
		p.advance()
	}
	if p.eof() || !isDigit(p.peek()) {
		return NoNode, p.errorf("invalid number, expected digit")
	}
	if p.peek() == '0' {
		p.advance()
	} else {
		p.digits()
	}
	if !p.eof() && p.peek() == '.' {
		p.advance()
		if p.eof() || !isDigit(p.peek()) {
			return NoNode, p.errorf("invalid number, expected digit after decimal point")
		}
		p.digits()
	}
	if !p.eof() && (p.peek() == 'e' || p.peek() == 'E') {
		p.advance()
		if !p.eof() && (p.peek() == '+' || p.peek() == '-') {
			p.advance()
		}
		if p.eof() || !isDigit(p.peek()) {
			return NoNode, p.errorf("invalid number, expected digit in exponent")
		}
		p.digits()
	}

	literal := p.src[start:p.pos]
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return NoNode, &ParseError{Message: fmt.Sprintf("number %s out of range", literal), Line: line, Column: col}
		}
		return NoNode, &ParseError{Message: fmt.Sprintf("invalid number %s", literal), Line: line, Column: col}
	}
	return p.tree.add(Node{Kind: Number, Number: value, Literal: literal, Line: line, Column: col}), nil
}

func (p *parser) digits() {
	for !p.eof() && isDigit(p.peek()) {
		p.advance()
	}
}

func (p *parser) parseKeyword(word string, node Node) (NodeID, error) {
	if !strings.HasPrefix(p.src[p.pos:], word) {
		return NoNode, p.errorf("invalid literal, expected %q", word)
	}
	node.Line, node.Column = p.line, p.col
	for range word {
		p.advance()
	}
	return p.tree.add(node), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
