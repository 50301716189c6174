// Package parser builds expressions from a human-friendly text grammar.
//
// The grammar accepts:
//
//	int{42}, float{1.5}, bool{true}, string{hi}, null   constants
//	${name}                                             variables
//	(-x), (!x), (~x)                                    unary operations
//	(lhs + rhs)                                         binary operations
//	if(cond, then, else)                                branches
//	@name(args...)                                      extension calls
//
// Whitespace is free between tokens. The parser drives the Builder API,
// so structural deduplication and every construction check apply to
// parsed expressions too.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
)

// ErrSyntax indicates text that does not follow the expression grammar.
var ErrSyntax = errors.New("syntax error")

// Error reports where parsing failed and what was expected there.
type Error struct {
	// Pos is the byte offset of the offending token.
	Pos int
	// Token is the offending input snippet, possibly truncated.
	Token string
	// Want describes what was expected at Pos.
	Want string
	// Err is ErrSyntax or a nested cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("offset %d at %q: expected %s: %v", e.Pos, e.Token, e.Want, e.Err)
}

// Unwrap returns the cause for errors.Is support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Decoder parses a typed value literal such as "int{42}" or "null".
// serial.VariantCodec satisfies it for the default operand type.
type Decoder[V exprgraph.Value[V]] interface {
	Decode(text string) (V, error)
}

const signChars = "+-*/%=!<>&|^~"

// parser is the recursive descent state.
type parser[V exprgraph.Value[V]] struct {
	text string
	pos  int

	b      *exprgraph.Builder[V]
	decode Decoder[V]
	vars   map[string]exprgraph.OpID
	consts map[string]exprgraph.OpID
}

// Parse builds a validated expression from text. Repeated mentions of one
// variable resolve to one slot; equal constant literals share one pool
// entry.
func Parse[V exprgraph.Value[V]](text string, decode Decoder[V], registry *exprgraph.Registry[V]) (*exprgraph.Expression[V], error) {
	p := &parser[V]{
		text:   text,
		b:      exprgraph.NewBuilder[V](registry),
		decode: decode,
		vars:   make(map[string]exprgraph.OpID),
		consts: make(map[string]exprgraph.OpID),
	}

	if _, err := p.expression(); err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.fail("end of input")
	}
	return p.b.Finalize()
}

func (p *parser[V]) eof() bool {
	return p.pos >= len(p.text)
}

func (p *parser[V]) peek() byte {
	if p.eof() {
		return 0
	}
	return p.text[p.pos]
}

func (p *parser[V]) skipSpace() {
	for !p.eof() {
		switch p.text[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser[V]) fail(want string) error {
	token := p.text[p.pos:]
	if len(token) > 12 {
		token = token[:12]
	}
	return &Error{Pos: p.pos, Token: token, Want: want, Err: ErrSyntax}
}

func (p *parser[V]) expect(c byte) error {
	if p.peek() != c {
		return p.fail(fmt.Sprintf("%q", string(c)))
	}
	p.pos++
	return nil
}

// ident reads a run of letters, digits and underscores.
func (p *parser[V]) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.text[p.pos]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	return p.text[start:p.pos]
}

// sign reads a run of operator sign characters.
func (p *parser[V]) sign() string {
	start := p.pos
	for !p.eof() && strings.IndexByte(signChars, p.text[p.pos]) >= 0 {
		p.pos++
	}
	return p.text[start:p.pos]
}

func (p *parser[V]) expression() (exprgraph.OpID, error) {
	p.skipSpace()
	switch {
	case p.peek() == '$':
		return p.variable()
	case p.peek() == '(':
		return p.arithmetic()
	case p.peek() == '@':
		return p.call()
	case p.peek() == '_' ||
		p.peek() >= 'a' && p.peek() <= 'z' || p.peek() >= 'A' && p.peek() <= 'Z':
		return p.identStart()
	default:
		return 0, p.fail("expression")
	}
}

// identStart handles everything beginning with an identifier: the null
// keyword, the if branch, or a typed value literal.
func (p *parser[V]) identStart() (exprgraph.OpID, error) {
	start := p.pos
	name := p.ident()

	if name == "null" {
		return p.constant(start, "null")
	}

	if name == "if" {
		p.skipSpace()
		if p.peek() == '(' {
			return p.branch()
		}
		p.pos = start
		return 0, p.fail("branch arguments")
	}

	if err := p.expect('{'); err != nil {
		return 0, err
	}
	depth := 1
	for !p.eof() {
		switch p.text[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
		}
		p.pos++
		if depth == 0 {
			return p.constant(start, p.text[start:p.pos])
		}
	}
	return 0, p.fail("closing brace")
}

func (p *parser[V]) constant(start int, literal string) (exprgraph.OpID, error) {
	if id, ok := p.consts[literal]; ok {
		return id, nil
	}
	v, err := p.decode.Decode(literal)
	if err != nil {
		return 0, &Error{Pos: start, Token: literal, Want: "value literal", Err: err}
	}
	id := p.b.Constant(v)
	p.consts[literal] = id
	return id, nil
}

func (p *parser[V]) variable() (exprgraph.OpID, error) {
	p.pos++ // '$'
	if err := p.expect('{'); err != nil {
		return 0, err
	}
	name := p.ident()
	if name == "" {
		return 0, p.fail("variable name")
	}
	if err := p.expect('}'); err != nil {
		return 0, err
	}
	if id, ok := p.vars[name]; ok {
		return id, nil
	}
	id, err := p.b.Var(name)
	if err != nil {
		return 0, err
	}
	p.vars[name] = id
	return id, nil
}

// arithmetic parses a parenthesized unary or binary operation. Operands
// never start with a sign character, so a leading sign means unary.
func (p *parser[V]) arithmetic() (exprgraph.OpID, error) {
	p.pos++ // '('
	p.skipSpace()

	if strings.IndexByte(signChars, p.peek()) >= 0 {
		signPos := p.pos
		sign := p.sign()
		op, ok := exprgraph.OpcodeForSign(sign, true)
		if !ok {
			return 0, &Error{Pos: signPos, Token: sign, Want: "unary operator", Err: ErrSyntax}
		}
		operand, err := p.expression()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if err := p.expect(')'); err != nil {
			return 0, err
		}
		return p.b.Op(op, operand)
	}

	lhs, err := p.expression()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	signPos := p.pos
	sign := p.sign()
	op, ok := exprgraph.OpcodeForSign(sign, false)
	if !ok {
		return 0, &Error{Pos: signPos, Token: sign, Want: "binary operator", Err: ErrSyntax}
	}
	rhs, err := p.expression()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if err := p.expect(')'); err != nil {
		return 0, err
	}
	return p.b.Op(op, lhs, rhs)
}

func (p *parser[V]) branch() (exprgraph.OpID, error) {
	p.pos++ // '('
	cond, err := p.expression()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if err := p.expect(','); err != nil {
		return 0, err
	}
	then, err := p.expression()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if err := p.expect(','); err != nil {
		return 0, err
	}
	els, err := p.expression()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if err := p.expect(')'); err != nil {
		return 0, err
	}
	return p.b.Branch(cond, then, els)
}

func (p *parser[V]) call() (exprgraph.OpID, error) {
	p.pos++ // '@'
	name := p.ident()
	if name == "" {
		return 0, p.fail("function name")
	}
	p.skipSpace()
	if err := p.expect('('); err != nil {
		return 0, err
	}

	var args []exprgraph.OpID
	p.skipSpace()
	if p.peek() != ')' {
		for {
			arg, err := p.expression()
			if err != nil {
				return 0, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.peek() != ',' {
				break
			}
			p.pos++
		}
	}
	if err := p.expect(')'); err != nil {
		return 0, err
	}
	return p.b.Fun(name, args...)
}
