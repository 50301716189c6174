package serial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
)

// ErrBadToken indicates text that does not follow the serial token forms.
var ErrBadToken = errors.New("malformed expression text")

// TokenError reports where in the input loading failed.
type TokenError struct {
	// Pos is the byte offset of the offending token.
	Pos int
	// Want describes what was expected at Pos.
	Want string
	// Err is ErrBadToken or a nested cause.
	Err error
}

// Error implements the error interface.
func (e *TokenError) Error() string {
	return fmt.Sprintf("offset %d: expected %s: %v", e.Pos, e.Want, e.Err)
}

// Unwrap returns the cause for errors.Is support.
func (e *TokenError) Unwrap() error {
	return e.Err
}

const signChars = "+-*/%=!<>&|^~"

// scanner is a byte cursor over the input text.
type scanner struct {
	text string
	pos  int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.text)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.text[s.pos]
}

func (s *scanner) skipSpace() {
	for !s.eof() && (s.text[s.pos] == ' ' || s.text[s.pos] == '\t' || s.text[s.pos] == '\n') {
		s.pos++
	}
}

func (s *scanner) expect(c byte) error {
	if s.eof() || s.text[s.pos] != c {
		return &TokenError{Pos: s.pos, Want: fmt.Sprintf("%q", string(c)), Err: ErrBadToken}
	}
	s.pos++
	return nil
}

// ident reads a run of letters, digits and underscores.
func (s *scanner) ident() string {
	start := s.pos
	for !s.eof() {
		c := s.text[s.pos]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			s.pos++
			continue
		}
		break
	}
	return s.text[start:s.pos]
}

// sign reads a run of operator sign characters.
func (s *scanner) sign() string {
	start := s.pos
	for !s.eof() && strings.IndexByte(signChars, s.text[s.pos]) >= 0 {
		s.pos++
	}
	return s.text[start:s.pos]
}

// literal reads a typed value literal: "null" or "name{...}" with nested
// braces balanced.
func (s *scanner) literal() (string, error) {
	start := s.pos
	name := s.ident()
	if name == "" {
		return "", &TokenError{Pos: s.pos, Want: "value literal", Err: ErrBadToken}
	}
	if name == "null" {
		return "null", nil
	}
	if err := s.expect('{'); err != nil {
		return "", err
	}
	depth := 1
	for !s.eof() {
		switch s.text[s.pos] {
		case '{':
			depth++
		case '}':
			depth--
		}
		s.pos++
		if depth == 0 {
			return s.text[start:s.pos], nil
		}
	}
	return "", &TokenError{Pos: start, Want: "closing brace", Err: ErrBadToken}
}

// loader replays serialized text through a builder.
type loader[V exprgraph.Value[V]] struct {
	s      scanner
	b      *exprgraph.Builder[V]
	codec  Codec[V]
	vars   map[string]exprgraph.OpID
	consts map[string]exprgraph.OpID
}

// Load parses serialized text into a validated expression. The text is
// replayed through a Builder, so every construction check (operand order,
// arity, unknown functions) applies to loaded input as well.
func Load[V exprgraph.Value[V]](text string, codec Codec[V], registry *exprgraph.Registry[V]) (*exprgraph.Expression[V], error) {
	l := &loader[V]{
		s:      scanner{text: text},
		b:      exprgraph.NewBuilder[V](registry),
		codec:  codec,
		vars:   make(map[string]exprgraph.OpID),
		consts: make(map[string]exprgraph.OpID),
	}

	if _, err := l.expr(); err != nil {
		return nil, err
	}
	l.s.skipSpace()
	if !l.s.eof() {
		return nil, &TokenError{Pos: l.s.pos, Want: "end of input", Err: ErrBadToken}
	}
	return l.b.Finalize()
}

func (l *loader[V]) expr() (exprgraph.OpID, error) {
	l.s.skipSpace()
	switch {
	case l.s.peek() == '_':
		return l.constant()
	case l.s.peek() == '$':
		return l.variable()
	case l.s.peek() == '(':
		return l.operation()
	case l.s.peek() == '@':
		return l.call()
	case strings.HasPrefix(l.s.text[l.s.pos:], "if("):
		return l.branch()
	default:
		return 0, &TokenError{Pos: l.s.pos, Want: "expression", Err: ErrBadToken}
	}
}

func (l *loader[V]) constant() (exprgraph.OpID, error) {
	l.s.pos++ // '_'
	lit, err := l.s.literal()
	if err != nil {
		return 0, err
	}
	if id, ok := l.consts[lit]; ok {
		return id, nil
	}
	v, err := l.codec.Decode(lit)
	if err != nil {
		return 0, &TokenError{Pos: l.s.pos, Want: "value literal", Err: err}
	}
	id := l.b.Constant(v)
	l.consts[lit] = id
	return id, nil
}

func (l *loader[V]) variable() (exprgraph.OpID, error) {
	l.s.pos++ // '$'
	if err := l.s.expect('{'); err != nil {
		return 0, err
	}
	name := l.s.ident()
	if name == "" {
		return 0, &TokenError{Pos: l.s.pos, Want: "variable name", Err: ErrBadToken}
	}
	if err := l.s.expect('}'); err != nil {
		return 0, err
	}
	if id, ok := l.vars[name]; ok {
		return id, nil
	}
	id, err := l.b.Var(name)
	if err != nil {
		return 0, err
	}
	l.vars[name] = id
	return id, nil
}

// operation parses a parenthesized unary or binary operation. An operand
// never starts with a sign character, so a sign directly after the
// opening parenthesis means the operation is unary.
func (l *loader[V]) operation() (exprgraph.OpID, error) {
	l.s.pos++ // '('
	l.s.skipSpace()

	if strings.IndexByte(signChars, l.s.peek()) >= 0 {
		signPos := l.s.pos
		sign := l.s.sign()
		op, ok := exprgraph.OpcodeForSign(sign, true)
		if !ok {
			return 0, &TokenError{Pos: signPos, Want: "unary operator", Err: ErrBadToken}
		}
		operand, err := l.expr()
		if err != nil {
			return 0, err
		}
		l.s.skipSpace()
		if err := l.s.expect(')'); err != nil {
			return 0, err
		}
		return l.b.Op(op, operand)
	}

	lhs, err := l.expr()
	if err != nil {
		return 0, err
	}
	l.s.skipSpace()
	signPos := l.s.pos
	sign := l.s.sign()
	op, ok := exprgraph.OpcodeForSign(sign, false)
	if !ok {
		return 0, &TokenError{Pos: signPos, Want: "binary operator", Err: ErrBadToken}
	}
	rhs, err := l.expr()
	if err != nil {
		return 0, err
	}
	l.s.skipSpace()
	if err := l.s.expect(')'); err != nil {
		return 0, err
	}
	return l.b.Op(op, lhs, rhs)
}

func (l *loader[V]) branch() (exprgraph.OpID, error) {
	l.s.pos += len("if(")
	cond, err := l.expr()
	if err != nil {
		return 0, err
	}
	l.s.skipSpace()
	if err := l.s.expect(','); err != nil {
		return 0, err
	}
	then, err := l.expr()
	if err != nil {
		return 0, err
	}
	l.s.skipSpace()
	if err := l.s.expect(','); err != nil {
		return 0, err
	}
	els, err := l.expr()
	if err != nil {
		return 0, err
	}
	l.s.skipSpace()
	if err := l.s.expect(')'); err != nil {
		return 0, err
	}
	return l.b.Branch(cond, then, els)
}

func (l *loader[V]) call() (exprgraph.OpID, error) {
	l.s.pos++ // '@'
	name := l.s.ident()
	if name == "" {
		return 0, &TokenError{Pos: l.s.pos, Want: "function name", Err: ErrBadToken}
	}
	if err := l.s.expect('('); err != nil {
		return 0, err
	}

	var args []exprgraph.OpID
	l.s.skipSpace()
	if l.s.peek() != ')' {
		for {
			arg, err := l.expr()
			if err != nil {
				return 0, err
			}
			args = append(args, arg)
			l.s.skipSpace()
			if l.s.peek() != ',' {
				break
			}
			l.s.pos++
		}
	}
	if err := l.s.expect(')'); err != nil {
		return 0, err
	}
	return l.b.Fun(name, args...)
}
