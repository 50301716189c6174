package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadLiteral indicates text that is not a typed value literal.
var ErrBadLiteral = errors.New("malformed value literal")

// Parse reads a typed value literal produced by Variant.String:
// "int{42}", "float{1.5}", "bool{true}", "string{hi}" or "null".
// String content is taken verbatim up to the final closing brace.
func Parse(text string) (Variant, error) {
	if text == "null" {
		return Null(), nil
	}

	open := strings.IndexByte(text, '{')
	if open < 0 || !strings.HasSuffix(text, "}") {
		return Variant{}, fmt.Errorf("%w: %q", ErrBadLiteral, text)
	}
	typeName := text[:open]
	body := text[open+1 : len(text)-1]

	switch typeName {
	case "int":
		i, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return Variant{}, fmt.Errorf("%w: %q: %v", ErrBadLiteral, text, err)
		}
		return Int(i), nil
	case "float":
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return Variant{}, fmt.Errorf("%w: %q: %v", ErrBadLiteral, text, err)
		}
		return Float(f), nil
	case "bool":
		switch body {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return Variant{}, fmt.Errorf("%w: %q", ErrBadLiteral, text)
	case "string":
		return String(body), nil
	default:
		return Variant{}, fmt.Errorf("%w: unknown type %q", ErrBadLiteral, typeName)
	}
}
