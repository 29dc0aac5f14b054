package marshal

import (
	"fmt"
	"strings"

	"github.com/wippyai/kharon/errors"
)

// Fields is the dictionary a template expands against.
// Values are strings, fmt.Stringers, nested Fields or Strategies.
type Fields map[string]any

// With returns a copy of f with name set to value.
func (f Fields) With(name string, value any) Fields {
	out := make(Fields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[name] = value
	return out
}

// Template is a compiled snippet template.
//
// Grammar:
//
//	$name        field lookup, name is [a-z]+ ("$id_TO_V8" reads field "id")
//	${a.b.c}     dotted lookup through nested Fields and Strategies
//	$$           literal dollar
//
// Any other "$" is literal. There is no expression evaluation.
type Template struct {
	src   string
	parts []part
}

type part struct {
	lit  string
	path []string // nil for literal parts
}

// ParseTemplate compiles src.
func ParseTemplate(src string) (*Template, error) {
	t := &Template{src: src}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{lit: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(src); {
		c := src[i]
		if c != '$' || i+1 >= len(src) {
			lit.WriteByte(c)
			i++
			continue
		}

		next := src[i+1]
		switch {
		case next == '$':
			lit.WriteByte('$')
			i += 2

		case next == '{':
			end := strings.IndexByte(src[i+2:], '}')
			if end < 0 {
				return nil, errors.InvalidTemplate(src, i, "unterminated placeholder")
			}
			path, ok := parsePath(src[i+2 : i+2+end])
			if !ok {
				return nil, errors.InvalidTemplate(src, i, "malformed placeholder path")
			}
			flush()
			t.parts = append(t.parts, part{path: path})
			i += end + 3

		case isLower(next):
			j := i + 1
			for j < len(src) && isLower(src[j]) {
				j++
			}
			flush()
			t.parts = append(t.parts, part{path: []string{src[i+1 : j]}})
			i = j

		default:
			lit.WriteByte('$')
			i++
		}
	}
	flush()

	return t, nil
}

func mustParse(src string) *Template {
	t, err := ParseTemplate(src)
	if err != nil {
		panic(err)
	}
	return t
}

func parsePath(s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	path := strings.Split(s, ".")
	for _, p := range path {
		if !isIdent(p) {
			return nil, false
		}
	}
	return path, true
}

func isLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Source returns the template text.
func (t *Template) Source() string {
	return t.src
}

// Placeholders returns the referenced dotted paths in order of appearance.
func (t *Template) Placeholders() []string {
	var out []string
	for _, p := range t.parts {
		if p.path != nil {
			out = append(out, strings.Join(p.path, "."))
		}
	}
	return out
}

// Expand substitutes every placeholder from fields.
// A missing field fails with KindUnknownPlaceholder.
func (t *Template) Expand(fields Fields) (string, error) {
	var b strings.Builder
	for _, p := range t.parts {
		if p.path == nil {
			b.WriteString(p.lit)
			continue
		}
		v, err := lookup(fields, p.path, t.src)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

func lookup(fields Fields, path []string, src string) (string, error) {
	var cur any = fields
	for i, name := range path {
		var ok bool
		switch v := cur.(type) {
		case Fields:
			cur, ok = v[name]
		case map[string]string:
			cur, ok = v[name]
		case Strategy:
			cur, ok = v.Field(name)
		}
		if !ok {
			return "", errors.UnknownPlaceholder(strings.Join(path[:i+1], "."), src)
		}
	}

	switch v := cur.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case Fields, map[string]string:
		return "", errors.UnknownPlaceholder(strings.Join(path, "."), src)
	default:
		return fmt.Sprint(v), nil
	}
}
