package tree

import (
	"strings"
	"unicode"

	"github.com/wippyai/kharon/cxx"
	"github.com/wippyai/kharon/errors"
)

// Scope resolves names while parsing type expressions.
type Scope struct {
	tu    *Decl
	names map[string]*Decl // qualified name -> decl
	short map[string][]*Decl
}

// NewScope creates a scope over the translation unit tu.
func NewScope(tu *Decl) *Scope {
	return &Scope{
		tu:    tu,
		names: make(map[string]*Decl),
		short: make(map[string][]*Decl),
	}
}

// TU returns the translation unit.
func (s *Scope) TU() *Decl {
	return s.tu
}

// Declare makes d resolvable by its qualified and unqualified names.
func (s *Scope) Declare(d *Decl) {
	s.names[d.QualifiedName()] = d
	s.short[d.name] = append(s.short[d.name], d)
}

// Lookup finds a declaration by qualified name, or by unqualified name when unambiguous.
func (s *Scope) Lookup(name string) (*Decl, bool) {
	if d, ok := s.names[name]; ok {
		return d, true
	}
	if c := s.short[name]; len(c) == 1 {
		return c[0], true
	}
	return nil, false
}

// Container returns the scope for a "::"-qualified name together with the
// unqualified name. Qualifiers naming a known class resolve to that class;
// the rest become namespaces.
func (s *Scope) Container(qualified string) (*Decl, string) {
	parts := strings.Split(qualified, "::")
	parent := s.tu
	for _, q := range parts[:len(parts)-1] {
		if c := parent.child(q); c != nil {
			parent = c
			continue
		}
		parent = parent.Namespace(q)
	}
	return parent, parts[len(parts)-1]
}

var primitiveNames = map[string]cxx.TypeKind{
	"void":               cxx.TypeVoid,
	"bool":               cxx.TypeBool,
	"unsigned":           cxx.TypeUInt,
	"unsigned int":       cxx.TypeUInt,
	"unsigned long":      cxx.TypeULong,
	"unsigned long long": cxx.TypeULongLong,
	"int":                cxx.TypeInt,
	"long":               cxx.TypeLong,
	"long long":          cxx.TypeLongLong,
	"double":             cxx.TypeDouble,
}

var unexposedNames = map[string]bool{
	"float":          true,
	"char":           true,
	"short":          true,
	"signed char":    true,
	"unsigned char":  true,
	"unsigned short": true,
	"long double":    true,
	"wchar_t":        true,
}

// ParseType parses expressions such as "llvm::Value *", "iplist<Instruction> &",
// "ArrayRef<llvm::Type *>" or "unsigned long". Template names that were never
// declared become specializations in the template's namespace.
func (s *Scope) ParseType(expr string) (*Type, error) {
	p := &typeParser{scope: s, src: expr}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.fail("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	scope *Scope
	src   string
	pos   int
}

func (p *typeParser) fail(format string, args ...any) error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
		Type(p.src).
		Detail("offset %d: "+format, append([]any{p.pos}, args...)...).
		Build()
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parseType() (*Type, error) {
	t, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return t, nil
		}
		switch p.src[p.pos] {
		case '*':
			t = PointerTo(t)
		case '&':
			t = RefTo(t)
		default:
			return t, nil
		}
		p.pos++
	}
}

func (p *typeParser) parseBase() (*Type, error) {
	p.skipSpace()
	p.consumeWord("const")

	words := p.words()
	if words == "" {
		return nil, p.fail("expected type name")
	}
	if k, ok := primitiveNames[words]; ok {
		return Primitive(k), nil
	}
	if unexposedNames[words] {
		return Unexposed(words), nil
	}
	if strings.Contains(words, " ") {
		return nil, p.fail("unknown type %q", words)
	}

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		p.pos++
		var args []*Type
		for {
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return nil, p.fail("unterminated template argument list")
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == '>' {
				p.pos++
				break
			}
			return nil, p.fail("unexpected %q in template arguments", p.src[p.pos])
		}
		parent, name := p.scope.Container(words)
		return TypeOf(parent.Specialize(name, args...)), nil
	}

	d, ok := p.scope.Lookup(words)
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "type", words)
	}
	return TypeOf(d), nil
}

// words reads identifiers separated by single spaces, stopping before
// punctuation, so "unsigned long long" reads as one name.
func (p *typeParser) words() string {
	var parts []string
	for {
		p.skipSpace()
		w := p.ident()
		if w == "" {
			break
		}
		parts = append(parts, w)
		if !isPrimitivePrefix(strings.Join(parts, " ")) {
			break
		}
	}
	return strings.Join(parts, " ")
}

func isPrimitivePrefix(s string) bool {
	for name := range primitiveNames {
		if name != s && strings.HasPrefix(name, s+" ") {
			return true
		}
	}
	for name := range unexposedNames {
		if name != s && strings.HasPrefix(name, s+" ") {
			return true
		}
	}
	return false
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
			p.pos++
			continue
		}
		if c == ':' && p.pos+1 < len(p.src) && p.src[p.pos+1] == ':' {
			p.pos += 2
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) consumeWord(w string) {
	if strings.HasPrefix(p.src[p.pos:], w+" ") {
		p.pos += len(w) + 1
	}
}
