package marshal

import (
	"strings"

	"github.com/wippyai/kharon/cxx"
)

var (
	classDisplay    = mustParse("class $cxxname")
	classToNative   = mustParse("$name.Wrap($val)")
	classFromNative = mustParse("$name.Unwrap($val)")
	classTest       = mustParse("$name.Is($val)")

	primitiveDisplay    = mustParse("$typename")
	primitiveToNative   = mustParse("$id_TO_V8($val)")
	primitiveFromNative = mustParse("$id_FROM_V8($val)")
	primitiveTest       = mustParse("IS_$id($val)")

	enumDisplay    = mustParse("enum $cxxname")
	enumToNative   = mustParse("ENUM_TO_V8($cxxname, $val)")
	enumFromNative = mustParse("ENUM_FROM_V8($cxxname, $val)")
	enumTest       = mustParse("IS_ENUM($val)")

	listDisplay  = mustParse("llvm::iplist<${clazz.cxxname}>")
	listToNative = mustParse("IPLIST_TO_V8(${clazz.name}, ${clazz.cxxname}, ${element.display}, $val)")
	listTest     = mustParse("IS_IPLIST($val)")

	arrayDisplay    = mustParse("ArrayRef<${element.display}>")
	arrayToNative   = mustParse("ArrayRefToV8<${element.display}>($val, ${clazz.name})")
	arrayFromNative = mustParse("ArrayRefFromV8<${element.display}>($val, ${clazz.name})")
	arrayTest       = mustParse("IS_ARRAYREF($val)")
)

// ClassDescriptor describes a class exposed through the binding layer.
// Empty template fields fall back to the class defaults.
type ClassDescriptor struct {
	Decl       cxx.Cursor
	Name       string // short name used in emitted expressions
	CXXName    string // qualified C++ name
	Display    string
	ToNative   string
	FromNative string
	Test       string
}

// ClassStrategy marshals pointers to a bound class.
type ClassStrategy struct {
	decl    cxx.Cursor
	name    string
	cxxname string
	base
}

func newClass(id string, desc ClassDescriptor) (*ClassStrategy, error) {
	name, cxxname := desc.Name, desc.CXXName
	if name == "" {
		name = cxxname
		if i := strings.LastIndex(cxxname, "::"); i >= 0 {
			name = cxxname[i+2:]
		}
	}
	if cxxname == "" {
		cxxname = name
	}

	c := &ClassStrategy{decl: desc.Decl, name: name, cxxname: cxxname}
	c.base = base{
		id:      id,
		variant: VariantClass,
		fields:  Fields{"name": name, "cxxname": cxxname},
	}

	pick := func(src string, def *Template) (*Template, error) {
		if src == "" {
			return def, nil
		}
		return ParseTemplate(src)
	}

	display, err := pick(desc.Display, classDisplay)
	if err != nil {
		return nil, err
	}
	if c.display, err = c.expandField(display); err != nil {
		return nil, err
	}

	for _, o := range []struct {
		op  Op
		src string
		def *Template
	}{
		{OpToNative, desc.ToNative, classToNative},
		{OpFromNative, desc.FromNative, classFromNative},
		{OpTest, desc.Test, classTest},
	} {
		t, err := pick(o.src, o.def)
		if err != nil {
			return nil, err
		}
		c.expand(o.op, t)
	}

	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

// Decl returns the declaration the class was registered from, if any.
func (c *ClassStrategy) Decl() cxx.Cursor { return c.decl }

// Name returns the short class name.
func (c *ClassStrategy) Name() string { return c.name }

// CXXName returns the qualified class name.
func (c *ClassStrategy) CXXName() string { return c.cxxname }

// ClassRefStrategy marshals references to a bound class by delegating to
// the class strategy through address-of and dereference.
type ClassRefStrategy struct {
	actual cxx.Cursor
	class  *ClassStrategy
	base
}

func newClassRef(actual cxx.Cursor, class *ClassStrategy) *ClassRefStrategy {
	r := &ClassRefStrategy{actual: actual, class: class}
	r.base = base{
		id:      actual.USR(),
		display: class.Display(),
		variant: VariantClassRef,
		fields:  Fields{"clazz": class},
	}
	if class.Supports(OpToNative) {
		r.emit[OpToNative] = func(val string) (string, error) {
			return class.ToNative("&(" + val + ")")
		}
	}
	if class.Supports(OpFromNative) {
		r.emit[OpFromNative] = func(val string) (string, error) {
			s, err := class.FromNative(val)
			if err != nil {
				return "", err
			}
			return "*" + s, nil
		}
	}
	r.emit[OpTest] = class.Test
	r.mustCheck()
	return r
}

// Class returns the strategy of the class the reference resolves to. For
// toNative lookups this may be a base of the referenced class.
func (r *ClassRefStrategy) Class() *ClassStrategy { return r.class }

// Actual returns the referenced declaration.
func (r *ClassRefStrategy) Actual() cxx.Cursor { return r.actual }

// PrimitiveStrategy marshals builtin arithmetic types and void.
type PrimitiveStrategy struct {
	base
}

// primitiveID turns a spelling into an identifier usable in macro names,
// e.g. "unsigned int" into "UNSIGNED_INT".
func primitiveID(typename string) string {
	return strings.ToUpper(strings.ReplaceAll(typename, " ", "_"))
}

func newPrimitive(typename string) *PrimitiveStrategy {
	p := &PrimitiveStrategy{}
	p.base = base{
		id:      primitiveID(typename),
		variant: VariantPrimitive,
		fields:  Fields{"typename": typename},
	}
	p.display = p.mustExpandField(primitiveDisplay)
	p.expand(OpToNative, primitiveToNative)
	p.expand(OpFromNative, primitiveFromNative)
	p.expand(OpTest, primitiveTest)
	p.mustCheck()
	return p
}

// EnumStrategy marshals enums by qualified name.
type EnumStrategy struct {
	decl cxx.Cursor
	base
}

func newEnum(decl cxx.Cursor) *EnumStrategy {
	cxxname := cxx.CXXName(decl)
	e := &EnumStrategy{decl: decl}
	e.base = base{
		id:      cxxname,
		variant: VariantEnum,
		fields:  Fields{"name": decl.Spelling(), "cxxname": cxxname},
	}
	e.display = e.mustExpandField(enumDisplay)
	e.expand(OpToNative, enumToNative)
	e.expand(OpFromNative, enumFromNative)
	e.expand(OpTest, enumTest)
	e.mustCheck()
	return e
}

// Decl returns the enum declaration.
func (e *EnumStrategy) Decl() cxx.Cursor { return e.decl }

// ContainerKind distinguishes container strategies.
type ContainerKind int

const (
	// ListRef is a reference to an intrusive list; converts to native only.
	ListRef ContainerKind = iota
	// ArrayRef is a non-owning array view; converts both ways.
	ArrayRef
)

func (k ContainerKind) String() string {
	if k == ListRef {
		return "list-ref"
	}
	return "array-ref"
}

// ContainerStrategy marshals a container of bound class elements.
type ContainerStrategy struct {
	element cxx.Cursor
	class   *ClassStrategy
	base
	kind ContainerKind
}

// containerID keys containers by the element's definition.
func containerID(element cxx.Cursor) string {
	return element.Definition().USR()
}

func newContainer(kind ContainerKind, element cxx.Cursor, class *ClassStrategy) *ContainerStrategy {
	def := element.Definition()
	c := &ContainerStrategy{element: element, class: class, kind: kind}
	c.base = base{
		id:      containerID(element),
		variant: VariantContainer,
		fields: Fields{
			"clazz": class,
			"element": Fields{
				"display": element.Spelling(),
				"name":    def.Spelling(),
				"cxxname": cxx.CXXName(def),
				"usr":     def.USR(),
			},
		},
	}

	switch kind {
	case ListRef:
		c.display = c.mustExpandField(listDisplay)
		c.expand(OpToNative, listToNative)
		c.expand(OpTest, listTest)
	case ArrayRef:
		c.display = c.mustExpandField(arrayDisplay)
		c.expand(OpToNative, arrayToNative)
		c.expand(OpFromNative, arrayFromNative)
		c.expand(OpTest, arrayTest)
	}
	c.mustCheck()
	return c
}

// Kind returns the container kind.
func (c *ContainerStrategy) Kind() ContainerKind { return c.kind }

// Element returns the element type reference.
func (c *ContainerStrategy) Element() cxx.Cursor { return c.element }

// Class returns the element class strategy.
func (c *ContainerStrategy) Class() *ClassStrategy { return c.class }

// SyntheticStrategy produces a native value from nothing, e.g. the global
// LLVM context. It never converts host values.
type SyntheticStrategy struct {
	base
}

func newSynthetic(id, expr string) *SyntheticStrategy {
	s := &SyntheticStrategy{}
	s.base = base{id: id, display: expr, variant: VariantSynthetic}
	s.emit[OpSynthesize] = func(string) (string, error) { return expr, nil }
	s.mustCheck()
	return s
}

// StringKind distinguishes string strategies.
type StringKind int

const (
	StringView     StringKind = iota // StringRef
	StdString                        // std::string
	FlexibleString                   // Twine, accepted from the host only
)

var stringTemplates = map[StringKind]struct {
	id         string
	toNative   *Template
	fromNative *Template
	test       *Template
}{
	StringView: {
		id:         "StringRef",
		toNative:   mustParse("STRINGREF_TO_V8($val)"),
		fromNative: mustParse("STRINGREF_FROM_V8($val)"),
		test:       mustParse("IS_STRINGREF($val)"),
	},
	StdString: {
		id:         "STDString",
		toNative:   mustParse("STDSTRING_TO_V8($val)"),
		fromNative: mustParse("STDSTRING_FROM_V8($val)"),
		test:       mustParse("IS_STDSTRING($val)"),
	},
	FlexibleString: {
		id:         "Twine",
		fromNative: mustParse("TWINE_FROM_V8($val)"),
		test:       mustParse("IS_TWINE($val)"),
	},
}

// StringStrategy marshals the string-like types.
type StringStrategy struct {
	base
	kind StringKind
}

func stringID(kind StringKind) string {
	return stringTemplates[kind].id
}

func newString(kind StringKind) *StringStrategy {
	t := stringTemplates[kind]
	s := &StringStrategy{kind: kind}
	s.base = base{id: t.id, display: "string", variant: VariantString}
	s.expand(OpToNative, t.toNative)
	s.expand(OpFromNative, t.fromNative)
	s.expand(OpTest, t.test)
	s.mustCheck()
	return s
}

// Kind returns the string kind.
func (s *StringStrategy) Kind() StringKind { return s.kind }

func (b *base) expandField(t *Template) (string, error) {
	return t.Expand(b.fields.With("id", b.id))
}

func (b *base) mustExpandField(t *Template) string {
	s, err := b.expandField(t)
	if err != nil {
		panic(err)
	}
	return s
}
