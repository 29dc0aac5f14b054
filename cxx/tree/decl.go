// Package tree is an in-memory implementation of the cxx contracts.
//
// Declarations are built programmatically or loaded from YAML fixtures. USRs
// follow clang's shape (c:@N@llvm@S@Value) so ids stay stable across runs.
package tree

import (
	"strings"

	"github.com/wippyai/kharon/cxx"
)

// Decl is an AST node. A nil *Decl is the null cursor.
type Decl struct {
	parent   *Decl
	def      *Decl // definition of a forward declaration
	canon    *Decl // first declaration of the entity
	ref      *Decl // referenced entity of TypeRef, TemplateRef, base specifiers
	typ      *Type
	name     string
	usr      string
	children []*Decl
	kind     cxx.CursorKind
	forward  bool
	template string // template name of a specialization
	args     []*Type
}

// NewTU creates a translation unit root.
func NewTU(name string) *Decl {
	return &Decl{kind: cxx.CursorTranslationUnit, name: name, usr: "c:"}
}

// Kind implements cxx.Cursor.
func (d *Decl) Kind() cxx.CursorKind {
	if d == nil {
		return cxx.CursorInvalid
	}
	return d.kind
}

// USR implements cxx.Cursor. References have no USR of their own.
func (d *Decl) USR() string {
	if d == nil {
		return ""
	}
	return d.usr
}

// Spelling implements cxx.Cursor.
func (d *Decl) Spelling() string {
	if d == nil {
		return ""
	}
	return d.name
}

// Definition implements cxx.Cursor.
func (d *Decl) Definition() cxx.Cursor {
	switch {
	case d == nil:
		return (*Decl)(nil)
	case d.ref != nil:
		return d.ref.Definition()
	case d.forward:
		return d.def
	}
	return d
}

// Canonical implements cxx.Cursor.
func (d *Decl) Canonical() cxx.Cursor {
	if d == nil || d.canon == nil {
		return d
	}
	return d.canon
}

// Parent implements cxx.Cursor.
func (d *Decl) Parent() cxx.Cursor {
	if d == nil {
		return (*Decl)(nil)
	}
	return d.parent
}

// IsNull implements cxx.Cursor.
func (d *Decl) IsNull() bool {
	return d == nil
}

// Type implements cxx.Cursor.
func (d *Decl) Type() cxx.Type {
	if d == nil || d.typ == nil {
		return nil
	}
	return d.typ
}

// Visit implements cxx.Cursor.
func (d *Decl) Visit(fn func(cxx.Cursor) cxx.VisitResult) {
	if d == nil {
		return
	}
	for _, c := range d.children {
		if fn(c) == cxx.VisitBreak {
			return
		}
	}
}

// Referenced returns the entity a reference cursor points at.
func (d *Decl) Referenced() *Decl {
	if d == nil {
		return nil
	}
	return d.ref
}

// QualifiedName returns the "::"-joined name of d.
func (d *Decl) QualifiedName() string {
	return cxx.CXXName(d)
}

func (d *Decl) String() string {
	if d == nil {
		return "<null>"
	}
	return d.kind.String() + " " + d.name
}

func (d *Decl) add(child *Decl) *Decl {
	child.parent = d
	d.children = append(d.children, child)
	return child
}

func (d *Decl) scoped(kind cxx.CursorKind, tag, name string) *Decl {
	return d.add(&Decl{kind: kind, name: name, usr: d.usr + "@" + tag + "@" + name})
}

func (d *Decl) child(name string) *Decl {
	for _, c := range d.children {
		switch c.kind {
		case cxx.CursorNamespace, cxx.CursorClassDecl, cxx.CursorStructDecl:
			if c.name == name && !c.forward && c.template == "" {
				return c
			}
		}
	}
	return nil
}

// Namespace returns the child namespace name, creating it on first use.
func (d *Decl) Namespace(name string) *Decl {
	for _, c := range d.children {
		if c.kind == cxx.CursorNamespace && c.name == name {
			return c
		}
	}
	return d.scoped(cxx.CursorNamespace, "N", name)
}

// Class declares a class deriving from bases, in order.
func (d *Decl) Class(name string, bases ...*Decl) *Decl {
	c := d.scoped(cxx.CursorClassDecl, "S", name)
	c.Inherit(bases...)
	return c
}

// Struct declares a struct deriving from bases, in order.
func (d *Decl) Struct(name string, bases ...*Decl) *Decl {
	c := d.scoped(cxx.CursorStructDecl, "S", name)
	c.Inherit(bases...)
	return c
}

// Inherit appends base specifiers for bases.
func (d *Decl) Inherit(bases ...*Decl) {
	for _, b := range bases {
		d.add(&Decl{kind: cxx.CursorCXXBaseSpecifier, name: "class " + b.QualifiedName(), ref: b})
	}
}

// Enum declares an enum with the given constants.
func (d *Decl) Enum(name string, constants ...string) *Decl {
	e := d.scoped(cxx.CursorEnumDecl, "E", name)
	for _, k := range constants {
		e.add(&Decl{kind: cxx.CursorEnumConstant, name: k, usr: e.usr + "@" + k})
	}
	return e
}

// Forward adds a forward declaration of def to d and makes it canonical.
func (d *Decl) Forward(def *Decl) *Decl {
	f := d.add(&Decl{kind: def.kind, name: def.name, usr: def.usr, def: def, forward: true})
	if def.canon == nil {
		def.canon = f
	}
	f.canon = def.canon
	return f
}

// Specialize returns the record for template<args...>, creating it on first use.
// Its children reference the template and every argument, as clang reports them.
func (d *Decl) Specialize(template string, args ...*Type) *Decl {
	spelling := specSpelling(template, args)
	for _, c := range d.children {
		if c.template != "" && specSpelling(c.template, c.args) == spelling {
			return c
		}
	}

	argUSRs := make([]string, len(args))
	for i, a := range args {
		argUSRs[i] = typeUSR(a)
	}
	s := d.add(&Decl{
		kind:     cxx.CursorClassDecl,
		name:     template,
		usr:      d.usr + "@S@" + template + ">#" + strings.Join(argUSRs, "#"),
		template: template,
		args:     args,
	})
	s.children = append(s.children, templateRefs(template, args)...)
	for _, c := range s.children {
		c.parent = s
	}
	return s
}

// Param declares a parameter of type t. Parameters of specialized types
// reference the template and its arguments like clang does.
func (d *Decl) Param(name string, t *Type) *Decl {
	p := d.add(&Decl{kind: cxx.CursorParmDecl, name: name, typ: t})
	if s := specializationOf(t); s != nil {
		for _, c := range templateRefs(s.template, s.args) {
			p.add(c)
		}
	}
	return p
}

// Method declares a method returning result with the given parameters.
// Params with Default set get a default initializer child.
func (d *Decl) Method(name string, result *Type, params ...ParamSpec) *Decl {
	m := d.add(&Decl{
		kind: cxx.CursorCXXMethod,
		name: name,
		usr:  d.usr + "@F@" + name + "#",
		typ:  FuncOf(result),
	})
	for _, ps := range params {
		p := m.Param(ps.Name, ps.Type)
		if ps.Default {
			p.add(&Decl{kind: cxx.CursorExpr, name: "default"})
		}
	}
	return m
}

// ParamSpec describes a method parameter.
type ParamSpec struct {
	Type    *Type
	Name    string
	Default bool
}

// Append adds raw children, for shapes the builders do not cover.
func (d *Decl) Append(children ...*Decl) *Decl {
	for _, c := range children {
		d.add(c)
	}
	return d
}

// Ref creates a detached reference cursor of the given kind.
func Ref(kind cxx.CursorKind, target *Decl) *Decl {
	name := ""
	if target != nil {
		name = target.name
	}
	return &Decl{kind: kind, name: name, ref: target}
}

// Raw creates a detached cursor with no entity behind it.
func Raw(kind cxx.CursorKind, name string) *Decl {
	return &Decl{kind: kind, name: name}
}

func templateRefs(template string, args []*Type) []*Decl {
	refs := []*Decl{{kind: cxx.CursorTemplateRef, name: template}}
	for _, a := range args {
		target := a.innermostDecl()
		if target == nil {
			continue
		}
		if ns := target.parent; ns != nil && ns.kind == cxx.CursorNamespace {
			refs = append(refs, &Decl{kind: cxx.CursorNamespaceRef, name: ns.name, ref: ns})
		}
		refs = append(refs, &Decl{kind: cxx.CursorTypeRef, name: "class " + target.QualifiedName(), ref: target})
	}
	return refs
}

func specializationOf(t *Type) *Decl {
	for t != nil {
		if t.decl != nil && t.decl.template != "" {
			return t.decl
		}
		t = t.pointee
	}
	return nil
}

func specSpelling(template string, args []*Type) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.spelling
	}
	return template + "<" + strings.Join(parts, ", ") + ">"
}

func typeUSR(t *Type) string {
	if d := t.innermostDecl(); d != nil {
		return d.usr
	}
	return t.spelling
}
