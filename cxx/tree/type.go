package tree

import (
	"github.com/wippyai/kharon/cxx"
)

// Type is an in-memory cxx.Type. A nil *Type reports TypeInvalid.
type Type struct {
	canonical *Type
	pointee   *Type
	result    *Type
	decl      *Decl
	spelling  string
	kind      cxx.TypeKind
}

var primitiveSpellings = map[cxx.TypeKind]string{
	cxx.TypeVoid:      "void",
	cxx.TypeBool:      "bool",
	cxx.TypeUInt:      "unsigned int",
	cxx.TypeULong:     "unsigned long",
	cxx.TypeULongLong: "unsigned long long",
	cxx.TypeInt:       "int",
	cxx.TypeLong:      "long",
	cxx.TypeLongLong:  "long long",
	cxx.TypeDouble:    "double",
}

// Primitive returns the builtin type of kind k.
func Primitive(k cxx.TypeKind) *Type {
	return &Type{kind: k, spelling: primitiveSpellings[k]}
}

// Unexposed returns a type the provider cannot classify.
func Unexposed(spelling string) *Type {
	return &Type{kind: cxx.TypeUnexposed, spelling: spelling}
}

// TypeOf returns the record or enum type declared by d.
func TypeOf(d *Decl) *Type {
	kind := cxx.TypeRecord
	if d.kind == cxx.CursorEnumDecl {
		kind = cxx.TypeEnum
	}
	spelling := d.QualifiedName()
	if d.template != "" {
		spelling = specSpelling(spelling, d.args)
	}
	return &Type{kind: kind, spelling: spelling, decl: d}
}

// PointerTo returns t*. When t is sugared the canonical type points to
// the canonical t, so FooT* canonicalizes to Foo*.
func PointerTo(t *Type) *Type {
	return indirect(cxx.TypePointer, " *", t)
}

// RefTo returns t&, canonicalized like PointerTo.
func RefTo(t *Type) *Type {
	return indirect(cxx.TypeLValueReference, " &", t)
}

func indirect(kind cxx.TypeKind, suffix string, t *Type) *Type {
	out := &Type{kind: kind, spelling: t.spelling + suffix, pointee: t}
	if c := t.canon(); c != t {
		out.canonical = &Type{kind: kind, spelling: c.spelling + suffix, pointee: c}
	}
	return out
}

// Typedef returns an alias spelled name for underlying.
func Typedef(name string, underlying *Type) *Type {
	return &Type{kind: cxx.TypeUnexposed, spelling: name, canonical: underlying.canon()}
}

// FuncOf returns a function type with the given result.
func FuncOf(result *Type) *Type {
	spelling := "void ()"
	if result != nil {
		spelling = result.spelling + " ()"
	}
	return &Type{kind: cxx.TypeUnexposed, spelling: spelling, result: result}
}

// Kind implements cxx.Type.
func (t *Type) Kind() cxx.TypeKind {
	if t == nil {
		return cxx.TypeInvalid
	}
	return t.kind
}

// Canonical implements cxx.Type.
func (t *Type) Canonical() cxx.Type {
	return t.canon()
}

func (t *Type) canon() *Type {
	if t == nil || t.canonical == nil {
		return t
	}
	return t.canonical
}

// Pointee implements cxx.Type.
func (t *Type) Pointee() cxx.Type {
	if t == nil || t.pointee == nil {
		return nil
	}
	return t.pointee
}

// Declaration implements cxx.Type.
func (t *Type) Declaration() cxx.Cursor {
	if t == nil {
		return (*Decl)(nil)
	}
	return t.decl
}

// Spelling implements cxx.Type.
func (t *Type) Spelling() string {
	if t == nil {
		return ""
	}
	return t.spelling
}

// Result implements cxx.Type.
func (t *Type) Result() cxx.Type {
	if t == nil || t.result == nil {
		return nil
	}
	return t.result
}

func (t *Type) String() string {
	return t.Spelling()
}

func (t *Type) innermostDecl() *Decl {
	for t != nil {
		c := t.canon()
		if c.decl != nil {
			return c.decl
		}
		t = c.pointee
	}
	return nil
}
