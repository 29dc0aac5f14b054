package index

import (
	"github.com/wippyai/kharon/cxx"
)

// record is the type declared by a class, struct or enum cursor.
type record struct {
	decl cxx.Cursor
}

func (r record) Kind() cxx.TypeKind {
	if r.decl.Kind() == cxx.CursorEnumDecl {
		return cxx.TypeEnum
	}
	return cxx.TypeRecord
}

func (r record) Canonical() cxx.Type     { return r }
func (r record) Pointee() cxx.Type       { return nil }
func (r record) Declaration() cxx.Cursor { return r.decl }
func (r record) Spelling() string        { return cxx.CXXName(r.decl) }
func (r record) Result() cxx.Type        { return nil }

type pointerTo struct {
	pointee cxx.Type
}

func (p pointerTo) Kind() cxx.TypeKind      { return cxx.TypePointer }
func (p pointerTo) Canonical() cxx.Type     { return p }
func (p pointerTo) Pointee() cxx.Type       { return p.pointee }
func (p pointerTo) Declaration() cxx.Cursor { return nil }
func (p pointerTo) Spelling() string        { return p.pointee.Spelling() + " *" }
func (p pointerTo) Result() cxx.Type        { return nil }
