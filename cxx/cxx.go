// Package cxx defines the contracts kharon consumes from a C++ AST provider.
//
// A provider exposes declarations as Cursors and their types as Types, in the
// shape libclang uses. Nothing here parses C++; see package tree for an
// in-memory provider and package witdesc for a WIT-backed one.
package cxx

// TypeKind is the structural kind of a type.
type TypeKind int

const (
	TypeInvalid TypeKind = iota
	TypeUnexposed
	TypeVoid
	TypeBool
	TypeUInt
	TypeULong
	TypeULongLong
	TypeInt
	TypeLong
	TypeLongLong
	TypeDouble
	TypePointer
	TypeLValueReference
	TypeRecord
	TypeEnum
)

var typeKindNames = [...]string{
	TypeInvalid:         "Invalid",
	TypeUnexposed:       "Unexposed",
	TypeVoid:            "Void",
	TypeBool:            "Bool",
	TypeUInt:            "UInt",
	TypeULong:           "ULong",
	TypeULongLong:       "ULongLong",
	TypeInt:             "Int",
	TypeLong:            "Long",
	TypeLongLong:        "LongLong",
	TypeDouble:          "Double",
	TypePointer:         "Pointer",
	TypeLValueReference: "LValueReference",
	TypeRecord:          "Record",
	TypeEnum:            "Enum",
}

func (k TypeKind) String() string {
	if k >= 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "TypeKind(?)"
}

// IsPrimitive reports whether k is one of the builtin arithmetic kinds or void.
func (k TypeKind) IsPrimitive() bool {
	return k >= TypeVoid && k <= TypeDouble
}

// CursorKind is the kind of an AST node.
type CursorKind int

const (
	CursorInvalid CursorKind = iota
	CursorTranslationUnit
	CursorNamespace
	CursorClassDecl
	CursorStructDecl
	CursorEnumDecl
	CursorEnumConstant
	CursorParmDecl
	CursorCXXMethod
	CursorCXXBaseSpecifier
	CursorTypeRef
	CursorTemplateRef
	CursorNamespaceRef
	CursorUnexposedAttr
	CursorExpr
)

var cursorKindNames = [...]string{
	CursorInvalid:          "Invalid",
	CursorTranslationUnit:  "TranslationUnit",
	CursorNamespace:        "Namespace",
	CursorClassDecl:        "ClassDecl",
	CursorStructDecl:       "StructDecl",
	CursorEnumDecl:         "EnumDecl",
	CursorEnumConstant:     "EnumConstantDecl",
	CursorParmDecl:         "ParmDecl",
	CursorCXXMethod:        "CXXMethod",
	CursorCXXBaseSpecifier: "CXXBaseSpecifier",
	CursorTypeRef:          "TypeRef",
	CursorTemplateRef:      "TemplateRef",
	CursorNamespaceRef:     "NamespaceRef",
	CursorUnexposedAttr:    "UnexposedAttr",
	CursorExpr:             "Expr",
}

func (k CursorKind) String() string {
	if k >= 0 && int(k) < len(cursorKindNames) {
		return cursorKindNames[k]
	}
	return "CursorKind(?)"
}

// VisitResult controls child traversal.
type VisitResult int

const (
	VisitBreak VisitResult = iota
	VisitContinue
)

// Type describes a C++ type.
type Type interface {
	Kind() TypeKind
	// Canonical strips typedefs and sugar.
	Canonical() Type
	// Pointee is the referenced type of a pointer or reference; nil otherwise.
	Pointee() Type
	// Declaration is the declaring cursor of a record or enum type.
	Declaration() Cursor
	Spelling() string
	// Result is the return type of a function type; nil otherwise.
	Result() Type
}

// Cursor is a node of the AST.
type Cursor interface {
	Kind() CursorKind
	// USR is the unified symbol resolution id, unique per entity.
	USR() string
	Spelling() string
	// Definition returns the defining declaration, or the null cursor.
	Definition() Cursor
	// Canonical returns the canonical declaration of the entity.
	Canonical() Cursor
	Parent() Cursor
	IsNull() bool
	Type() Type
	// Visit calls fn for every immediate child until fn returns VisitBreak.
	Visit(fn func(child Cursor) VisitResult)
}
