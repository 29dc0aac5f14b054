package cxx

import (
	"strings"

	"github.com/wippyai/kharon/errors"
)

// Children returns the immediate children of c.
func Children(c Cursor) []Cursor {
	var out []Cursor
	c.Visit(func(child Cursor) VisitResult {
		out = append(out, child)
		return VisitContinue
	})
	return out
}

// IsNull reports whether c is absent or the null cursor.
func IsNull(c Cursor) bool {
	return c == nil || c.IsNull()
}

// PathTo returns the spellings from the outermost scope down to c.
// The translation unit, an unnamed root scope, and roots listed in skip are dropped.
func PathTo(c Cursor, skip ...string) []string {
	var (
		path []string
		root Cursor
	)
	for p := c.Parent(); !IsNull(p); p = p.Parent() {
		path = append(path, p.Spelling())
		root = p
	}
	if n := len(path); n > 0 {
		last := path[n-1]
		if last == "" || root.Kind() == CursorTranslationUnit || contains(skip, last) {
			path = path[:n-1]
		}
	}

	out := make([]string, 0, len(path)+1)
	for i := len(path) - 1; i >= 0; i-- {
		out = append(out, path[i])
	}
	return append(out, c.Spelling())
}

// CXXName returns the qualified C++ name of c, e.g. "llvm::Value".
// Enum scopes are skipped so enumerators read as unscoped names.
func CXXName(c Cursor) string {
	parts := []string{c.Spelling()}
	for p := c.Parent(); !IsNull(p) && !IsNull(p.Parent()); p = p.Parent() {
		if p.Kind() == CursorEnumDecl {
			continue
		}
		parts = append(parts, p.Spelling())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "::")
}

// GuessFirstTemplateArgument guesses the first type argument of a parameter
// or variable whose type is a template specialization.
//
// The declaration's children must open with a TemplateRef; NamespaceRefs that
// qualify the argument are skipped and the first TypeRef or TemplateRef wins.
// Any other shape yields a KindAmbiguousArgument error.
func GuessFirstTemplateArgument(decl Cursor) (Cursor, error) {
	if IsNull(decl) {
		return nil, errors.AmbiguousTemplateArgument("", "no declaration")
	}

	c := Children(decl.Canonical())
	if len(c) < 2 || c[0].Kind() != CursorTemplateRef {
		return nil, errors.AmbiguousTemplateArgument(decl.Spelling(), "declaration does not name a template")
	}

	for _, child := range c[1:] {
		switch child.Kind() {
		case CursorNamespaceRef:
			continue
		case CursorTypeRef, CursorTemplateRef:
			return child, nil
		default:
			return nil, errors.AmbiguousTemplateArgument(decl.Spelling(),
				"unexpected "+child.Kind().String()+" before first type argument")
		}
	}

	return nil, errors.AmbiguousTemplateArgument(decl.Spelling(), "no type argument")
}

// GuessRequiredArgs counts the leading parameters of method that have no
// default initializer. The AST does not expose defaults directly, so any
// parameter child other than a type or namespace reference counts as one.
// Methods returning void also count type references that precede parameters.
func GuessRequiredArgs(method Cursor) int {
	noResult := false
	if t := method.Type(); t != nil {
		if r := t.Result(); r != nil && r.Kind() == TypeVoid {
			noResult = true
		}
	}

	count := 0
	method.Visit(func(c Cursor) VisitResult {
		switch c.Kind() {
		case CursorParmDecl:
			if hasDefault(c) {
				return VisitBreak
			}
			count++
			return VisitContinue
		case CursorTypeRef, CursorTemplateRef:
			if noResult {
				count++
			}
			return VisitContinue
		case CursorUnexposedAttr:
			return VisitContinue
		}
		return VisitBreak
	})
	return count
}

func hasDefault(param Cursor) bool {
	found := false
	param.Visit(func(c Cursor) VisitResult {
		switch c.Kind() {
		case CursorTypeRef, CursorTemplateRef, CursorNamespaceRef, CursorParmDecl:
			return VisitContinue
		}
		found = true
		return VisitBreak
	})
	return found
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
