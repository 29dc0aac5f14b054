// Package index maps declaration paths to the strategies that marshal them.
//
// Paths are the "::" segments of a declaration (llvm, GlobalValue,
// LinkageTypes), stored in a segment trie so lookups can fall back to the
// nearest enclosing declaration that has a strategy.
package index

import (
	stderrors "errors"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/kharon/cxx"
	"github.com/wippyai/kharon/errors"
	"github.com/wippyai/kharon/marshal"
	"github.com/wippyai/kharon/trie"
)

// Skip records a declaration left out of the index.
type Skip struct {
	Reason string
	Path   []string
}

// Index is a read-only view built by Build.
type Index struct {
	trie    *trie.Trie[string, marshal.Strategy]
	skipped []Skip
	dir     marshal.Direction
}

// Declarations collects class, struct and enum definitions below root in
// depth-first order. Forward declarations and template specializations are
// left out.
func Declarations(root cxx.Cursor) []cxx.Cursor {
	var out []cxx.Cursor
	var visit func(c cxx.Cursor)
	visit = func(c cxx.Cursor) {
		c.Visit(func(child cxx.Cursor) cxx.VisitResult {
			switch child.Kind() {
			case cxx.CursorNamespace:
				visit(child)
			case cxx.CursorClassDecl, cxx.CursorStructDecl:
				if isDefinition(child) && !isSpecialization(child) {
					out = append(out, child)
					visit(child)
				}
			case cxx.CursorEnumDecl:
				if isDefinition(child) {
					out = append(out, child)
				}
			}
			return cxx.VisitContinue
		})
	}
	if !cxx.IsNull(root) {
		visit(root)
	}
	return out
}

func isDefinition(c cxx.Cursor) bool {
	return c.Definition() == c
}

// isSpecialization reports whether c opens with a reference to its template.
func isSpecialization(c cxx.Cursor) bool {
	spec := false
	c.Visit(func(child cxx.Cursor) cxx.VisitResult {
		spec = child.Kind() == cxx.CursorTemplateRef
		return cxx.VisitBreak
	})
	return spec
}

// Build resolves every declaration in dir and indexes the hits by path.
// Classes resolve as pointers, enums by value. Declarations without a
// strategy, or whose path is already taken, are recorded in Skipped.
func Build(s *marshal.Session, decls []cxx.Cursor, dir marshal.Direction) (*Index, error) {
	log := marshal.Logger().Named("index").With(zap.String("session", s.ID()))
	idx := &Index{trie: trie.New[string, marshal.Strategy](), dir: dir}

	for _, d := range decls {
		path := cxx.PathTo(d)

		var t cxx.Type
		switch d.Kind() {
		case cxx.CursorClassDecl, cxx.CursorStructDecl:
			t = pointerTo{record{d}}
		case cxx.CursorEnumDecl:
			t = record{d}
		default:
			idx.skip(path, "not a class or enum")
			continue
		}

		strategy, ok := s.Resolve(t, dir, d)
		if !ok {
			idx.skip(path, "no marshaler")
			continue
		}

		err := idx.trie.Insert(path, strategy)
		switch {
		case err == nil:
		case stderrors.Is(err, errors.Kinded(errors.KindDuplicateKey)):
			log.Warn("duplicate declaration path", zap.Strings("path", path))
			idx.skip(path, "duplicate path")
		default:
			return nil, err
		}
	}

	log.Debug("index built",
		zap.Int("indexed", idx.trie.Len()),
		zap.Int("skipped", len(idx.skipped)))
	return idx, nil
}

func (idx *Index) skip(path []string, reason string) {
	idx.skipped = append(idx.skipped, Skip{Path: path, Reason: reason})
}

// Direction returns the direction the index was resolved in.
func (idx *Index) Direction() marshal.Direction {
	return idx.dir
}

// Lookup returns the strategy stored at exactly path.
func (idx *Index) Lookup(path []string) (marshal.Strategy, bool) {
	return idx.trie.Lookup(path)
}

// LookupName is Lookup for a "::"-qualified name.
func (idx *Index) LookupName(qualified string) (marshal.Strategy, bool) {
	return idx.Lookup(strings.Split(qualified, "::"))
}

// Nearest returns the strategy of the deepest indexed declaration enclosing
// path, together with that declaration's path.
func (idx *Index) Nearest(path []string) ([]string, marshal.Strategy, bool) {
	return idx.trie.LongestPrefix(path)
}

// Walk calls fn for every indexed declaration in storage order.
func (idx *Index) Walk(fn func(path []string, s marshal.Strategy) bool) {
	idx.trie.Walk(fn)
}

// Len returns the number of indexed declarations.
func (idx *Index) Len() int {
	return idx.trie.Len()
}

// Skipped returns the declarations left out, in input order.
func (idx *Index) Skipped() []Skip {
	return idx.skipped
}

// Render returns the indented trie rendering.
func (idx *Index) Render() string {
	return idx.trie.Render()
}
