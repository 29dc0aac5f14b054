package marshal

import (
	"sort"

	"github.com/wippyai/kharon/cxx"
	"github.com/wippyai/kharon/errors"
)

// Registry is the append-only set of classes exposed through the binding
// layer, keyed by unique id (the declaration USR). Not safe for concurrent use.
type Registry struct {
	classes map[string]*ClassStrategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*ClassStrategy)}
}

// Register binds id to a class strategy built from desc.
// Registering an id twice fails with errors.KindDuplicateKey.
func (r *Registry) Register(id string, desc ClassDescriptor) (*ClassStrategy, error) {
	if id == "" {
		return nil, errors.InvalidInput(errors.PhaseRegister, "empty class id")
	}
	if desc.Name == "" && desc.CXXName == "" {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Value(id).
			Detail("class %q has no name", id).
			Build()
	}
	if _, ok := r.classes[id]; ok {
		return nil, errors.DuplicateKey(errors.PhaseRegister, nil, id)
	}

	c, err := newClass(id, desc)
	if err != nil {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Value(id).
			Cause(err).
			Detail("class %q", id).
			Build()
	}
	r.classes[id] = c
	return c, nil
}

// RegisterDecl binds a class declaration under its USR.
func (r *Registry) RegisterDecl(decl cxx.Cursor) (*ClassStrategy, error) {
	if cxx.IsNull(decl) {
		return nil, errors.InvalidInput(errors.PhaseRegister, "null declaration")
	}
	return r.Register(decl.USR(), ClassDescriptor{
		Decl:    decl,
		Name:    decl.Spelling(),
		CXXName: cxx.CXXName(decl),
	})
}

// Lookup returns the class bound to id.
func (r *Registry) Lookup(id string) (*ClassStrategy, bool) {
	if id == "" {
		return nil, false
	}
	c, ok := r.classes[id]
	return c, ok
}

// Len returns the number of bound classes.
func (r *Registry) Len() int {
	return len(r.classes)
}

// IDs returns the bound ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.classes))
	for id := range r.classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
