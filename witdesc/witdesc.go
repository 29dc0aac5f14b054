// Package witdesc describes WebAssembly component-model (WIT) types through
// the cxx contracts, so component interfaces can be classified by the same
// marshaler resolver as C++ headers.
//
// Mapping:
//
//	resource R      class R
//	own<R>          R *
//	borrow<R>       R &
//	enum E          enum E
//	record S        struct S
//	string          the string view record
//	list<T>         array view specialization over T
//	bool, s32, ...  the matching builtin
//
// Everything else (option, result, tuple, variant, flags, f32, char) is
// described as an unexposed type.
package witdesc

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/kharon/cxx"
	"github.com/wippyai/kharon/cxx/tree"
	"github.com/wippyai/kharon/errors"
	"github.com/wippyai/kharon/marshal"
)

// Func is a component function signature as carried by canon lift and
// lower definitions.
type Func struct {
	Name       string
	Params     []wit.Type
	ParamNames []string
	Results    []wit.Type
}

// Describer turns WIT types into tree declarations under one namespace.
// Each named type definition maps to exactly one declaration.
type Describer struct {
	tu        *tree.Decl
	ns        *tree.Decl
	decls     map[*wit.TypeDef]*tree.Decl
	str       *tree.Decl
	resources []*tree.Decl
	spellings marshal.Spellings
}

// New creates a describer placing declarations in namespace.
func New(namespace string, spellings marshal.Spellings) *Describer {
	if spellings == (marshal.Spellings{}) {
		spellings = marshal.DefaultSpellings()
	}
	tu := tree.NewTU(namespace + ".wit")
	return &Describer{
		tu:        tu,
		ns:        tu.Namespace(namespace),
		decls:     make(map[*wit.TypeDef]*tree.Decl),
		spellings: spellings,
	}
}

// TU returns the translation unit holding every described declaration.
func (d *Describer) TU() *tree.Decl {
	return d.tu
}

// Resources returns the classes created for resources, in description order.
func (d *Describer) Resources() []*tree.Decl {
	return d.resources
}

// Type describes t.
func (d *Describer) Type(t wit.Type) (*tree.Type, error) {
	switch v := t.(type) {
	case wit.Bool:
		return tree.Primitive(cxx.TypeBool), nil
	case wit.U8, wit.U16, wit.U32:
		return tree.Primitive(cxx.TypeUInt), nil
	case wit.S8, wit.S16, wit.S32:
		return tree.Primitive(cxx.TypeInt), nil
	case wit.U64:
		return tree.Primitive(cxx.TypeULongLong), nil
	case wit.S64:
		return tree.Primitive(cxx.TypeLongLong), nil
	case wit.F64:
		return tree.Primitive(cxx.TypeDouble), nil
	case wit.F32:
		return tree.Unexposed("float"), nil
	case wit.Char:
		return tree.Unexposed("char"), nil
	case wit.String:
		return tree.TypeOf(d.stringView()), nil
	case *wit.TypeDef:
		return d.typeDef(v)
	case nil:
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil WIT type")
	}
	return tree.Unexposed(fmt.Sprintf("%T", t)), nil
}

func (d *Describer) typeDef(td *wit.TypeDef) (*tree.Type, error) {
	switch k := td.Kind.(type) {
	case *wit.Resource:
		c, err := d.resource(td)
		if err != nil {
			return nil, err
		}
		return tree.TypeOf(c), nil

	case *wit.Own:
		c, err := d.resource(k.Type)
		if err != nil {
			return nil, err
		}
		return tree.PointerTo(tree.TypeOf(c)), nil

	case *wit.Borrow:
		c, err := d.resource(k.Type)
		if err != nil {
			return nil, err
		}
		return tree.RefTo(tree.TypeOf(c)), nil

	case *wit.Enum:
		e, err := d.declare(td, func(name string) *tree.Decl {
			cases := make([]string, len(k.Cases))
			for i, c := range k.Cases {
				cases[i] = c.Name
			}
			return d.ns.Enum(name, cases...)
		})
		if err != nil {
			return nil, err
		}
		return tree.TypeOf(e), nil

	case *wit.Record:
		s, err := d.declare(td, func(name string) *tree.Decl {
			return d.ns.Struct(name)
		})
		if err != nil {
			return nil, err
		}
		return tree.TypeOf(s), nil

	case *wit.List:
		elem, err := d.Type(k.Type)
		if err != nil {
			return nil, err
		}
		return tree.TypeOf(d.ns.Specialize(d.spellings.ArrayView, elem)), nil

	case wit.Type:
		inner, err := d.Type(k)
		if err != nil {
			return nil, err
		}
		if td.Name == nil {
			return inner, nil
		}
		return tree.Typedef(*td.Name, inner), nil
	}

	return tree.Unexposed(fmt.Sprintf("%T", td.Kind)), nil
}

func (d *Describer) resource(td *wit.TypeDef) (*tree.Decl, error) {
	if td == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "handle without resource")
	}
	// handles may point at an alias of the resource
	for {
		alias, ok := td.Kind.(wit.Type)
		if !ok {
			break
		}
		next, ok := alias.(*wit.TypeDef)
		if !ok {
			break
		}
		td = next
	}
	if _, ok := td.Kind.(*wit.Resource); !ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("handle to non-resource %T", td.Kind).
			Build()
	}
	return d.declare(td, func(name string) *tree.Decl {
		c := d.ns.Class(name)
		d.resources = append(d.resources, c)
		return c
	})
}

func (d *Describer) declare(td *wit.TypeDef, create func(name string) *tree.Decl) (*tree.Decl, error) {
	if decl, ok := d.decls[td]; ok {
		return decl, nil
	}
	if td.Name == nil || *td.Name == "" {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("anonymous %T cannot be declared", td.Kind).
			Build()
	}
	decl := create(*td.Name)
	d.decls[td] = decl
	return decl, nil
}

func (d *Describer) stringView() *tree.Decl {
	if d.str == nil {
		d.str = d.ns.Struct(d.spellings.StringView)
	}
	return d.str
}

// Queries describes the parameters and results of f. Parameters arrive from
// the host and are queried fromNative; results are queried toNative.
func (d *Describer) Queries(f Func) ([]tree.Query, error) {
	queries := make([]tree.Query, 0, len(f.Params)+len(f.Results))
	for i, p := range f.Params {
		name := fmt.Sprintf("%s.arg%d", f.Name, i)
		if i < len(f.ParamNames) && f.ParamNames[i] != "" {
			name = f.Name + "." + f.ParamNames[i]
		}
		q, err := d.query(name, p, marshal.FromNative)
		if err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Path(f.Name).
				Cause(err).
				Detail("param %d", i).
				Build()
		}
		queries = append(queries, q)
	}
	for i, r := range f.Results {
		q, err := d.query(fmt.Sprintf("%s.result%d", f.Name, i), r, marshal.ToNative)
		if err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Path(f.Name).
				Cause(err).
				Detail("result %d", i).
				Build()
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func (d *Describer) query(name string, t wit.Type, dir marshal.Direction) (tree.Query, error) {
	typ, err := d.Type(t)
	if err != nil {
		return tree.Query{}, err
	}
	return tree.Query{
		Name:      name,
		Type:      typ,
		Direction: dir.String(),
		Param:     d.tu.Param(name, typ),
	}, nil
}
