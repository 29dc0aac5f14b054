package tree

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/kharon/cxx"
	"github.com/wippyai/kharon/errors"
)

// Fixture is a declaration set loaded from YAML.
type Fixture struct {
	Scope   *Scope
	TU      *Decl
	Name    string
	Classes []*Decl
	Enums   []*Decl
	Records []*Decl
	Bound   []*Decl
	Queries []Query
	Methods []Method
}

// Query asks for the marshaler of a parameter or return type.
type Query struct {
	Type      *Type
	Param     *Decl
	Name      string
	Direction string
}

// Method is a declared method whose result and parameters are phrased as
// queries: the result crosses toNative, parameters cross fromNative.
type Method struct {
	Decl   *Decl
	Owner  *Decl
	Result Query
	Params []Query
}

type fixtureDoc struct {
	Name    string      `yaml:"name"`
	Classes []classDoc  `yaml:"classes"`
	Enums   []enumDoc   `yaml:"enums"`
	Records []string    `yaml:"records"`
	Queries []queryDoc  `yaml:"queries"`
	Methods []methodDoc `yaml:"methods"`
}

type classDoc struct {
	Name    string   `yaml:"name"`
	Bases   []string `yaml:"bases"`
	Bound   bool     `yaml:"bound"`
	Forward bool     `yaml:"forward"`
	Struct  bool     `yaml:"struct"`
}

type enumDoc struct {
	Name      string   `yaml:"name"`
	Constants []string `yaml:"constants"`
}

type queryDoc struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Direction string `yaml:"direction"`
}

type methodDoc struct {
	Class  string     `yaml:"class"`
	Name   string     `yaml:"name"`
	Result string     `yaml:"result"`
	Params []paramDoc `yaml:"params"`
}

type paramDoc struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default bool   `yaml:"default"`
}

// LoadFile reads a fixture from path. The file name becomes the translation unit.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load("open fixture", err)
	}
	defer f.Close()
	return Load(f, filepath.Base(path))
}

// Load parses a YAML fixture.
//
//	classes:
//	  - {name: llvm::Value, bound: true}
//	  - {name: llvm::User, bases: [llvm::Value]}
//	enums:
//	  - {name: llvm::GlobalValue::LinkageTypes, constants: [ExternalLinkage]}
//	records: [llvm::StringRef]
//	methods:
//	  - {class: llvm::User, name: getOperand, result: "llvm::Value *", params: [{name: i, type: unsigned}]}
//	queries:
//	  - {name: getParent, type: "llvm::User *", direction: toNative}
func Load(r io.Reader, tuName string) (*Fixture, error) {
	var doc fixtureDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Load("decode fixture", err)
	}
	return build(&doc, tuName)
}

func build(doc *fixtureDoc, tuName string) (*Fixture, error) {
	tu := NewTU(tuName)
	scope := NewScope(tu)
	fx := &Fixture{Scope: scope, TU: tu, Name: doc.Name}
	if fx.Name == "" {
		fx.Name = tuName
	}

	for _, name := range doc.Records {
		parent, short := scope.Container(name)
		d := parent.Struct(short)
		scope.Declare(d)
		fx.Records = append(fx.Records, d)
	}

	// bases may name classes declared later in the file
	classes := make([]*Decl, len(doc.Classes))
	for i, c := range doc.Classes {
		if c.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseLoad, "class without name")
		}
		parent, short := scope.Container(c.Name)
		if c.Struct {
			classes[i] = parent.Struct(short)
		} else {
			classes[i] = parent.Class(short)
		}
		scope.Declare(classes[i])
		fx.Classes = append(fx.Classes, classes[i])
	}
	for i, c := range doc.Classes {
		for _, b := range c.Bases {
			base, ok := scope.Lookup(b)
			if !ok {
				return nil, errors.NotFound(errors.PhaseLoad, "base class", b)
			}
			classes[i].Inherit(base)
		}
		if c.Forward {
			classes[i].parent.Forward(classes[i])
		}
		if c.Bound {
			fx.Bound = append(fx.Bound, classes[i])
		}
	}

	for _, e := range doc.Enums {
		parent, short := scope.Container(e.Name)
		d := parent.Enum(short, e.Constants...)
		scope.Declare(d)
		fx.Enums = append(fx.Enums, d)
	}

	for _, m := range doc.Methods {
		owner, ok := scope.Lookup(m.Class)
		if !ok {
			return nil, errors.NotFound(errors.PhaseLoad, "class", m.Class)
		}
		result, err := scope.ParseType(defaultString(m.Result, "void"))
		if err != nil {
			return nil, err
		}
		params := make([]ParamSpec, len(m.Params))
		for i, p := range m.Params {
			t, err := scope.ParseType(p.Type)
			if err != nil {
				return nil, err
			}
			params[i] = ParamSpec{Name: p.Name, Type: t, Default: p.Default}
		}
		decl := owner.Method(m.Name, result, params...)

		method := Method{
			Decl:   decl,
			Owner:  owner,
			Result: Query{Name: m.Name, Type: result, Direction: "toNative", Param: decl},
		}
		for _, c := range decl.children {
			if c.kind == cxx.CursorParmDecl {
				method.Params = append(method.Params, Query{Name: c.name, Type: c.typ, Direction: "fromNative", Param: c})
			}
		}
		fx.Methods = append(fx.Methods, method)
	}

	for _, q := range doc.Queries {
		t, err := scope.ParseType(q.Type)
		if err != nil {
			return nil, err
		}
		fx.Queries = append(fx.Queries, Query{
			Name:      q.Name,
			Type:      t,
			Direction: defaultString(q.Direction, "toNative"),
			Param:     tu.Param(q.Name, t),
		})
	}

	return fx, nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
