// Package kharon selects the marshaling code that carries C++ values across
// a scripting-host binding layer.
//
// Given the types of function parameters and results found in C++ headers,
// kharon decides how each value converts between its native representation
// and the host one, and emits the C++ snippets doing the conversion.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	kharon/
//	├── cxx/        Read-only contracts over a C++ AST (cursors and types)
//	│   └── tree/   In-memory AST, YAML fixtures and a type expression parser
//	├── marshal/    Strategies, templates, the class registry and the resolver
//	├── trie/       Generic segment trie with path compression
//	├── index/      Declaration paths mapped to strategies through the trie
//	├── witdesc/    WIT component types described as cxx declarations
//	├── errors/     Structured error types
//	└── cmd/kharon  Command line inspector
//
// # Quick Start
//
// Bind a class and resolve a parameter type:
//
//	tu := tree.NewTU("llvm.h")
//	llvm := tu.Namespace("llvm")
//	value := llvm.Class("Value")
//	inst := llvm.Class("Instruction", value)
//
//	s := marshal.NewSession(marshal.DefaultOptions())
//	if _, err := s.RegisterDecl(value); err != nil {
//	    log.Fatal(err)
//	}
//
//	st, ok := s.Resolve(tree.PointerTo(tree.TypeOf(inst)), marshal.ToNative, nil)
//	if ok {
//	    out, _ := st.ToNative("I")
//	    fmt.Println(out) // "Value.Wrap(I)"
//	}
//
// # Directions
//
// Values returned from native code are marshaled toNative: an unbound class
// is handled by its nearest bound base. Values passed into native code are
// marshaled fromNative and need an exact binding.
//
// # Thread Safety
//
// Session is safe for concurrent use. Registry, Cache and Resolver are not
// and should be used through a Session or by a single goroutine.
package kharon
