// Package errors provides structured error types for the kharon toolkit.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: segment path, type spelling, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTrie, errors.KindDuplicateKey).
//		Path("llvm", "Value").
//		Detail("path already holds a value").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DuplicateKey(errors.PhaseRegister, nil, usr)
//	err := errors.UnknownPlaceholder("cxxname", "class $cxxname")
//
// All errors implement the standard error interface and support errors.Is/As.
// errors.Kinded builds a target that matches a Kind in any phase:
//
//	if errors.Is(err, errors.Kinded(errors.KindDuplicateKey)) { ... }
package errors
