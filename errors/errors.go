package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseTrie     Phase = "trie"     // segment trie insertion
	PhaseRegister Phase = "register" // bound class registration
	PhaseResolve  Phase = "resolve"  // marshaler resolution
	PhaseTemplate Phase = "template" // template parsing and expansion
	PhaseEmit     Phase = "emit"     // code snippet emission
	PhaseLoad     Phase = "load"     // fixture loading
	PhaseConfig   Phase = "config"   // configuration
)

// Kind categorizes the error
type Kind string

const (
	KindDuplicateKey       Kind = "duplicate_key"
	KindInvariant          Kind = "invariant"
	KindUnknownPlaceholder Kind = "unknown_placeholder"
	KindAmbiguousArgument  Kind = "ambiguous_template_argument"
	KindInvalidTemplate    Kind = "invalid_template"
	KindUnsupported        Kind = "unsupported"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
)

// Error is the structured error type used throughout kharon
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "/"))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Kinded returns a match target for errors.Is that ignores the phase.
func Kinded(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the segment path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the type spelling
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// DuplicateKey creates an error for a key that is already occupied
func DuplicateKey(phase Phase, path []string, key string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateKey,
		Path:   path,
		Detail: fmt.Sprintf("key %q already present", key),
		Value:  key,
	}
}

// Invariant creates an error for a broken internal invariant
func Invariant(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvariant,
		Path:   path,
		Detail: detail,
	}
}

// UnknownPlaceholder creates an error for a template field missing from the dictionary
func UnknownPlaceholder(name, template string) *Error {
	return &Error{
		Phase:  PhaseTemplate,
		Kind:   KindUnknownPlaceholder,
		Detail: fmt.Sprintf("placeholder %q not defined for template %q", name, template),
		Value:  name,
	}
}

// InvalidTemplate creates a template syntax error
func InvalidTemplate(template string, offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseTemplate,
		Kind:   KindInvalidTemplate,
		Detail: fmt.Sprintf("%s at offset %d in %q", detail, offset, template),
		Value:  offset,
	}
}

// AmbiguousTemplateArgument creates an error for a template argument that cannot be guessed
func AmbiguousTemplateArgument(decl, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindAmbiguousArgument,
		Type:   decl,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a fixture loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
