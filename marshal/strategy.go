// Package marshal selects and emits conversion snippets for C++ values
// crossing into and out of the scripting host.
//
// A Strategy knows how to convert one native type. Strategies are built by a
// Resolver from cxx types, cached per Session, and emit C++ expressions from
// small templates such as "$name.Wrap($val)".
package marshal

import (
	"github.com/wippyai/kharon/errors"
)

// Variant names a strategy family.
type Variant int

const (
	VariantClass Variant = iota
	VariantClassRef
	VariantPrimitive
	VariantEnum
	VariantContainer
	VariantSynthetic
	VariantString
)

var variantNames = [...]string{
	VariantClass:     "class",
	VariantClassRef:  "class-ref",
	VariantPrimitive: "primitive",
	VariantEnum:      "enum",
	VariantContainer: "container",
	VariantSynthetic: "synthetic",
	VariantString:    "string",
}

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return "unknown"
}

// Variants lists every variant in declaration order.
func Variants() []Variant {
	return []Variant{
		VariantClass, VariantClassRef, VariantPrimitive, VariantEnum,
		VariantContainer, VariantSynthetic, VariantString,
	}
}

// Op is an emission capability.
type Op int

const (
	OpToNative Op = iota
	OpFromNative
	OpTest
	OpSynthesize
)

func (o Op) String() string {
	switch o {
	case OpToNative:
		return "toNative"
	case OpFromNative:
		return "fromNative"
	case OpTest:
		return "test"
	case OpSynthesize:
		return "synthesize"
	}
	return "unknown"
}

// Strategy converts values of one native type.
//
// Capabilities are fixed at construction. Calling an op the strategy does not
// support fails with errors.KindUnsupported.
type Strategy interface {
	ID() string
	Display() string
	Variant() Variant
	Supports(op Op) bool

	// ToNative returns an expression converting the native value computed by
	// val into a host value.
	ToNative(val string) (string, error)
	// FromNative returns an expression converting the host value computed by
	// val into a native value.
	FromNative(val string) (string, error)
	// Test returns an expression checking whether val is convertible.
	Test(val string) (string, error)
	// Synthesize returns an expression producing the native value from nothing.
	Synthesize() (string, error)

	// Field exposes named attributes to templates, e.g. "cxxname".
	Field(name string) (any, bool)
	String() string
}

// CanMarshalToNative reports whether s is non-nil and emits toNative.
func CanMarshalToNative(s Strategy) bool {
	return s != nil && s.Supports(OpToNative)
}

// CanMarshalFromNative reports whether s is non-nil and can produce a native
// value, either by conversion or by synthesis.
func CanMarshalFromNative(s Strategy) bool {
	return s != nil && (s.Supports(OpFromNative) || s.Supports(OpSynthesize))
}

// IsSynthetic reports whether s synthesizes its value.
func IsSynthetic(s Strategy) bool {
	return s != nil && s.Supports(OpSynthesize)
}

type emitter func(val string) (string, error)

// base carries the state shared by every variant.
type base struct {
	fields  Fields
	emit    [OpSynthesize + 1]emitter
	id      string
	display string
	variant Variant
}

func (b *base) ID() string       { return b.id }
func (b *base) Display() string  { return b.display }
func (b *base) Variant() Variant { return b.variant }

func (b *base) Supports(op Op) bool {
	return op >= 0 && int(op) < len(b.emit) && b.emit[op] != nil
}

func (b *base) ToNative(val string) (string, error)   { return b.run(OpToNative, val) }
func (b *base) FromNative(val string) (string, error) { return b.run(OpFromNative, val) }
func (b *base) Test(val string) (string, error)       { return b.run(OpTest, val) }
func (b *base) Synthesize() (string, error)           { return b.run(OpSynthesize, "") }

func (b *base) run(op Op, val string) (string, error) {
	if !b.Supports(op) {
		return "", errors.New(errors.PhaseEmit, errors.KindUnsupported).
			Type(b.String()).
			Detail("%s strategy %q does not support %s", b.variant, b.id, op).
			Build()
	}
	return b.emit[op](val)
}

func (b *base) Field(name string) (any, bool) {
	switch name {
	case "id":
		return b.id, true
	case "display":
		return b.display, true
	}
	v, ok := b.fields[name]
	return v, ok
}

func (b *base) String() string {
	if b.display != "" {
		return b.display
	}
	return b.id
}

// expand installs a template emitter for op. The template sees the strategy
// fields plus "val".
func (b *base) expand(op Op, t *Template) {
	if t == nil {
		return
	}
	b.emit[op] = func(val string) (string, error) {
		f := b.fields.With("val", val)
		f["id"] = b.id
		if b.display != "" {
			f["display"] = b.display
		}
		return t.Expand(f)
	}
}

// check enforces the capability rules shared by all variants: synthetic
// strategies synthesize and never convert from native, every other strategy
// tests and converts in at least one direction.
func (b *base) check() error {
	fail := func(detail string) error {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Type(b.id).
			Detail("%s strategy: %s", b.variant, detail).
			Build()
	}

	if b.variant == VariantSynthetic {
		switch {
		case !b.Supports(OpSynthesize):
			return fail("missing synthesize")
		case b.Supports(OpFromNative):
			return fail("synthetic strategy cannot convert from native")
		}
		return nil
	}

	switch {
	case b.Supports(OpSynthesize):
		return fail("only synthetic strategies synthesize")
	case !b.Supports(OpTest):
		return fail("missing test")
	case !b.Supports(OpToNative) && !b.Supports(OpFromNative):
		return fail("no conversion direction")
	}
	return nil
}

// mustCheck is for built-in strategies whose capabilities are static.
func (b *base) mustCheck() {
	if err := b.check(); err != nil {
		panic(err)
	}
}
