package marshal

import (
	"go.uber.org/zap"

	"github.com/wippyai/kharon/errors"
)

// Direction is the marshaling direction of a query.
type Direction int

const (
	// ToNative converts native values for the host. Unbound classes fall
	// back to their nearest bound base.
	ToNative Direction = iota
	// FromNative converts host values into native ones. Classes must be
	// bound exactly.
	FromNative
)

func (d Direction) String() string {
	if d == FromNative {
		return "fromNative"
	}
	return "toNative"
}

// ParseDirection parses "toNative" or "fromNative".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "toNative":
		return ToNative, nil
	case "fromNative":
		return FromNative, nil
	}
	return 0, errors.New(errors.PhaseResolve, errors.KindInvalidInput).
		Value(s).
		Detail("unknown direction %q", s).
		Build()
}

// Spellings are the declaration names with dedicated strategies.
type Spellings struct {
	Context        string `yaml:"context"`
	StdString      string `yaml:"std_string"`
	FlexibleString string `yaml:"flexible_string"`
	StringView     string `yaml:"string_view"`
	IntrusiveList  string `yaml:"intrusive_list"`
	ArrayView      string `yaml:"array_view"`
}

// DefaultSpellings returns the LLVM spellings.
func DefaultSpellings() Spellings {
	return Spellings{
		Context:        "LLVMContext",
		StdString:      "basic_string",
		FlexibleString: "Twine",
		StringView:     "StringRef",
		IntrusiveList:  "iplist",
		ArrayView:      "ArrayRef",
	}
}

// Options configures resolution.
type Options struct {
	Logger      *zap.Logger
	Spellings   Spellings
	ContextExpr string
	// MaxBaseDepth bounds the base class walk.
	MaxBaseDepth int
	// DisableBaseWalk stops toNative lookups from falling back to a bound
	// base class. The zero value walks.
	DisableBaseWalk bool
}

// DefaultOptions returns default resolution configuration.
func DefaultOptions() Options {
	return Options{
		Spellings:    DefaultSpellings(),
		ContextExpr:  "llvm::getGlobalContext()",
		MaxBaseDepth: 64,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Logger == nil {
		o.Logger = Logger()
	}
	if o.MaxBaseDepth <= 0 {
		o.MaxBaseDepth = d.MaxBaseDepth
	}
	if o.ContextExpr == "" {
		o.ContextExpr = d.ContextExpr
	}
	s := &o.Spellings
	for _, f := range []struct {
		v   *string
		def string
	}{
		{&s.Context, d.Spellings.Context},
		{&s.StdString, d.Spellings.StdString},
		{&s.FlexibleString, d.Spellings.FlexibleString},
		{&s.StringView, d.Spellings.StringView},
		{&s.IntrusiveList, d.Spellings.IntrusiveList},
		{&s.ArrayView, d.Spellings.ArrayView},
	} {
		if *f.v == "" {
			*f.v = f.def
		}
	}
	return o
}
