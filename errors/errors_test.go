package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseTrie,
				Kind:   KindDuplicateKey,
				Path:   []string{"llvm", "Value"},
				Type:   "llvm::Value",
				Detail: "already present",
			},
			contains: []string{"[trie]", "duplicate_key", "llvm/Value", "type llvm::Value", "already present"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseResolve,
				Kind:  KindNotFound,
			},
			contains: []string{"[resolve]", "not_found"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidInput,
				Detail: "bad fixture",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_input", "bad fixture", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidInput,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseTrie,
		Kind:  KindDuplicateKey,
		Path:  []string{"a"},
	}

	if !err.Is(&Error{Phase: PhaseTrie, Kind: KindDuplicateKey}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseRegister, Kind: KindDuplicateKey}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseTrie, Kind: KindInvariant}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, Kinded(KindDuplicateKey)) {
		t.Error("errors.Is should match Kinded target in any phase")
	}
	if errors.Is(err, Kinded(KindInvariant)) {
		t.Error("errors.Is should not match Kinded target of another kind")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseTrie, KindInvariant).
		Path("x", "y").
		Type("Edge").
		Value(0).
		Cause(cause).
		Detail("split at %d of %d", 0, 2).
		Build()

	if err.Phase != PhaseTrie {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseTrie)
	}
	if err.Kind != KindInvariant {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvariant)
	}
	if len(err.Path) != 2 || err.Path[0] != "x" || err.Path[1] != "y" {
		t.Errorf("Path = %v, want [x y]", err.Path)
	}
	if err.Type != "Edge" {
		t.Errorf("Type = %v, want 'Edge'", err.Type)
	}
	if err.Value != 0 {
		t.Errorf("Value = %v, want 0", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "split at 0 of 2" {
		t.Errorf("Detail = %v, want 'split at 0 of 2'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("DuplicateKey", func(t *testing.T) {
		err := DuplicateKey(PhaseRegister, nil, "c:@S@Foo")
		if err.Kind != KindDuplicateKey {
			t.Errorf("Kind = %v, want %v", err.Kind, KindDuplicateKey)
		}
		if err.Value != "c:@S@Foo" {
			t.Errorf("Value = %v, want c:@S@Foo", err.Value)
		}
	})

	t.Run("Invariant", func(t *testing.T) {
		err := Invariant(PhaseTrie, []string{"a"}, "value slot occupied")
		if err.Kind != KindInvariant {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvariant)
		}
	})

	t.Run("UnknownPlaceholder", func(t *testing.T) {
		err := UnknownPlaceholder("cxxname", "class $cxxname")
		if err.Phase != PhaseTemplate || err.Kind != KindUnknownPlaceholder {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Detail, "cxxname") {
			t.Errorf("Detail = %v, should name the placeholder", err.Detail)
		}
	})

	t.Run("InvalidTemplate", func(t *testing.T) {
		err := InvalidTemplate("${x", 0, "unterminated placeholder")
		if err.Kind != KindInvalidTemplate {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidTemplate)
		}
	})

	t.Run("AmbiguousTemplateArgument", func(t *testing.T) {
		err := AmbiguousTemplateArgument("elems", "no template reference")
		if err.Kind != KindAmbiguousArgument {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAmbiguousArgument)
		}
		if err.Type != "elems" {
			t.Errorf("Type = %v, want elems", err.Type)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseLoad, "class", "Widget")
		if !strings.Contains(err.Error(), `class "Widget" not found`) {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("io")
		err := Wrap(PhaseLoad, KindInvalidInput, cause, "read fixture")
		if !errors.Is(err, cause) {
			t.Error("Wrap should keep cause reachable")
		}
	})
}
