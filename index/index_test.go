package index

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/kharon/cxx"
	"github.com/wippyai/kharon/cxx/tree"
	"github.com/wippyai/kharon/marshal"
)

func llvmTU() (*tree.Decl, []*tree.Decl) {
	tu := tree.NewTU("llvm.h")
	llvm := tu.Namespace("llvm")
	value := llvm.Class("Value")
	user := llvm.Class("User", value)
	gv := llvm.Class("GlobalValue", value)
	gv.Enum("LinkageTypes", "ExternalLinkage")
	llvm.Class("Twine")
	module := llvm.Class("Module")
	llvm.Forward(module)
	llvm.Specialize("ArrayRef", tree.PointerTo(tree.TypeOf(value)))
	return tu, []*tree.Decl{value, user}
}

func newSession(t *testing.T, bind ...*tree.Decl) *marshal.Session {
	t.Helper()
	s := marshal.NewSession(marshal.DefaultOptions())
	for _, d := range bind {
		if _, err := s.RegisterDecl(d); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func paths(decls []cxx.Cursor) []string {
	var out []string
	for _, d := range decls {
		out = append(out, strings.Join(cxx.PathTo(d), "::"))
	}
	return out
}

func TestDeclarations(t *testing.T) {
	tu, _ := llvmTU()
	want := []string{
		"llvm::Value",
		"llvm::User",
		"llvm::GlobalValue",
		"llvm::GlobalValue::LinkageTypes",
		"llvm::Twine",
		"llvm::Module",
	}
	if diff := cmp.Diff(want, paths(Declarations(tu))); diff != "" {
		t.Errorf("declarations mismatch (-want +got):\n%s", diff)
	}
	if Declarations(nil) != nil {
		t.Error("nil root has declarations")
	}
}

func TestBuild_ToNative(t *testing.T) {
	tu, bound := llvmTU()
	s := newSession(t, bound...)

	idx, err := Build(s, Declarations(tu), marshal.ToNative)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	idx.Walk(func(path []string, st marshal.Strategy) bool {
		got = append(got, strings.Join(path, "::")+" = "+st.String())
		return true
	})
	want := []string{
		"llvm::Value = class llvm::Value",
		"llvm::User = class llvm::User",
		"llvm::GlobalValue = class llvm::Value",
		"llvm::GlobalValue::LinkageTypes = enum llvm::GlobalValue::LinkageTypes",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}

	var skipped []string
	for _, sk := range idx.Skipped() {
		skipped = append(skipped, strings.Join(sk.Path, "::")+": "+sk.Reason)
	}
	wantSkipped := []string{"llvm::Twine: no marshaler", "llvm::Module: no marshaler"}
	if diff := cmp.Diff(wantSkipped, skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}

	if idx.Len() != 4 || idx.Direction() != marshal.ToNative {
		t.Errorf("len %d direction %s", idx.Len(), idx.Direction())
	}
	if err := idx.trie.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestBuild_FromNativeIsExact(t *testing.T) {
	tu, bound := llvmTU()
	s := newSession(t, bound...)

	idx, err := Build(s, Declarations(tu), marshal.FromNative)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.LookupName("llvm::GlobalValue"); ok {
		t.Error("fromNative indexed an unbound subclass")
	}
	if st, ok := idx.LookupName("llvm::User"); !ok || st.Display() != "class llvm::User" {
		t.Errorf("User = %v, %v", st, ok)
	}
}

func TestIndex_Nearest(t *testing.T) {
	tu, bound := llvmTU()
	idx, err := Build(newSession(t, bound...), Declarations(tu), marshal.ToNative)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		path  string
		found bool
	}{
		{"llvm::User", "llvm::User", true},
		{"llvm::User::getOperand", "llvm::User", true},
		{"llvm::GlobalValue::LinkageTypes::ExternalLinkage", "llvm::GlobalValue::LinkageTypes", true},
		{"llvm", "", false},
		{"clang::Decl", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			path, _, ok := idx.Nearest(strings.Split(tt.query, "::"))
			if ok != tt.found || strings.Join(path, "::") != tt.path {
				t.Errorf("Nearest = %v, %v; want %q, %v", path, ok, tt.path, tt.found)
			}
		})
	}
}

func TestBuild_DuplicatePaths(t *testing.T) {
	a := tree.NewTU("a.h").Namespace("llvm").Class("Value")
	b := tree.NewTU("b.h").Namespace("llvm").Class("Value")
	s := newSession(t, a)

	// b shares a's USR, so it resolves to the same bound class
	idx, err := Build(s, []cxx.Cursor{a, b}, marshal.ToNative)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 {
		t.Errorf("len = %d", idx.Len())
	}
	if diff := cmp.Diff([]Skip{{Path: []string{"llvm", "Value"}, Reason: "duplicate path"}}, idx.Skipped()); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestIndex_Render(t *testing.T) {
	tu := tree.NewTU("r.h")
	ns := tu.Namespace("ns")
	a := ns.Class("A")
	b := ns.Class("B")
	s := newSession(t, a, b)

	idx, err := Build(s, Declarations(tu), marshal.FromNative)
	if err != nil {
		t.Fatal(err)
	}
	want := "{}\n" +
		"[ns] ->\n" +
		"  {}\n" +
		"  [A] ->\n" +
		"    {class ns::A}\n" +
		"  [B] ->\n" +
		"    {class ns::B}\n"
	if diff := cmp.Diff(want, idx.Render()); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}
