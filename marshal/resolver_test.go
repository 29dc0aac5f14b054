package marshal

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/kharon/cxx"
	"github.com/wippyai/kharon/cxx/tree"
	"github.com/wippyai/kharon/errors"
)

// llvmDecls is a small LLVM-shaped declaration set:
//
//	Value <- User <- Instruction
//	LLVMContext, Twine, StringRef, std::basic_string
//	enum Color
type llvmDecls struct {
	tu, ns                   *tree.Decl
	value, user, inst        *tree.Decl
	context, twine, sref     *tree.Decl
	stdString, color, module *tree.Decl
}

func newLLVM() *llvmDecls {
	d := &llvmDecls{tu: tree.NewTU("llvm.h")}
	d.ns = d.tu.Namespace("llvm")
	d.value = d.ns.Class("Value")
	d.user = d.ns.Class("User", d.value)
	d.inst = d.ns.Class("Instruction", d.user)
	d.context = d.ns.Class("LLVMContext")
	d.twine = d.ns.Class("Twine")
	d.sref = d.ns.Class("StringRef")
	d.stdString = d.tu.Namespace("std").Class("basic_string")
	d.color = d.ns.Enum("Color", "Red", "Green")
	d.module = d.ns.Class("Module")
	d.ns.Forward(d.module)
	return d
}

func newTestResolver(t *testing.T, bind ...*tree.Decl) (*Resolver, *Registry, *Cache) {
	t.Helper()
	reg := NewRegistry()
	for _, d := range bind {
		if _, err := reg.RegisterDecl(d); err != nil {
			t.Fatalf("RegisterDecl(%s): %v", d, err)
		}
	}
	cache := NewCache()
	return NewResolver(reg, cache, DefaultOptions()), reg, cache
}

func ptr(d *tree.Decl) *tree.Type { return tree.PointerTo(tree.TypeOf(d)) }
func ref(d *tree.Decl) *tree.Type { return tree.RefTo(tree.TypeOf(d)) }

func mustResolve(t *testing.T, r *Resolver, typ cxx.Type, dir Direction, param cxx.Cursor) Strategy {
	t.Helper()
	s, ok := r.Resolve(typ, dir, param)
	if !ok {
		t.Fatalf("Resolve(%s, %s) missed", typ.Spelling(), dir)
	}
	return s
}

func emit(t *testing.T, fn func(string) (string, error), val string) string {
	t.Helper()
	out, err := fn(val)
	if err != nil {
		t.Fatalf("emit(%q): %v", val, err)
	}
	return out
}

func TestResolve_DirectionAsymmetry(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t, d.value)

	s := mustResolve(t, r, ptr(d.inst), ToNative, nil)
	if s.Variant() != VariantClass || s.ID() != d.value.USR() {
		t.Errorf("toNative resolved to %s %q, want class %q", s.Variant(), s.ID(), d.value.USR())
	}
	if got := emit(t, s.ToNative, "I"); got != "Value.Wrap(I)" {
		t.Errorf("ToNative = %q", got)
	}

	if s, ok := r.Resolve(ptr(d.inst), FromNative, nil); ok {
		t.Errorf("fromNative resolved to %s, want miss", s)
	}
	if got := r.Stats().Misses[MissUnboundClass]; got != 1 {
		t.Errorf("unbound-class misses = %d, want 1", got)
	}

	// the bound class itself resolves both ways
	if _, ok := r.Resolve(ptr(d.value), FromNative, nil); !ok {
		t.Error("fromNative of bound class missed")
	}
}

func TestResolve_BaseWalkDisabled(t *testing.T) {
	d := newLLVM()
	reg := NewRegistry()
	if _, err := reg.RegisterDecl(d.value); err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.DisableBaseWalk = true
	r := NewResolver(reg, NewCache(), opts)

	if _, ok := r.Resolve(ptr(d.inst), ToNative, nil); ok {
		t.Error("resolved through base with BaseWalk disabled")
	}
}

func TestResolve_ZeroOptionsWalkBases(t *testing.T) {
	d := newLLVM()
	s := NewSession(Options{})
	if _, err := s.RegisterDecl(d.value); err != nil {
		t.Fatal(err)
	}

	st, reason := s.Explain(ptr(d.inst), ToNative, nil)
	if st == nil {
		t.Fatalf("toNative missed with zero options: %s", reason)
	}
	if st.ID() != d.value.USR() {
		t.Errorf("resolved to %q, want base %q", st.ID(), d.value.USR())
	}
}

func TestResolve_NearestBoundBase(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t, d.value, d.user)

	s := mustResolve(t, r, ptr(d.inst), ToNative, nil)
	if s.ID() != d.user.USR() {
		t.Errorf("resolved to %q, want nearest base %q", s.ID(), d.user.USR())
	}
}

func TestResolve_FirstBoundBaseInOrder(t *testing.T) {
	tu := tree.NewTU("mi.h")
	a := tu.Class("A")
	b := tu.Class("B")
	c := tu.Class("C")
	onlyB := tu.Class("OnlyB", a, b)
	both := tu.Class("Both", b, c)

	r, _, _ := newTestResolver(t, b, c)

	tests := []struct {
		name string
		decl *tree.Decl
		want *tree.Decl
	}{
		{"skips unbound first base", onlyB, b},
		{"first bound base wins", both, b},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustResolve(t, r, ptr(tt.decl), ToNative, nil)
			if s.ID() != tt.want.USR() {
				t.Errorf("resolved to %q, want %q", s.ID(), tt.want.USR())
			}
		})
	}
}

func TestResolve_BaseCycleBounded(t *testing.T) {
	tu := tree.NewTU("cycle.h")
	loop := tu.Class("Loop")
	loop.Inherit(loop)

	reg := NewRegistry()
	opts := DefaultOptions()
	opts.MaxBaseDepth = 4
	r := NewResolver(reg, NewCache(), opts)

	if _, ok := r.Resolve(ptr(loop), ToNative, nil); ok {
		t.Fatal("cyclic hierarchy resolved")
	}
	if got := r.Stats().Misses[MissBaseDepthExceeded]; got != 1 {
		t.Errorf("base-depth-exceeded misses = %d, want 1", got)
	}
}

func TestResolve_ClassRef(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t, d.value, d.user)

	s := mustResolve(t, r, ref(d.user), FromNative, nil)
	if s.Variant() != VariantClassRef {
		t.Fatalf("variant = %s, want class-ref", s.Variant())
	}
	if got := emit(t, s.FromNative, "v"); got != "*User.Unwrap(v)" {
		t.Errorf("FromNative = %q", got)
	}
	if got := emit(t, s.ToNative, "u"); got != "User.Wrap(&(u))" {
		t.Errorf("ToNative = %q", got)
	}
	if got := emit(t, s.Test, "v"); got != "User.Is(v)" {
		t.Errorf("Test = %q", got)
	}
	if s.Display() != "class llvm::User" {
		t.Errorf("Display = %q", s.Display())
	}

	// references to subclasses keep their own id but wrap the base strategy
	sub := mustResolve(t, r, ref(d.inst), ToNative, nil).(*ClassRefStrategy)
	if sub.ID() != d.inst.USR() || sub.Class().ID() != d.user.USR() {
		t.Errorf("ref id %q class %q", sub.ID(), sub.Class().ID())
	}
}

func TestResolve_EnumCacheIdentity(t *testing.T) {
	d := newLLVM()
	r, _, cache := newTestResolver(t)

	first := mustResolve(t, r, tree.TypeOf(d.color), ToNative, nil)
	second := mustResolve(t, r, tree.TypeOf(d.color), FromNative, nil)
	if first != second {
		t.Error("enum resolved twice produced distinct instances")
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d strategies, want 1", cache.Len())
	}
	if first.ID() != "llvm::Color" || first.Display() != "enum llvm::Color" {
		t.Errorf("enum id %q display %q", first.ID(), first.Display())
	}
	if got := emit(t, first.FromNative, "v"); got != "ENUM_FROM_V8(llvm::Color, v)" {
		t.Errorf("FromNative = %q", got)
	}
}

func TestResolve_Primitives(t *testing.T) {
	r, _, _ := newTestResolver(t)

	tests := []struct {
		kind     cxx.TypeKind
		id       string
		toNative string
	}{
		{cxx.TypeInt, "INT", "INT_TO_V8(5)"},
		{cxx.TypeBool, "BOOL", "BOOL_TO_V8(5)"},
		{cxx.TypeUInt, "UNSIGNED_INT", "UNSIGNED_INT_TO_V8(5)"},
		{cxx.TypeULongLong, "UNSIGNED_LONG_LONG", "UNSIGNED_LONG_LONG_TO_V8(5)"},
		{cxx.TypeDouble, "DOUBLE", "DOUBLE_TO_V8(5)"},
		{cxx.TypeVoid, "VOID", "VOID_TO_V8(5)"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			s := mustResolve(t, r, tree.Primitive(tt.kind), ToNative, nil)
			if s.ID() != tt.id {
				t.Errorf("ID = %q, want %q", s.ID(), tt.id)
			}
			to := emit(t, s.ToNative, "5")
			if to != tt.toNative {
				t.Errorf("ToNative = %q, want %q", to, tt.toNative)
			}
			back := emit(t, s.FromNative, to)
			test := emit(t, s.Test, "v")
			for _, out := range []string{to, back, test, s.Display()} {
				if strings.Contains(out, "$") {
					t.Errorf("unexpanded placeholder in %q", out)
				}
			}
		})
	}
}

func TestResolve_Typedef(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t, d.value)

	alias := tree.Typedef("ValuePtr", ptr(d.value))
	s := mustResolve(t, r, alias, FromNative, nil)
	if s.ID() != d.value.USR() {
		t.Errorf("typedef resolved to %q", s.ID())
	}
}

func TestResolve_SugaredPointee(t *testing.T) {
	tu := tree.NewTU("foo.h")
	foo := tu.Class("Foo")
	r, _, _ := newTestResolver(t, foo)

	alias := tree.Typedef("FooT", tree.TypeOf(foo))
	tests := []struct {
		name    string
		typ     cxx.Type
		variant Variant
	}{
		{"pointer", tree.PointerTo(alias), VariantClass},
		{"reference", tree.RefTo(alias), VariantClassRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.Canonical().Pointee().Spelling(); got != "Foo" {
				t.Errorf("canonical pointee = %q, want Foo", got)
			}
			for _, dir := range []Direction{ToNative, FromNative} {
				s, reason := r.Explain(tt.typ, dir, nil)
				if s == nil {
					t.Fatalf("%s %s missed: %s", tt.typ.Spelling(), dir, reason)
				}
				if s.Variant() != tt.variant {
					t.Errorf("%s variant = %s, want %s", dir, s.Variant(), tt.variant)
				}
			}
		})
	}
}

func TestResolve_ForwardDeclaration(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t, d.module)

	for _, dir := range []Direction{ToNative, FromNative} {
		s := mustResolve(t, r, ptr(d.module), dir, nil)
		if s.ID() != d.module.USR() {
			t.Errorf("%s resolved to %q", dir, s.ID())
		}
	}
}

func TestResolve_Strings(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t)

	tests := []struct {
		name       string
		typ        cxx.Type
		id         string
		toNative   bool
		fromNative string
	}{
		{"std::string ref", ref(d.stdString), "STDString", true, "STDSTRING_FROM_V8(v)"},
		{"Twine ref", ref(d.twine), "Twine", false, "TWINE_FROM_V8(v)"},
		{"StringRef ref", ref(d.sref), "StringRef", true, "STRINGREF_FROM_V8(v)"},
		{"StringRef value", tree.TypeOf(d.sref), "StringRef", true, "STRINGREF_FROM_V8(v)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustResolve(t, r, tt.typ, FromNative, nil)
			if s.ID() != tt.id || s.Display() != "string" {
				t.Errorf("id %q display %q", s.ID(), s.Display())
			}
			if CanMarshalToNative(s) != tt.toNative {
				t.Errorf("CanMarshalToNative = %v, want %v", CanMarshalToNative(s), tt.toNative)
			}
			if got := emit(t, s.FromNative, "v"); got != tt.fromNative {
				t.Errorf("FromNative = %q, want %q", got, tt.fromNative)
			}
		})
	}

	a := mustResolve(t, r, ref(d.sref), ToNative, nil)
	b := mustResolve(t, r, tree.TypeOf(d.sref), ToNative, nil)
	if a != b {
		t.Error("StringRef by value and by reference are distinct instances")
	}
}

func TestResolve_Context(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t)

	s := mustResolve(t, r, ref(d.context), FromNative, nil)
	if !IsSynthetic(s) || !CanMarshalFromNative(s) || CanMarshalToNative(s) {
		t.Fatalf("context capabilities wrong: %s", s)
	}
	if got, err := s.Synthesize(); err != nil || got != "llvm::getGlobalContext()" {
		t.Errorf("Synthesize = %q, %v", got, err)
	}
	if _, err := s.FromNative("v"); !stderrors.Is(err, errors.Kinded(errors.KindUnsupported)) {
		t.Errorf("FromNative on synthetic: %v", err)
	}
}

func TestResolve_IntrusiveList(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t, d.value)

	list := d.ns.Specialize("iplist", tree.TypeOf(d.inst))
	s := mustResolve(t, r, tree.RefTo(tree.TypeOf(list)), ToNative, nil)

	c, ok := s.(*ContainerStrategy)
	if !ok || c.Kind() != ListRef {
		t.Fatalf("resolved to %T %s", s, s)
	}
	if s.ID() != d.inst.USR() {
		t.Errorf("ID = %q, want element USR", s.ID())
	}
	if s.Display() != "llvm::iplist<llvm::Value>" {
		t.Errorf("Display = %q", s.Display())
	}
	want := "IPLIST_TO_V8(Value, llvm::Value, class llvm::Instruction, l)"
	if got := emit(t, s.ToNative, "l"); got != want {
		t.Errorf("ToNative = %q, want %q", got, want)
	}
	if CanMarshalFromNative(s) {
		t.Error("list ref converts from native")
	}

	// fromNative requires the element itself to be bound
	if _, ok := r.Resolve(tree.RefTo(tree.TypeOf(list)), FromNative, nil); ok {
		t.Error("fromNative list of unbound element resolved")
	}
	if got := r.Stats().Misses[MissUnboundElement]; got != 1 {
		t.Errorf("unbound-element misses = %d", got)
	}
}

func TestResolve_ArrayView(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t, d.value)

	arr := d.ns.Specialize("ArrayRef", ptr(d.value))
	typ := tree.TypeOf(arr)
	param := d.tu.Param("ops", typ)

	s := mustResolve(t, r, typ, FromNative, param)
	want := "ArrayRefFromV8<class llvm::Value>(a, Value)"
	if got := emit(t, s.FromNative, "a"); got != want {
		t.Errorf("FromNative = %q, want %q", got, want)
	}
	if got := emit(t, s.ToNative, "a"); got != "ArrayRefToV8<class llvm::Value>(a, Value)" {
		t.Errorf("ToNative = %q", got)
	}
	if got := emit(t, s.Test, "a"); got != "IS_ARRAYREF(a)" {
		t.Errorf("Test = %q", got)
	}

	// array views and lists over the same element are distinct strategies
	list := d.ns.Specialize("iplist", tree.TypeOf(d.value))
	l := mustResolve(t, r, tree.RefTo(tree.TypeOf(list)), ToNative, nil)
	if l == s {
		t.Error("list and array view share a cache slot")
	}
}

func TestResolve_Misses(t *testing.T) {
	d := newLLVM()
	r, _, _ := newTestResolver(t, d.value)

	arr := d.ns.Specialize("ArrayRef", ptr(d.value))
	tests := []struct {
		name   string
		typ    cxx.Type
		param  cxx.Cursor
		reason MissReason
	}{
		{"nil type", nil, nil, MissInvalidType},
		{"unexposed", tree.Unexposed("float"), nil, MissUnsupportedKind},
		{"pointer to primitive", tree.PointerTo(tree.Primitive(cxx.TypeInt)), nil, MissNoDeclaration},
		{"record by value", tree.TypeOf(d.value), nil, MissUnsupportedRecord},
		{"array view without param", tree.TypeOf(arr), nil, MissAmbiguousArgument},
		{"array view with plain param", tree.TypeOf(arr), tree.Raw(cxx.CursorParmDecl, "p"), MissAmbiguousArgument},
		{"unrelated class", ptr(d.twine), nil, MissUnboundClass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := r.Stats().Misses[tt.reason]
			s, reason := r.Explain(tt.typ, ToNative, tt.param)
			if s != nil {
				t.Fatalf("resolved to %s, want miss", s)
			}
			if reason != tt.reason {
				t.Errorf("reason = %q, want %q", reason, tt.reason)
			}
			if got := r.Stats().Misses[tt.reason]; got != before+1 {
				t.Errorf("%s misses = %d, want %d", tt.reason, got, before+1)
			}
		})
	}
}

func TestResolve_CustomSpellings(t *testing.T) {
	tu := tree.NewTU("custom.h")
	ctx := tu.Class("Ctx")

	opts := DefaultOptions()
	opts.Spellings.Context = "Ctx"
	opts.ContextExpr = "Ctx::global()"
	r := NewResolver(NewRegistry(), NewCache(), opts)

	s, ok := r.Resolve(ref(ctx), FromNative, nil)
	if !ok {
		t.Fatal("custom context spelling missed")
	}
	if got, _ := s.Synthesize(); got != "Ctx::global()" {
		t.Errorf("Synthesize = %q", got)
	}
}

func TestParseDirection(t *testing.T) {
	for _, dir := range []Direction{ToNative, FromNative} {
		got, err := ParseDirection(dir.String())
		if err != nil || got != dir {
			t.Errorf("ParseDirection(%q) = %v, %v", dir.String(), got, err)
		}
	}
	if _, err := ParseDirection("sideways"); !stderrors.Is(err, errors.Kinded(errors.KindInvalidInput)) {
		t.Errorf("ParseDirection(sideways) = %v", err)
	}
}
