package marshal

import (
	"go.uber.org/zap"

	"github.com/wippyai/kharon/cxx"
)

// MissReason explains why a type has no strategy.
type MissReason string

const (
	MissInvalidType       MissReason = "invalid-type"
	MissUnsupportedKind   MissReason = "unsupported-kind"
	MissNoDeclaration     MissReason = "no-declaration"
	MissUnboundClass      MissReason = "unbound-class"
	MissUnsupportedRecord MissReason = "unsupported-record"
	MissAmbiguousArgument MissReason = "ambiguous-template-argument"
	MissUnboundElement    MissReason = "unbound-element"
	MissBaseDepthExceeded MissReason = "base-depth-exceeded"
)

// Stats counts resolution outcomes.
type Stats struct {
	Misses map[MissReason]int
	Hits   int
}

func (s Stats) clone() Stats {
	out := Stats{Hits: s.Hits, Misses: make(map[MissReason]int, len(s.Misses))}
	for k, v := range s.Misses {
		out.Misses[k] = v
	}
	return out
}

// MissCount returns the total number of misses.
func (s Stats) MissCount() int {
	n := 0
	for _, v := range s.Misses {
		n += v
	}
	return n
}

// Resolver classifies cxx types into strategies.
// Not safe for concurrent use; Session serializes access.
type Resolver struct {
	registry *Registry
	cache    *Cache
	log      *zap.Logger
	stats    Stats
	opts     Options
}

// NewResolver creates a resolver over a registry and a cache.
func NewResolver(registry *Registry, cache *Cache, opts Options) *Resolver {
	opts = opts.withDefaults()
	return &Resolver{
		registry: registry,
		cache:    cache,
		opts:     opts,
		log:      opts.Logger,
		stats:    Stats{Misses: make(map[MissReason]int)},
	}
}

// Stats returns a copy of the resolution counters.
func (r *Resolver) Stats() Stats {
	return r.stats.clone()
}

// Resolve returns the strategy for values of type t crossing in direction
// dir. param is the declaration carrying t and is only consulted for
// template arguments of array views. A miss returns (nil, false).
func (r *Resolver) Resolve(t cxx.Type, dir Direction, param cxx.Cursor) (Strategy, bool) {
	s, _ := r.Explain(t, dir, param)
	return s, s != nil
}

// Explain is Resolve reporting why a miss happened. The reason is empty on a hit.
func (r *Resolver) Explain(t cxx.Type, dir Direction, param cxx.Cursor) (Strategy, MissReason) {
	s, reason := r.resolve(t, dir, param)
	if s == nil {
		r.stats.Misses[reason]++
		spelling := ""
		if t != nil {
			spelling = t.Spelling()
		}
		r.log.Debug("no marshaler",
			zap.String("type", spelling),
			zap.Stringer("direction", dir),
			zap.String("reason", string(reason)))
		return nil, reason
	}
	r.stats.Hits++
	return s, ""
}

func (r *Resolver) resolve(t cxx.Type, dir Direction, param cxx.Cursor) (Strategy, MissReason) {
	if t == nil {
		return nil, MissInvalidType
	}
	canonical := t.Canonical()
	if canonical == nil {
		return nil, MissInvalidType
	}
	sp := r.opts.Spellings

	switch kind := canonical.Kind(); {
	case kind == cxx.TypePointer:
		pointee := pointeeOf(t)
		if pointee == nil {
			return nil, MissNoDeclaration
		}
		c, reason := r.marshalClass(pointee, dir)
		if c == nil {
			return nil, reason
		}
		return c, ""

	case kind == cxx.TypeLValueReference:
		pointee := pointeeOf(t)
		if pointee == nil {
			return nil, MissNoDeclaration
		}
		switch pointee.Spelling() {
		case sp.Context:
			return r.obtain(VariantSynthetic, "", sp.Context, func() Strategy {
				return newSynthetic(sp.Context, r.opts.ContextExpr)
			}), ""
		case sp.StdString:
			return r.str(StdString), ""
		case sp.FlexibleString:
			return r.str(FlexibleString), ""
		case sp.StringView:
			return r.str(StringView), ""
		case sp.IntrusiveList:
			return r.container(ListRef, canonical.Pointee().Canonical().Declaration(), dir)
		}
		c, reason := r.marshalClass(pointee, dir)
		if c == nil {
			return nil, reason
		}
		return r.obtain(VariantClassRef, "", pointee.USR(), func() Strategy {
			return newClassRef(pointee, c)
		}), ""

	case kind == cxx.TypeRecord:
		decl := declOf(t)
		if decl == nil {
			return nil, MissNoDeclaration
		}
		switch decl.Spelling() {
		case sp.StringView:
			return r.str(StringView), ""
		case sp.ArrayView:
			return r.container(ArrayRef, param, dir)
		}
		return nil, MissUnsupportedRecord

	case kind == cxx.TypeEnum:
		decl := declOf(t)
		if decl == nil {
			return nil, MissNoDeclaration
		}
		return r.obtain(VariantEnum, "", cxx.CXXName(decl), func() Strategy {
			return newEnum(decl)
		}), ""

	case kind.IsPrimitive():
		typename := canonical.Spelling()
		return r.obtain(VariantPrimitive, "", primitiveID(typename), func() Strategy {
			return newPrimitive(typename)
		}), ""
	}

	return nil, MissUnsupportedKind
}

func (r *Resolver) obtain(v Variant, sub, id string, build func() Strategy) Strategy {
	return r.cache.obtain(cacheKey(v, sub, id), build)
}

func (r *Resolver) str(kind StringKind) Strategy {
	return r.obtain(VariantString, "", stringID(kind), func() Strategy {
		return newString(kind)
	})
}

// container resolves a list or array view whose element type is guessed
// from the template arguments of decl.
func (r *Resolver) container(kind ContainerKind, decl cxx.Cursor, dir Direction) (Strategy, MissReason) {
	element, err := cxx.GuessFirstTemplateArgument(decl)
	if err != nil {
		r.log.Debug("template argument", zap.Error(err))
		return nil, MissAmbiguousArgument
	}
	target := element.Definition()
	if cxx.IsNull(target) {
		return nil, MissUnboundElement
	}
	class, _ := r.marshalClass(target, dir)
	if class == nil {
		return nil, MissUnboundElement
	}
	return r.obtain(VariantContainer, kind.String(), containerID(element), func() Strategy {
		return newContainer(kind, element, class)
	}), ""
}

// marshalClass finds the bound class for decl. toNative may settle for a
// bound base; fromNative requires the class itself.
func (r *Resolver) marshalClass(decl cxx.Cursor, dir Direction) (*ClassStrategy, MissReason) {
	if dir == ToNative && !r.opts.DisableBaseWalk {
		return r.findBoundBase(decl, 0)
	}
	if c := r.findDirect(decl); c != nil {
		return c, ""
	}
	return nil, MissUnboundClass
}

func (r *Resolver) findDirect(decl cxx.Cursor) *ClassStrategy {
	if c, ok := r.registry.Lookup(decl.USR()); ok {
		return c
	}
	if def := decl.Definition(); isClass(def) {
		if c, ok := r.registry.Lookup(def.USR()); ok {
			return c
		}
	}
	return nil
}

// findBoundBase walks base specifiers in declaration order and returns the
// first bound class reachable depth-first.
func (r *Resolver) findBoundBase(decl cxx.Cursor, depth int) (*ClassStrategy, MissReason) {
	if depth > r.opts.MaxBaseDepth {
		r.log.Warn("base class walk too deep",
			zap.String("class", decl.Spelling()),
			zap.Int("max_depth", r.opts.MaxBaseDepth))
		return nil, MissBaseDepthExceeded
	}
	if c, ok := r.registry.Lookup(decl.USR()); ok {
		return c, ""
	}

	def := decl.Definition()
	if !isClass(def) {
		return nil, MissUnboundClass
	}
	if c, ok := r.registry.Lookup(def.USR()); ok {
		return c, ""
	}

	var (
		found  *ClassStrategy
		reason = MissUnboundClass
	)
	def.Visit(func(child cxx.Cursor) cxx.VisitResult {
		if child.Kind() != cxx.CursorCXXBaseSpecifier {
			return cxx.VisitContinue
		}
		c, why := r.findBoundBase(child, depth+1)
		if c != nil {
			found = c
			return cxx.VisitBreak
		}
		if why == MissBaseDepthExceeded {
			reason = why
			return cxx.VisitBreak
		}
		return cxx.VisitContinue
	})
	if found != nil {
		return found, ""
	}
	return nil, reason
}

func isClass(c cxx.Cursor) bool {
	if cxx.IsNull(c) {
		return false
	}
	k := c.Kind()
	return k == cxx.CursorClassDecl || k == cxx.CursorStructDecl
}

// pointeeOf returns the canonical declaration of the type t points or refers to.
func pointeeOf(t cxx.Type) cxx.Cursor {
	p := t.Canonical().Pointee()
	if p == nil {
		return nil
	}
	return canonicalDecl(p.Canonical())
}

// declOf returns the canonical declaration of t.
func declOf(t cxx.Type) cxx.Cursor {
	return canonicalDecl(t.Canonical())
}

func canonicalDecl(t cxx.Type) cxx.Cursor {
	d := t.Declaration()
	if cxx.IsNull(d) {
		return nil
	}
	d = d.Canonical()
	if cxx.IsNull(d) {
		return nil
	}
	return d
}
