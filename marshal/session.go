package marshal

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/kharon/cxx"
)

// Session owns one registry, one strategy cache and the resolver over them.
// All methods are safe for concurrent use; a single lock serializes them.
type Session struct {
	registry *Registry
	cache    *Cache
	resolver *Resolver
	log      *zap.Logger
	id       string
	mu       sync.Mutex
}

// NewSession creates a session with its own registry and cache.
func NewSession(opts Options) *Session {
	opts = opts.withDefaults()
	id := uuid.NewString()
	opts.Logger = opts.Logger.With(zap.String("session", id))

	registry := NewRegistry()
	cache := NewCache()
	return &Session{
		id:       id,
		registry: registry,
		cache:    cache,
		resolver: NewResolver(registry, cache, opts),
		log:      opts.Logger,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// RegisterClass binds id to a class strategy.
func (s *Session) RegisterClass(id string, desc ClassDescriptor) (*ClassStrategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.registry.Register(id, desc)
	if err != nil {
		return nil, err
	}
	s.log.Debug("bound class", zap.String("id", id), zap.String("class", c.CXXName()))
	return c, nil
}

// RegisterDecl binds a class declaration under its USR.
func (s *Session) RegisterDecl(decl cxx.Cursor) (*ClassStrategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.registry.RegisterDecl(decl)
	if err != nil {
		return nil, err
	}
	s.log.Debug("bound class", zap.String("id", c.ID()), zap.String("class", c.CXXName()))
	return c, nil
}

// Resolve returns the strategy for t in direction dir, or false on a miss.
func (s *Session) Resolve(t cxx.Type, dir Direction, param cxx.Cursor) (Strategy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Resolve(t, dir, param)
}

// Explain returns the strategy for t, or the reason it has none.
func (s *Session) Explain(t cxx.Type, dir Direction, param cxx.Cursor) (Strategy, MissReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Explain(t, dir, param)
}

// Classes returns the bound classes ordered by id.
func (s *Session) Classes() []*ClassStrategy {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.registry.IDs()
	out := make([]*ClassStrategy, 0, len(ids))
	for _, id := range ids {
		c, _ := s.registry.Lookup(id)
		out = append(out, c)
	}
	return out
}

// Instances returns the cached strategies of variant v.
func (s *Session) Instances(v Variant) []Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Instances(v)
}

// Stats returns the resolution counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Stats()
}

// Snapshot is a point-in-time summary of a session.
type Snapshot struct {
	Instances map[Variant]int
	Stats     Stats
	ID        string
	Bound     int
}

// Variants returns the variants present in the snapshot, in declaration order.
func (sn Snapshot) Variants() []Variant {
	var out []Variant
	for v := range sn.Instances {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns the counters, bound class count and cached instance counts.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		Bound:     s.registry.Len(),
		Stats:     s.resolver.Stats(),
		Instances: s.cache.Counts(),
	}
}
