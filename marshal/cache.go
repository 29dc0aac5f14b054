package marshal

import (
	"github.com/emirpasic/gods/maps/treemap"
)

// Cache holds at most one strategy per (variant, id), so repeated
// resolutions of the same type return the same instance.
// Not safe for concurrent use.
type Cache struct {
	entries *treemap.Map // cacheKey -> Strategy
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: treemap.NewWithStringComparator()}
}

// cacheKey orders entries by variant name, then sub-kind, then id.
func cacheKey(v Variant, sub, id string) string {
	return v.String() + "\x00" + sub + "\x00" + id
}

// obtain returns the cached strategy for key or stores the one built by build.
func (c *Cache) obtain(key string, build func() Strategy) Strategy {
	if s, ok := c.entries.Get(key); ok {
		return s.(Strategy)
	}
	s := build()
	c.entries.Put(key, s)
	return s
}

// Instances returns the cached strategies of variant v ordered by key.
func (c *Cache) Instances(v Variant) []Strategy {
	var out []Strategy
	it := c.entries.Iterator()
	for it.Next() {
		if s := it.Value().(Strategy); s.Variant() == v {
			out = append(out, s)
		}
	}
	return out
}

// Counts returns the number of cached strategies per variant.
func (c *Cache) Counts() map[Variant]int {
	out := make(map[Variant]int)
	it := c.entries.Iterator()
	for it.Next() {
		out[it.Value().(Strategy).Variant()]++
	}
	return out
}

// Len returns the number of cached strategies.
func (c *Cache) Len() int {
	return c.entries.Size()
}
