// Package trie implements a compressed trie keyed by sequences of segments.
//
// Sibling edges never share a first segment: insertion splits an edge at the
// longest common prefix before branching, so a lookup follows at most one edge
// per node. Values are attached to nodes reached by a complete insertion path.
//
// A Trie is not safe for concurrent use.
package trie

import (
	"fmt"
	"strings"

	"github.com/wippyai/kharon/errors"
)

// Trie is a compressed trie mapping segment paths to values.
type Trie[S comparable, V any] struct {
	root *Node[S, V]
	size int
}

// Node holds an optional value and the ordered outgoing edges.
type Node[S comparable, V any] struct {
	value    V
	hasValue bool
	edges    []*Edge[S, V]
}

// Edge carries a non-empty run of segments to a child node.
type Edge[S comparable, V any] struct {
	segs []S
	node *Node[S, V]
}

// New creates an empty trie.
func New[S comparable, V any]() *Trie[S, V] {
	return &Trie[S, V]{root: &Node[S, V]{}}
}

// Root returns the root node.
func (t *Trie[S, V]) Root() *Node[S, V] {
	return t.root
}

// Len returns the number of stored values.
func (t *Trie[S, V]) Len() int {
	return t.size
}

// Insert stores value at path.
// Insert fails with KindDuplicateKey when path already holds a value.
func (t *Trie[S, V]) Insert(path []S, value V) error {
	if _, ok := t.Lookup(path); ok {
		return errors.DuplicateKey(errors.PhaseTrie, segStrings(path), joinSegs(path, "/"))
	}
	if err := t.root.insert(path, path, value); err != nil {
		return err
	}
	t.size++
	return nil
}

func (n *Node[S, V]) insert(full, rest []S, value V) error {
	for len(rest) > 0 {
		var next *Node[S, V]
		for _, e := range n.edges {
			p := prefixLen(e.segs, rest)
			if p == 0 {
				continue
			}
			child, err := e.split(p)
			if err != nil {
				return err
			}
			next = child
			rest = rest[p:]
			break
		}
		if next == nil {
			n.edges = append(n.edges, &Edge[S, V]{
				segs: append([]S(nil), rest...),
				node: &Node[S, V]{value: value, hasValue: true},
			})
			return nil
		}
		n = next
	}

	if n.hasValue {
		return errors.Invariant(errors.PhaseTrie, segStrings(full), "value slot already occupied")
	}
	n.value = value
	n.hasValue = true
	return nil
}

// split cuts the edge after l segments and returns the node at the cut.
func (e *Edge[S, V]) split(l int) (*Node[S, V], error) {
	if l <= 0 || l > len(e.segs) {
		return nil, errors.New(errors.PhaseTrie, errors.KindInvariant).
			Path(segStrings(e.segs)...).
			Detail("split at %d of %d segments", l, len(e.segs)).
			Build()
	}
	if l == len(e.segs) {
		return e.node, nil
	}

	suffix := append([]S(nil), e.segs[l:]...)
	mid := &Node[S, V]{
		edges: []*Edge[S, V]{{segs: suffix, node: e.node}},
	}
	e.segs = e.segs[:l:l]
	e.node = mid
	return mid, nil
}

// Lookup returns the value stored at exactly path.
func (t *Trie[S, V]) Lookup(path []S) (V, bool) {
	n := t.root.find(path)
	if n == nil || !n.hasValue {
		var zero V
		return zero, false
	}
	return n.value, true
}

func (n *Node[S, V]) find(path []S) *Node[S, V] {
	for len(path) > 0 {
		e := n.edgeFor(path[0])
		if e == nil || prefixLen(e.segs, path) != len(e.segs) {
			return nil
		}
		path = path[len(e.segs):]
		n = e.node
	}
	return n
}

func (n *Node[S, V]) edgeFor(first S) *Edge[S, V] {
	for _, e := range n.edges {
		if e.segs[0] == first {
			return e
		}
	}
	return nil
}

// LongestPrefix returns the longest prefix of path that holds a value.
func (t *Trie[S, V]) LongestPrefix(path []S) ([]S, V, bool) {
	var (
		best     V
		bestLen  = -1
		consumed int
	)

	n := t.root
	for {
		if n.hasValue {
			best = n.value
			bestLen = consumed
		}
		if consumed == len(path) {
			break
		}
		e := n.edgeFor(path[consumed])
		if e == nil || prefixLen(e.segs, path[consumed:]) != len(e.segs) {
			break
		}
		consumed += len(e.segs)
		n = e.node
	}

	if bestLen < 0 {
		var zero V
		return nil, zero, false
	}
	return path[:bestLen:bestLen], best, true
}

// Walk visits stored values depth-first in edge storage order.
// Returning false from fn stops the walk.
func (t *Trie[S, V]) Walk(fn func(path []S, value V) bool) {
	t.root.walk(nil, fn)
}

func (n *Node[S, V]) walk(prefix []S, fn func([]S, V) bool) bool {
	if n.hasValue && !fn(append([]S(nil), prefix...), n.value) {
		return false
	}
	for _, e := range n.edges {
		if !e.node.walk(append(prefix[:len(prefix):len(prefix)], e.segs...), fn) {
			return false
		}
	}
	return true
}

// CheckInvariants verifies that no two sibling edges share a first segment
// and that every edge carries at least one segment.
func (t *Trie[S, V]) CheckInvariants() error {
	return t.root.check(nil)
}

func (n *Node[S, V]) check(prefix []S) error {
	seen := make(map[S]struct{}, len(n.edges))
	for _, e := range n.edges {
		if len(e.segs) == 0 {
			return errors.Invariant(errors.PhaseTrie, segStrings(prefix), "empty edge")
		}
		if _, dup := seen[e.segs[0]]; dup {
			return errors.Invariant(errors.PhaseTrie, segStrings(prefix),
				fmt.Sprintf("sibling edges share segment %v", e.segs[0]))
		}
		seen[e.segs[0]] = struct{}{}
		if err := e.node.check(append(prefix[:len(prefix):len(prefix)], e.segs...)); err != nil {
			return err
		}
	}
	return nil
}

// Render returns an indented dump of the tree.
func (t *Trie[S, V]) Render() string {
	var b strings.Builder
	t.root.render(&b, "")
	return b.String()
}

// String implements fmt.Stringer.
func (t *Trie[S, V]) String() string {
	return t.Render()
}

func (n *Node[S, V]) render(b *strings.Builder, indent string) {
	b.WriteString(indent)
	b.WriteByte('{')
	if n.hasValue {
		fmt.Fprint(b, n.value)
	}
	b.WriteString("}\n")
	for _, e := range n.edges {
		b.WriteString(indent)
		b.WriteByte('[')
		b.WriteString(joinSegs(e.segs, ", "))
		b.WriteString("] ->\n")
		e.node.render(b, indent+"  ")
	}
}

// Value returns the node value, if any.
func (n *Node[S, V]) Value() (V, bool) {
	return n.value, n.hasValue
}

// Edges returns a copy of the outgoing edges in storage order.
func (n *Node[S, V]) Edges() []*Edge[S, V] {
	return append([]*Edge[S, V](nil), n.edges...)
}

// Segments returns a copy of the segments carried by the edge.
func (e *Edge[S, V]) Segments() []S {
	return append([]S(nil), e.segs...)
}

// Node returns the edge target.
func (e *Edge[S, V]) Node() *Node[S, V] {
	return e.node
}

func prefixLen[S comparable](a, b []S) int {
	l := min(len(a), len(b))
	for i := 0; i < l; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return l
}

func segStrings[S comparable](segs []S) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = fmt.Sprint(s)
	}
	return out
}

func joinSegs[S comparable](segs []S, sep string) string {
	return strings.Join(segStrings(segs), sep)
}
