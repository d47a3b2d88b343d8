// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package orderedset provides a balanced ordered set keyed by
// (timestamp, sender), with O(log n) insert/remove and O(1) access to
// the minimum element.
//
// It is the one place in this module that falls back to the standard
// library instead of an ecosystem dependency: no package in this
// module's reference corpus provides a red-black tree, B-tree, or
// skip-list type. container/heap's documented pattern — an index field
// on the element, updated on every swap, so an arbitrary element can be
// removed in O(log n) via heap.Remove — is the idiomatic Go answer to
// "priority queue with fast arbitrary removal", and is exactly what
// this package wraps.
package orderedset

import "container/heap"

// Key is the ordering key: timestamp first, sender tag as tie-break.
type Key struct {
	Timestamp uint64
	Sender    uintptr
}

// Less reports whether a orders strictly before b.
func (a Key) Less(b Key) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.Sender < b.Sender
}

// Element is anything that can be stored in a [Set]. Implementations
// must persist the index given to SetIndex so Index can report it back;
// Set uses it to support O(log n) removal of an arbitrary element.
type Element interface {
	Key() Key
	Index() int
	SetIndex(i int)
}

// Set is a binary min-heap over Key, ordered ascending. It is not safe
// for concurrent use: callers serialize access externally (the owning
// Queue's mutex).
type Set struct {
	items []Element
}

// New returns an empty Set.
func New() *Set {
	return &Set{}
}

// NewWithCapacity returns an empty Set whose backing slice is
// preallocated for roughly n elements.
func NewWithCapacity(n int) *Set {
	if n < 0 {
		n = 0
	}
	return &Set{items: make([]Element, 0, n)}
}

// Len returns the number of elements currently in the set.
func (s *Set) Len() int {
	return len(s.items)
}

// Less implements heap.Interface.
func (s *Set) Less(i, j int) bool {
	return s.items[i].Key().Less(s.items[j].Key())
}

// Swap implements heap.Interface.
func (s *Set) Swap(i, j int) {
	s.items[i], s.items[j] = s.items[j], s.items[i]
	s.items[i].SetIndex(i)
	s.items[j].SetIndex(j)
}

// Push implements heap.Interface. Use [Set.Insert], not this directly.
func (s *Set) Push(x any) {
	e := x.(Element)
	e.SetIndex(len(s.items))
	s.items = append(s.items, e)
}

// Pop implements heap.Interface. Use [Set.Remove], not this directly.
func (s *Set) Pop() any {
	old := s.items
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	s.items = old[:n-1]
	e.SetIndex(-1)
	return e
}

// Insert adds e to the set. O(log n).
func (s *Set) Insert(e Element) {
	heap.Push(s, e)
}

// Remove removes e from the set. O(log n). A no-op if e is not currently
// in this set (its recorded index is stale or out of range).
func (s *Set) Remove(e Element) {
	idx := e.Index()
	if idx < 0 || idx >= len(s.items) || s.items[idx] != e {
		return
	}
	heap.Remove(s, idx)
	e.SetIndex(-1)
}

// Min returns the minimum element without removing it, and whether the
// set is non-empty. O(1).
func (s *Set) Min() (Element, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	return s.items[0], true
}

// SecondMin returns what would become the minimum element if the
// current minimum were removed, without mutating the set, and whether
// one exists. O(1).
//
// This relies on the heap invariant: the second-smallest element of a
// binary min-heap is always one of the root's two children, since every
// other element is a descendant of one of those children and therefore
// ordered at or after it.
func (s *Set) SecondMin() (Element, bool) {
	switch len(s.items) {
	case 0, 1:
		return nil, false
	case 2:
		return s.items[1], true
	default:
		a, b := s.items[1], s.items[2]
		if a.Key().Less(b.Key()) {
			return a, true
		}
		return b, true
	}
}
