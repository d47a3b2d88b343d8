// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peerq

import (
	"code.hybscloud.com/atomix"

	"code.hybscloud.com/peerq/internal/orderedset"
)

// NodeType identifies what a [Node] carries. It is immutable for the
// node's entire lifetime.
type NodeType uint8

const (
	// NodeMessage is an ordinary multicast message.
	NodeMessage NodeType = iota
	// NodeHandleDestruction signals a handle was destroyed.
	NodeHandleDestruction
	// NodeHandleRelease signals a handle was released.
	NodeHandleRelease
)

// nodeTypeShift/nodeTimestampMask mirror the original wire packing: a 62-bit
// timestamp plus a 2-bit type tag in a single 64-bit word. This module
// keeps the type and timestamp as separate Go fields (there is no memory
// pressure here forcing the packing), but exposes the packed form via
// [Node.TimestampAndType] for any external consumer that needs the
// original layout.
const (
	nodeTypeShift = 62
	nodeTimestampMask = (uint64(1) << nodeTypeShift) - 1
)

// linkLocation records whether a Node currently has tree linkage into a
// Queue's ordered set. The original design overlaid tree-link, list-link,
// and deferred-reclamation storage in one union, since manual memory
// management needs that linkage state to double as intrusive list
// storage when a node is moved off-queue. Go doesn't need the union: a
// []*Node slice (see [Queue.Flush]) already is "a disjoint allocation
// managed by the owning subsystem" for the off-queue case, so a node is
// simply queued or not.
type linkLocation uint8

const (
	linkNone linkLocation = iota
	linkQueue
)

// Node is a single entry in a [Queue]: a type tag, a sender tag, and a
// timestamp that moves from an odd staging value to a larger even commit
// value over the node's lifetime.
//
// A Node is queued iff its queue linkage is attached; it is staging iff
// queued with an odd timestamp. Node is not safe for concurrent mutation
// of its timestamp/linkage fields without the owning Queue's lock; its
// reference count is the exception, and is safe to touch from any
// goroutine.
type Node struct {
	typ    NodeType
	sender uintptr

	ts uint64 // low bits only; valid once queued, meaningless before

	refs atomix.Int32 // at least one owner: the queue, or a pinning transaction

	loc       linkLocation
	heapIndex int // orderedset.Element bookkeeping while loc == linkQueue
}

// NewNode allocates and initializes a node of the given type, tagged with
// sender. The initial reference count is 1.
func NewNode(typ NodeType, sender uintptr) *Node {
	n := &Node{typ: typ, sender: sender, loc: linkNone, heapIndex: -1}
	n.refs.StoreRelaxed(1)
	return n
}

// Deinit is a diagnostics-only check that n was properly unqueued and
// has no outstanding references before it is discarded. It performs no
// cleanup of its own.
func (n *Node) Deinit() {
	debugAssert(n.loc == linkNone, "node deinit while still linked")
	debugAssert(n.refs.LoadAcquire() <= 0, "node deinit with outstanding references")
}

// Type returns the node's immutable type tag.
func (n *Node) Type() NodeType {
	return n.typ
}

// Sender returns the node's sender tag.
func (n *Node) Sender() uintptr {
	return n.sender
}

// Timestamp returns the node's current timestamp. The caller must hold
// the owning queue's lock, or otherwise know the node cannot be
// concurrently staged/committed (e.g. it owns the only reference).
func (n *Node) Timestamp() uint64 {
	return n.ts
}

// TimestampAndType packs the current timestamp and type tag into a
// single 64-bit word, in the same layout the wire protocol this module
// was distilled from used: type in the top 2 bits, timestamp in the
// low 62.
func (n *Node) TimestampAndType() uint64 {
	return (n.ts & nodeTimestampMask) | (uint64(n.typ) << nodeTypeShift)
}

// IsQueued reports whether the node currently has tree linkage into a
// Queue's ordered set.
func (n *Node) IsQueued() bool {
	return n.loc == linkQueue
}

// IsStaging reports whether the node is queued with an odd (in-flight)
// timestamp.
func (n *Node) IsStaging() bool {
	return n.loc == linkQueue && n.ts&1 == 1
}

// Ref acquires an additional reference to n.
func (n *Node) Ref() {
	n.refs.AddAcqRel(1)
}

// Unref releases a reference to n, reporting whether the count reached
// zero (the caller holding the last reference is responsible for
// reclaiming n).
func (n *Node) Unref() bool {
	return n.refs.AddAcqRel(-1) == 0
}

// --- orderedset.Element ---

// Key implements orderedset.Element.
func (n *Node) Key() orderedset.Key {
	return orderedset.Key{Timestamp: n.ts, Sender: n.sender}
}

// Index implements orderedset.Element.
func (n *Node) Index() int {
	return n.heapIndex
}

// SetIndex implements orderedset.Element.
func (n *Node) SetIndex(i int) {
	n.heapIndex = i
}
