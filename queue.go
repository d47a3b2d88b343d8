// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peerq

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/peerq/internal/orderedset"
)

// QueueOption configures a [Queue] at construction time.
type QueueOption func(*Queue)

// WithCapacityHint preallocates a Queue's backing ordered set for
// roughly n simultaneously queued nodes. Purely a performance hint, the
// idiomatic single-knob analogue of a fuller Builder/Options pattern:
// this module has exactly one construction-time choice, so a fluent
// builder would be ceremony without payoff.
func WithCapacityHint(n int) QueueOption {
	return func(q *Queue) {
		q.messages = orderedset.NewWithCapacity(n)
	}
}

// Queue is a per-peer ordered container of [Node] entries, keyed by
// (timestamp, sender). Nodes enter as staging (odd timestamp) during an
// in-flight multicast transaction, then are committed (even timestamp)
// once the transaction's commit timestamp is agreed. See the package doc
// for the cross-queue ordering guarantee this produces without a global
// lock.
//
// The zero value is not ready to use; call [NewQueue].
type Queue struct {
	mu       sync.Mutex
	clock    uint64 // local Lamport clock; always even between operations
	messages *orderedset.Set

	// front caches the minimum-keyed node, but only when that minimum is
	// ready (even timestamp): see readableLocked. Published with release
	// semantics on every locked mutation, so Readable can poll it
	// lock-free; a stale read can only produce a false negative, which
	// the locked Peek path re-validates.
	front atomic.Pointer[Node]
}

// NewQueue returns an empty, ready-to-use Queue.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{messages: orderedset.New()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Deinit is a diagnostics-only check that q was flushed (or never used)
// before being discarded.
func (q *Queue) Deinit() {
	q.mu.Lock()
	defer q.mu.Unlock()
	debugAssert(q.messages.Len() == 0, "queue deinit with nodes still queued")
}

// Tick advances the local clock by a full interval (+2) and returns the
// new (even) value. The caller may use both this value and its odd
// predecessor (the returned value minus one); both are uniquely
// allocated to this call.
func (q *Queue) Tick() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tickLocked()
}

func (q *Queue) tickLocked() uint64 {
	q.clock += 2
	return q.clock
}

// Sync fast-forwards the local clock to timestamp if timestamp is newer.
// timestamp must be even; it is always idempotent.
func (q *Queue) Sync(timestamp uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.syncLocked(timestamp)
}

func (q *Queue) syncLocked(timestamp uint64) {
	debugAssert(timestamp&1 == 0, "sync with an odd timestamp")
	if timestamp > q.clock {
		q.clock = timestamp
	}
}

// Readable reports whether the queue currently has a ready entry at its
// front. Safe to call without any lock: it is an acquire load of the
// cached front pointer.
func (q *Queue) Readable() bool {
	return q.front.Load() != nil
}

// Stage places node as an in-flight (odd-timestamped) entry, as part of
// a multicast transaction coordinated by [Transaction]. hint, if even and
// ahead of this queue's clock, fast-forwards the clock before ticking —
// e.g. a commit timestamp this destination already knows about from an
// unrelated earlier transaction. It is purely a performance hint with no
// effect on correctness (tie-breaking by sender handles any residual
// collisions, and the clock-always-even-at-rest invariant forbids
// applying an odd hint), and may be 0 if there is none.
//
// Returns the odd staging timestamp assigned to node. The caller
// aggregates the maximum of these across every destination before
// calling [Queue.CommitStaged] on each with the shared commit timestamp.
func (q *Queue) Stage(node *Node, hint uint64) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	if hint&1 == 0 && hint > q.clock {
		q.clock = hint
	}
	q.tickLocked()
	odd := q.clock - 1

	node.ts = odd
	q.insertLocked(node)
	q.refreshFrontLocked()
	return odd
}

// CommitStaged re-keys a previously staged node to the even commitTS,
// and synchronizes the queue's clock to it. Returns whether the queue
// transitioned from non-readable to readable, i.e. whether the caller
// should issue a wake signal on whatever [WaitQueue] consumers block on.
func (q *Queue) CommitStaged(node *Node, commitTS uint64) bool {
	debugAssert(commitTS&1 == 0, "commit with an odd timestamp")

	q.mu.Lock()
	defer q.mu.Unlock()

	wasReadable := q.readableLocked()

	q.removeLocked(node)
	node.ts = commitTS
	q.insertLocked(node)
	q.syncLocked(commitTS)
	q.refreshFrontLocked()

	return !wasReadable && q.readableLocked()
}

// CommitUnstaged ticks the clock and inserts node directly at the new
// even timestamp, skipping the staging phase entirely. This is the
// single-destination multicast fast path. Returns whether the queue
// transitioned from non-readable to readable.
func (q *Queue) CommitUnstaged(node *Node) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	wasReadable := q.readableLocked()

	node.ts = q.tickLocked()
	q.insertLocked(node)
	q.refreshFrontLocked()

	return !wasReadable && q.readableLocked()
}

// Remove unconditionally removes node from the queue, e.g. on
// transaction abort or peer teardown. A no-op, returning false, if node
// is not currently queued. Only whether node is queued at all is
// checked, not whether it is queued on q. Returns whether the queue transitioned
// from non-readable to readable (removing a blocking staging entry can
// reveal a previously-blocked committed node).
func (q *Queue) Remove(node *Node) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !node.IsQueued() {
		return false
	}

	wasReadable := q.readableLocked()
	q.removeLocked(node)
	q.refreshFrontLocked()
	return !wasReadable && q.readableLocked()
}

// Peek returns the current ready front node without removing it, and
// whether peeking again after the caller processes this entry (normally
// by removing it) may yield another ready node without waiting for a new
// wake signal.
func (q *Queue) Peek() (node *Node, cont bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	front := q.front.Load()
	if front == nil {
		return nil, false
	}

	second, ok := q.messages.SecondMin()
	cont = ok && second.Key().Timestamp&1 == 0

	return front, cont
}

// Flush unconditionally moves every queued node onto dst for the caller
// to dispose of, leaving the queue empty and unreadable. The caller
// (typically tearing down the owning peer) must hold whatever lock
// guarantees no concurrent [Queue.Stage]/[Queue.CommitStaged] races this
// call.
func (q *Queue) Flush(dst *[]*Node) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.messages.Len() > 0 {
		min, _ := q.messages.Min()
		node := min.(*Node)
		q.removeLocked(node)
		*dst = append(*dst, node)
	}
	q.refreshFrontLocked()
}

func (q *Queue) insertLocked(node *Node) {
	node.loc = linkQueue
	q.messages.Insert(node)
}

func (q *Queue) removeLocked(node *Node) {
	q.messages.Remove(node)
	node.loc = linkNone
}

// readableLocked reports readiness using the authoritative, locked view
// of the tree rather than the cached (possibly stale-negative) front
// pointer.
func (q *Queue) readableLocked() bool {
	min, ok := q.messages.Min()
	return ok && min.Key().Timestamp&1 == 0
}

// refreshFrontLocked recomputes the cached front pointer: set to the
// minimum node iff it is ready (even timestamp), nil otherwise. Must be
// called with q.mu held, after every insert/remove.
func (q *Queue) refreshFrontLocked() {
	min, ok := q.messages.Min()
	if !ok || min.Key().Timestamp&1 == 1 {
		q.front.Store(nil)
		return
	}
	q.front.Store(min.(*Node))
}
