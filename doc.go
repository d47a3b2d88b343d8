// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package peerq implements the two hardest primitives of a
// capability-based interprocess messaging subsystem: a reference-counted
// object lifecycle gate ([ActiveRef]), and a per-peer ordered multicast
// message queue ([Queue]) whose ordering guarantee holds across peers
// without any global lock.
//
// # ActiveRef
//
// ActiveRef gates use of an externally addressable object across
// concurrent acquire/release and owner-driven teardown:
//
//	var ref peerq.ActiveRef
//	ref.Init()
//	ref.Activate()
//
//	if ref.Acquire() {
//	    defer ref.Release(waitq)
//	    // use the object
//	}
//
//	// teardown, from the owner:
//	ref.Deactivate()
//	ref.Drain(waitq, func() {
//	    // one-shot cleanup; runs exactly once
//	})
//
// # Queue
//
// Queue orders [Node] entries by a distributed Lamport clock plus sender
// tag, so that multicast delivery order is consistent across every
// destination queue without a global lock. A [Transaction] coordinates
// the stage/commit protocol across multiple destinations:
//
//	a, b := peerq.NewQueue(), peerq.NewQueue()
//	n1, n2 := peerq.NewNode(peerq.NodeMessage, senderTag), peerq.NewNode(peerq.NodeMessage, senderTag)
//
//	tx := peerq.NewTransaction(senderTag)
//	tx.Stage(a, n1)
//	tx.Stage(b, n2)
//	_, woken := tx.Commit() // queues that transitioned to readable
//
//	for range woken {
//	    waitq.WakeAll()
//	}
//
//	node, more := a.Peek()
//
// Single-destination sends skip staging entirely:
//
//	peerq.Unicast(a, peerq.NewNode(peerq.NodeMessage, senderTag))
//
// # Ordering guarantee
//
// Given any two dequeued messages A and B, Queue guarantees:
//
//  1. If B was queued after A was queued (any synchronization edge, not
//     just same-thread program order), then A orders before B.
//  2. If B was queued after A was dequeued, then A orders before B.
//  3. If B was dequeued after A on the same queue, then A orders before B.
//
// This is a partial order, not a total order: unrelated peers that never
// synchronize may observe messages in either relative order. See
// [Transaction] and [Queue.Stage] for how the odd/even timestamp
// discipline produces this guarantee without a global lock.
//
// # What is out of scope
//
// The user-facing device file, the command dispatcher, the shared-memory
// payload pool, node/handle object tables, and all operating-system
// registration glue are external collaborators. This package assumes
// only an atomic integer/CAS primitive, a wait/notify primitive, and a
// memory allocator providing stable addresses usable as sender tags.
//
// # Concurrency
//
// [ActiveRef] state transitions are totally ordered via a single atomic
// variable. [Queue] mutations are serialized per queue via an internal
// mutex; [Queue.Readable] may be polled without that mutex using an
// acquire load on the cached front pointer — a stale read can only
// produce a false negative, never a false positive, which the dequeue
// path re-validates under the lock.
//
// # Race detector caveat
//
// Some of this package's invariants (e.g. [ActiveRef]'s wait-free
// acquire path) are established purely through atomic acquire/release
// orderings on independent variables, a pattern Go's race detector
// cannot observe. Tests that would produce known false positives under
// `-race` are skipped via [RaceEnabled]; see the package's own
// concurrency tests for the pattern.
package peerq
