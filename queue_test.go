// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peerq_test

import (
	"testing"

	"code.hybscloud.com/peerq"
)

// TestQueueUnicastOrdering checks that peek always returns the minimum
// queued node, that its timestamp is even, and that distinct senders
// committed in order never collide on the same key.
func TestQueueUnicastOrdering(t *testing.T) {
	q := peerq.NewQueue()

	a := peerq.NewNode(peerq.NodeMessage, 1)
	b := peerq.NewNode(peerq.NodeMessage, 2)
	c := peerq.NewNode(peerq.NodeMessage, 3)

	peerq.Unicast(q, a)
	peerq.Unicast(q, b)
	peerq.Unicast(q, c)

	for i, want := range []*peerq.Node{a, b, c} {
		got, cont := q.Peek()
		if got != want {
			t.Fatalf("peek %d: got node for sender %d, want sender %d", i, got.Sender(), want.Sender())
		}
		if got.Timestamp()&1 != 0 {
			t.Fatalf("peek %d: timestamp %d is odd, want even", i, got.Timestamp())
		}
		wantCont := i < 2
		if cont != wantCont {
			t.Fatalf("peek %d: cont = %v, want %v", i, cont, wantCont)
		}
		q.Remove(got)
	}

	if q.Readable() {
		t.Fatal("queue still readable after removing every node")
	}
	if got, cont := q.Peek(); got != nil || cont {
		t.Fatalf("peek on empty queue = (%v, %v), want (nil, false)", got, cont)
	}
}

// TestQueueClockMonotonic checks that the queue's clock never decreases,
// across both Tick and Sync, and that Sync with an older value is a
// no-op.
func TestQueueClockMonotonic(t *testing.T) {
	q := peerq.NewQueue()

	prev := q.Tick()
	for range 10 {
		cur := q.Tick()
		if cur <= prev {
			t.Fatalf("Tick() produced %d after %d, not monotonically increasing", cur, prev)
		}
		prev = cur
	}

	q.Sync(prev + 100)
	if got := q.Tick(); got <= prev+100 {
		t.Fatalf("Tick() after Sync() produced %d, want > %d", got, prev+100)
	}

	// Sync with an older value is a no-op.
	before := q.Tick()
	q.Sync(2) // far smaller than the current clock
	after := q.Tick()
	if after <= before {
		t.Fatalf("clock did not advance across a no-op Sync: before=%d after=%d", before, after)
	}
}

// TestQueueStageCommitReorders checks that staging a node followed by
// committing it at a larger even timestamp leaves it queued at that
// commit timestamp, and that a queue with only a staging entry is not
// readable until it commits.
func TestQueueStageCommitReorders(t *testing.T) {
	q := peerq.NewQueue()
	n := peerq.NewNode(peerq.NodeMessage, 7)

	staged := q.Stage(n, 0)
	if staged&1 != 1 {
		t.Fatalf("Stage() returned even timestamp %d, want odd", staged)
	}
	if q.Readable() {
		t.Fatal("queue readable while its only entry is staging")
	}

	commitTS := staged + 1
	q.CommitStaged(n, commitTS)

	if n.Timestamp() != commitTS {
		t.Fatalf("node timestamp = %d after commit, want %d", n.Timestamp(), commitTS)
	}
	if !q.Readable() {
		t.Fatal("queue not readable after its only staged entry committed")
	}
}

// TestQueueRemoveUnqueuedIsNoop checks that removing a node that was
// never queued is a no-op and does not report a readable transition.
func TestQueueRemoveUnqueuedIsNoop(t *testing.T) {
	q := peerq.NewQueue()
	n := peerq.NewNode(peerq.NodeMessage, 1)

	if woke := q.Remove(n); woke {
		t.Fatal("Remove() on a never-queued node reported a readable transition")
	}
}

// TestQueueTieBreakBySender covers the sender tie-break rule: two nodes
// committed at the same timestamp order by ascending sender tag.
func TestQueueTieBreakBySender(t *testing.T) {
	q := peerq.NewQueue()

	hi := peerq.NewNode(peerq.NodeMessage, 200)
	lo := peerq.NewNode(peerq.NodeMessage, 100)

	// Stage both, then commit both at the same shared timestamp, as a
	// Transaction would for two destinations racing on tie-break order.
	tHi := q.Stage(hi, 0)
	tLo := q.Stage(lo, 0)
	commitTS := tHi + 1
	if tLo+1 > commitTS {
		commitTS = tLo + 1
	}
	if commitTS&1 == 1 {
		commitTS++
	}

	q.CommitStaged(hi, commitTS)
	q.CommitStaged(lo, commitTS)

	first, _ := q.Peek()
	if first != lo {
		t.Fatalf("peek returned sender %d first, want the lower sender %d to win the tie", first.Sender(), lo.Sender())
	}
}

// TestQueueBoundaryTimestamps covers the boundary case: the lowest
// timestamp a fresh queue hands out (2) and the maximum even 62-bit
// value both respect ordering.
func TestQueueBoundaryTimestamps(t *testing.T) {
	q := peerq.NewQueue()

	const maxTS = (uint64(1) << 62) - 2 // largest representable even value

	zero := peerq.NewNode(peerq.NodeMessage, 1)
	max := peerq.NewNode(peerq.NodeMessage, 1)

	peerq.Unicast(q, zero) // ts = 2, the first even tick from a fresh clock
	q.Stage(max, maxTS-2)  // hint fast-forwards the clock to maxTS-2, then ticks to maxTS
	q.CommitStaged(max, maxTS)

	first, cont := q.Peek()
	if first != zero {
		t.Fatal("peek did not return the earlier-ticked node first")
	}
	if !cont {
		t.Fatal("peek reported cont=false with a second ready entry present")
	}
	q.Remove(first)

	second, _ := q.Peek()
	if second != max {
		t.Fatal("peek did not return the maximum-timestamp node second")
	}
}

// TestQueueFlush covers Flush draining every node regardless of staging
// state, leaving the queue empty and unreadable.
func TestQueueFlush(t *testing.T) {
	q := peerq.NewQueue(peerq.WithCapacityHint(4))

	committed := peerq.NewNode(peerq.NodeMessage, 1)
	staging := peerq.NewNode(peerq.NodeMessage, 2)

	peerq.Unicast(q, committed)
	q.Stage(staging, 0)

	var out []*peerq.Node
	q.Flush(&out)

	if len(out) != 2 {
		t.Fatalf("Flush() produced %d nodes, want 2", len(out))
	}
	if q.Readable() {
		t.Fatal("queue readable after Flush()")
	}
	for _, n := range out {
		if n.IsQueued() {
			t.Fatal("flushed node still reports IsQueued()")
		}
	}
}
