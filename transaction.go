// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peerq

// Transaction coordinates a multicast send across multiple destination
// queues: it stages a node on each destination, picks the maximum
// staging timestamp observed, then commits every destination at that
// shared commit timestamp. Committing every destination at one shared,
// higher timestamp is what keeps delivery order consistent across
// destinations without any global lock — see the package doc for the
// ordering guarantee this produces.
//
// A Transaction is single-use: call [Transaction.Stage] for every
// destination, then exactly one of [Transaction.Commit] or
// [Transaction.Abort].
type Transaction struct {
	sender  uintptr
	staged  []stagedEntry
	maxSeen uint64
}

type stagedEntry struct {
	queue *Queue
	node  *Node
}

// NewTransaction starts a multicast transaction from sender. sender must
// be the same tag used to construct every [Node] staged through it: it
// is what makes tie-breaking on equal commit timestamps stable across
// peers (see [Queue] doc).
func NewTransaction(sender uintptr) *Transaction {
	return &Transaction{sender: sender}
}

// Stage places node on q as an in-flight entry and records q/node as
// part of this transaction. node's sender tag must match the sender this
// Transaction was created with. Returns the odd staging timestamp q
// assigned, same as [Queue.Stage].
//
// The destinations may be staged in any order. Each call holds no lock
// but the destination queue's own brief internal critical section, so
// staging never blocks on another destination. The Transaction's own
// bookkeeping is not synchronized: concurrent Stage calls on the same
// Transaction race with each other.
func (t *Transaction) Stage(q *Queue, node *Node) uint64 {
	debugAssert(node.Sender() == t.sender, "staged node sender does not match transaction sender")

	ts := q.Stage(node, 0)
	t.staged = append(t.staged, stagedEntry{queue: q, node: node})
	if ts > t.maxSeen {
		t.maxSeen = ts
	}
	return ts
}

// Commit selects the shared commit timestamp (the next even number
// strictly greater than the highest staging timestamp observed across
// every destination), then re-keys every staged node to it. Returns the
// commit timestamp and the subset of destination queues that transitioned
// from non-readable to readable as a result — the caller wakes consumers
// blocked on those queues' [WaitQueue].
//
// Commit is a no-op, returning (0, nil), if nothing was staged.
func (t *Transaction) Commit() (commitTS uint64, woken []*Queue) {
	if len(t.staged) == 0 {
		return 0, nil
	}

	// maxSeen is always odd (a staging timestamp); the next even number
	// strictly above it is exactly maxSeen + 1.
	commitTS = t.maxSeen + 1
	if commitTS&1 == 1 {
		commitTS++
	}

	for _, e := range t.staged {
		if e.queue.CommitStaged(e.node, commitTS) {
			woken = append(woken, e.queue)
		}
	}

	t.staged = nil
	return commitTS, woken
}

// Abort removes every staged node from its destination queue. No
// destination ever saw a ready entry from this transaction (staging
// entries are never readable — see [Queue.Stage]), so no additional
// peer notification is needed beyond the removal itself.
func (t *Transaction) Abort() {
	for _, e := range t.staged {
		e.queue.Remove(e.node)
	}
	t.staged = nil
}

// Unicast is the single-destination multicast fast path: it commits node
// on q directly, with no staging phase at all. Returns whether q
// transitioned from non-readable to readable.
func Unicast(q *Queue, node *Node) bool {
	return q.CommitUnstaged(node)
}
