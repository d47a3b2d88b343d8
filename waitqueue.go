// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peerq

import "sync"

// WaitQueue is the wait/notify primitive [ActiveRef.Drain] and
// [ActiveRef.Release] are built on: a goroutine can wait for a predicate
// over externally-synchronized state to become true, and wake one or all
// waiters once it has.
//
// It is the direct analogue of the kernel's wait_queue_head_t, built on
// the standard library's sync.Cond — no condition-variable package
// appears anywhere in this module's reference corpus, so this is the
// one other place (besides [internal/orderedset]) the module falls back
// to the standard library rather than a third-party dependency.
type WaitQueue struct {
	mu   sync.Mutex
	cond sync.Cond
	once sync.Once
}

func (w *WaitQueue) init() {
	w.once.Do(func() { w.cond.L = &w.mu })
}

// WaitUntil blocks until cond returns true, re-checking every time the
// queue is woken. cond is evaluated with WaitQueue's internal mutex
// held, which orders it against WakeOne/WakeAll; that mutex does not
// guard the caller's own state, so a predicate that reads shared state
// synchronizes it on its own (typically via an atomic load), exactly as
// [ActiveRef] does for its counter.
func (w *WaitQueue) WaitUntil(cond func() bool) {
	w.init()
	w.mu.Lock()
	defer w.mu.Unlock()
	for !cond() {
		w.cond.Wait()
	}
}

// WakeOne wakes at most one waiter blocked in WaitUntil.
func (w *WaitQueue) WakeOne() {
	w.init()
	w.mu.Lock()
	w.cond.Signal()
	w.mu.Unlock()
}

// WakeAll wakes every waiter blocked in WaitUntil.
func (w *WaitQueue) WakeAll() {
	w.init()
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}
