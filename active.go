// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peerq

import (
	"math"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Bias values track the lifecycle state of an ActiveRef. They're all
// negative. If an object is active, its counter is >= 0 and tracks
// outstanding active references. Once deactivated, activeBias is
// added: the counter is now negative but still counts outstanding
// references. Once it drops to exactly activeBias, all active references
// have been dropped. Exactly one caller moves it to activeRelease, runs
// the release callback, then stores activeDrained: every other caller
// that was draining wakes up and returns.
//
// The initial state is activeNew. If an object is deactivated without
// ever having been activated, it goes to activeReleaseDirect instead of
// activeBias, so the drainer skips waiting and knows no references were
// ever outstanding.
//
// Some architectures implement atomic subtraction as addition of the
// negation, so activeBias reserves headroom below math.MinInt32 + 5 to
// avoid overflow if multiplied by -1.
const (
	activeBias          int32 = math.MinInt32 + 5
	activeReleaseDirect int32 = activeBias - 1
	activeRelease       int32 = activeBias - 2
	activeDrained       int32 = activeBias - 3
	activeNew           int32 = activeBias - 4
)

// ActiveRef is a reference-counted lifecycle gate: callers acquire it
// before using the object it guards and release it afterward; the owner
// deactivates it to stop further acquisitions, then drains it to wait for
// every outstanding reference and run a one-shot release callback.
//
// The zero value is not ready to use; call [ActiveRef.Init] first.
// States progress monotonically: New → {Active → Draining → Release} or
// {ReleaseDirect} → Release → Drained. No state is ever revisited.
type ActiveRef struct {
	count atomix.Int32
}

// Init prepares a fresh ActiveRef in the New state: no acquisition may
// succeed until [ActiveRef.Activate] is called.
func (a *ActiveRef) Init() {
	a.count.StoreRelaxed(activeNew)
}

// Destroy is a no-op apart from the debug-build sanity check that a
// must be in the Drained state (activated-then-drained, or deactivated
// straight from New and then drained).
func (a *ActiveRef) Destroy() {
	debugAssert(a.count.LoadAcquire() == activeDrained, "destroy before drain completed")
}

// IsNew reports whether a was never activated nor deactivated.
func (a *ActiveRef) IsNew() bool {
	return a.count.LoadAcquire() == activeNew
}

// IsActive reports whether a is currently active: activated, and not yet
// deactivated. This is a point-in-time barrier, not a guarantee the state
// holds by the time the caller acts on it.
func (a *ActiveRef) IsActive() bool {
	return a.count.LoadAcquire() >= 0
}

// IsDeactivated reports whether a was already deactivated. Once true,
// this stays true forever.
func (a *ActiveRef) IsDeactivated() bool {
	v := a.count.LoadAcquire()
	return v > activeNew && v < 0
}

// Activate transitions New → Active(0). Returns true iff this call
// performed the transition; a second call observes non-New and returns
// false (the object may already be deactivated).
func (a *ActiveRef) Activate() bool {
	return a.count.CompareAndSwapAcqRel(activeNew, 0)
}

// Acquire attempts to take an active reference. It succeeds (returns
// true) iff the counter is currently non-negative, i.e. a is active and
// not yet deactivated. Acquire never blocks.
func (a *ActiveRef) Acquire() bool {
	sw := spin.Wait{}
	for {
		v := a.count.LoadAcquire()
		if v < 0 {
			return false
		}
		if a.count.CompareAndSwapAcqRel(v, v+1) {
			return true
		}
		sw.Once()
	}
}

// Release releases a previously acquired active reference. If this
// release is the one that brings the count down to exactly activeBias
// (all outstanding references dropped after deactivation), it wakes one
// waiter on waitq so a blocked [ActiveRef.Drain] can proceed.
func (a *ActiveRef) Release(waitq *WaitQueue) {
	if a.count.AddAcqRel(-1) == activeBias && waitq != nil {
		waitq.WakeOne()
	}
}

// Deactivate initiates teardown: after it returns, no new acquisitions
// can succeed. Idempotent — calling it more than once, or concurrently,
// is safe and has no additional effect.
func (a *ActiveRef) Deactivate() {
	if a.count.CompareAndSwapAcqRel(activeNew, activeReleaseDirect) {
		return // never activated: nothing was ever outstanding
	}
	// Active(k) -> Draining(k): add activeBias iff still non-negative.
	// If it's already negative, someone else deactivated first.
	sw := spin.Wait{}
	for {
		v := a.count.LoadAcquire()
		if v < 0 {
			return
		}
		if a.count.CompareAndSwapAcqRel(v, v+activeBias) {
			return
		}
		sw.Once()
	}
}

// Drain waits for every outstanding active reference to be released,
// then runs releaseCB exactly once across however many goroutines call
// Drain concurrently, and finally wakes every caller.
//
// The caller must guarantee [ActiveRef.Deactivate] has already taken
// effect; calling Drain first is a programming error, asserted in debug
// builds. waitq must be the same WaitQueue passed to every concurrent
// [ActiveRef.Release] call on this object.
//
// Returns true for the single caller that ran releaseCB, false for every
// other concurrent caller (which still only return once release has
// fully completed).
func (a *ActiveRef) Drain(waitq *WaitQueue, releaseCB func()) bool {
	debugAssert(a.IsDeactivated(), "drain called before deactivate took effect")

	waitq.WaitUntil(func() bool {
		return a.count.LoadAcquire() <= activeBias
	})

	v := activeReleaseDirect
	if !a.count.CompareAndSwapAcqRel(activeReleaseDirect, activeRelease) {
		v = activeBias
		if !a.count.CompareAndSwapAcqRel(activeBias, activeRelease) {
			v = 0 // sentinel meaning "neither CAS won"
		}
	}

	if v == activeReleaseDirect || v == activeBias {
		if releaseCB != nil {
			releaseCB()
		}
		a.count.StoreRelease(activeDrained)
		waitq.WakeAll()
		return true
	}

	waitq.WaitUntil(func() bool {
		return a.count.LoadAcquire() == activeDrained
	})
	return false
}
