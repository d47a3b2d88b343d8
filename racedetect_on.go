// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package peerq

// RaceEnabled is true when the race detector is active.
//
// Used by tests to skip concurrent scenarios whose correctness rests on
// atomic acquire/release orderings across independent variables — a
// synchronization pattern the race detector does not model and reports
// as a false positive.
const RaceEnabled = true
