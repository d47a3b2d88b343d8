// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build debug

package peerq

// debugBuild is true when built with the debug tag.
const debugBuild = true

// debugAssert reports a violated precondition as a panic.
//
// Lifecycle misuse (draining before deactivating, destroying before a
// drain has completed, and similar programming errors) is only checked
// in debug builds: release builds trust the caller and do not pay for
// the check.
func debugAssert(cond bool, msg string) {
	if !cond {
		panic("peerq: " + msg)
	}
}
