// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !debug

package peerq

// debugBuild is false in release builds.
const debugBuild = false

// debugAssert is a no-op in release builds: lifecycle misuse is a
// programming error and its behavior is left unchecked, not recovered.
func debugAssert(cond bool, msg string) {
}
