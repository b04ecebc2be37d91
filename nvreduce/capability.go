// Copyright 2026 go-nvreduce Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nvreduce

import (
	"os"
	"strconv"
)

// DispatchLevel names the packed-bf16 execution path this process would
// take on real hardware. Every level still runs the same Go arithmetic
// (promote to float32, add, demote) — the level is informational, used
// to decide whether IsSupported reports a fast-path device.
type DispatchLevel int

const (
	// DispatchScalar means no packed bf16 acceleration was detected.
	DispatchScalar DispatchLevel = iota

	// DispatchAVX2 means the host exposes AVX2, the baseline this module
	// treats as "has packed bf16 add and 32-bit system-scope atomics".
	DispatchAVX2

	// DispatchAVX512BF16 means the host additionally exposes native
	// AVX-512 BF16 dot-product instructions.
	DispatchAVX512BF16

	// DispatchNEON means the host is an ARM64 core with ASIMD.
	DispatchNEON

	// DispatchNEONBF16 means the host additionally exposes the ARMv8.6-A
	// BF16 extension.
	DispatchNEONBF16
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512BF16:
		return "avx512bf16"
	case DispatchNEON:
		return "neon"
	case DispatchNEONBF16:
		return "neon-bf16"
	default:
		return "unknown"
	}
}

// currentLevel is the detected dispatch level for this runtime. Set by
// init() in capability_*.go files.
var currentLevel DispatchLevel

// CurrentLevel returns the packed-bf16 dispatch level detected for this
// process.
func CurrentLevel() DispatchLevel {
	return currentLevel
}

// IsSupported reports whether this host can run the accelerated
// intra-node all-reduce path: a stand-in for spec.md's requirement that
// the device architecture provide packed bf16 arithmetic plus
// system-scope atomic signaling. Every kernel in this package is pure
// Go and would produce the same result without it; AllReduce does not
// consult IsSupported, which only reports the detected level to
// callers, mirroring the teacher's dispatch-level gating.
func IsSupported() bool {
	return currentLevel != DispatchScalar
}

// noSimdEnv checks the NVREDUCE_NO_SIMD environment variable. When set
// truthy, IsSupported always reports false regardless of detected CPU
// features — used by tests to exercise the scalar fallback path.
func noSimdEnv() bool {
	val := os.Getenv("NVREDUCE_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}
