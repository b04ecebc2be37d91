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

// LanesPerPacked is the number of bf16 elements moved by one 128-bit
// packed load/store, matching BytesPerThread/2.
const LanesPerPacked = BytesPerThread / 2

// PackedBF16 is the 128-bit unit every kernel loads, adds and stores:
// eight lanes of BFloat16, the width one thread moves per iteration.
type PackedBF16 struct {
	lanes [LanesPerPacked]BFloat16
}

// LoadPacked128 reads one PackedBF16 from buf starting at elemOffset
// (in bf16 elements, not bytes). The caller guarantees the slice has at
// least LanesPerPacked elements remaining at that offset.
func LoadPacked128(buf []BFloat16, elemOffset int) PackedBF16 {
	var p PackedBF16
	copy(p.lanes[:], buf[elemOffset:elemOffset+LanesPerPacked])
	return p
}

// StorePacked128 writes p to buf starting at elemOffset.
func StorePacked128(buf []BFloat16, elemOffset int, p PackedBF16) {
	copy(buf[elemOffset:elemOffset+LanesPerPacked], p.lanes[:])
}

// StreamLoadPacked128 is the read half of a cross-device handoff: it is
// only ever called after a MemProtocol Barrier has established that the
// writing rank's StreamStorePacked128 happened-before this call. The
// implementation is identical to LoadPacked128 (Go exposes no separate
// non-coherent load instruction); the distinct name documents that
// intent at call sites rather than changing behavior.
func StreamLoadPacked128(buf []BFloat16, elemOffset int) PackedBF16 {
	return LoadPacked128(buf, elemOffset)
}

// StreamStorePacked128 is the write half of a cross-device handoff: its
// visibility to other ranks is guaranteed only once the caller performs
// the Barrier release step that follows it, not by this call itself.
func StreamStorePacked128(buf []BFloat16, elemOffset int, p PackedBF16) {
	StorePacked128(buf, elemOffset, p)
}

// AddPacked adds a and b lane-wise using the promote-to-float32,
// round-to-nearest-even-demote pattern: the only arithmetic this module
// performs, since spec.md excludes reductions other than sum.
func AddPacked(a, b PackedBF16) PackedBF16 {
	var out PackedBF16
	for i := range out.lanes {
		af := BFloat16ToFloat32(a.lanes[i])
		bf := BFloat16ToFloat32(b.lanes[i])
		out.lanes[i] = Float32ToBFloat16(af + bf)
	}
	return out
}
