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

// otherRanks returns every rank in [0, worldSize) except self, in
// ascending order.
func otherRanks(self, worldSize int) []int {
	peers := make([]int, 0, worldSize-1)
	for r := 0; r < worldSize; r++ {
		if r != self {
			peers = append(peers, r)
		}
	}
	return peers
}

// writeGuarded writes p's lanes into out starting at elemOffset, but
// only the lanes whose absolute index is below numel — the per-lane
// guard spec.md's tail handling requires so bytes beyond the caller's
// requested length are left untouched.
func writeGuarded(out []BFloat16, elemOffset, numel int, p PackedBF16) {
	for lane := 0; lane < LanesPerPacked; lane++ {
		idx := elemOffset + lane
		if idx >= numel {
			return
		}
		out[idx] = p.lanes[lane]
	}
}
