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

import "context"

// Barrier implements the cross-device half of MemProtocol's five-step
// contract for one block on one rank: release to every peer's ring
// keyed by self, then acquire from this rank's own ring keyed by each
// peer in turn.
//
// The original contract's two local-barrier steps (producer threads
// synchronizing with consumer threads inside a block before and after
// the system-scope signal) collapse to a no-op in this rendering: a
// block is one goroutine here, so its lane iterations already execute
// in Go program order and are already ordered with respect to each
// other without a fence. Barrier is the entire inter-device
// synchronization a kernel needs between a streaming store and the
// matching streaming load — this is the one place the Go rendering
// legitimately simplifies the five-step contract without changing its
// observable cross-device semantics.
func Barrier(ctx context.Context, phase Phase, block, self int, peers []int, rings []*SignalRing) error {
	for _, p := range peers {
		rings[p].release(phase, block, self)
	}
	for _, p := range peers {
		if err := rings[self].acquire(ctx, phase, block, p); err != nil {
			return err
		}
	}
	return nil
}

// alignUp rounds n up to the nearest multiple of m.
func alignUp(n, m int) int {
	if n%m == 0 {
		return n
	}
	return n + (m - n%m)
}

// blockChunk returns the half-open range [start, end) that block b owns
// out of nAligned total units split evenly across blocks, with any
// remainder distributed to the first blocks. The kernels pass a pack
// count, so their ranges are in packs, not elements.
//
// This partitioning is global and uniform across all three kernels
// rather than shard-local: every block goroutine on every rank must
// execute the identical barrier sequence regardless of whether its
// chunk has useful work during a given phase (e.g. a two-shot block
// whose chunk lies outside this rank's shard during reduce-scatter),
// since spec.md's ordering guarantee is scoped per (block-index,
// peer-index) and any rank-dependent deviation in which blocks
// participate in which barriers deadlocks.
func blockChunk(nAligned, blocks, b int) (start, end int) {
	base := nAligned / blocks
	rem := nAligned % blocks
	if b < rem {
		start = b * (base + 1)
		end = start + base + 1
		return
	}
	start = rem*(base+1) + (b-rem)*base
	end = start + base
	return
}
