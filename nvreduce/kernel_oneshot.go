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

// oneShotBlock runs one block's share of the one-shot algorithm: every
// device reads the contribution of every peer, sums locally, and stores
// the result to its own output. Best for small payloads where handshake
// overhead dominates bandwidth cost.
func oneShotBlock(ctx context.Context, rank, worldSize, block, blocks, nAligned, numel int, peerBuffers [][]BFloat16, rings []*SignalRing, out []BFloat16) error {
	peers := otherRanks(rank, worldSize)
	if err := Barrier(ctx, Phase0, block, rank, peers, rings); err != nil {
		return err
	}

	totalPacks := nAligned / LanesPerPacked
	packStart, packEnd := blockChunk(totalPacks, blocks, block)

	for pk := packStart; pk < packEnd; pk++ {
		elemOffset := pk * LanesPerPacked

		var sum PackedBF16
		for k := 0; k < worldSize; k++ {
			// Peer order is rotated by the local rank to spread fabric
			// load evenly across peer links rather than every rank
			// hammering rank 0 first.
			peer := (rank + k) % worldSize
			v := StreamLoadPacked128(peerBuffers[peer], elemOffset)
			sum = AddPacked(sum, v)
		}
		writeGuarded(out, elemOffset, numel, sum)
	}
	return nil
}
