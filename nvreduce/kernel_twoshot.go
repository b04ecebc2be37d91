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

// twoShotBlock runs one block's share of the two-shot algorithm: each
// device reduces only its own shard, publishes the shard result in its
// own peer buffer, then gathers the remaining shards from their owners'
// buffers. nAligned must be a
// multiple of worldSize (the dispatcher's two-shot alignment rule).
//
// The reduce-scatter result for this rank's shard is written into
// peerBuffers[rank] itself: under the (rank + 0) mod worldSize rotation
// convention, the canonical peer-0 slot of this rank's own loop is this
// rank's own buffer, which is disjoint from every other rank's shard by
// construction. Writing to the literal rank-0 buffer instead would
// serialize every device onto a single PeerBuffer.
func twoShotBlock(ctx context.Context, rank, worldSize, block, blocks, nAligned, numel int, peerBuffers [][]BFloat16, rings []*SignalRing, out []BFloat16) error {
	peers := otherRanks(rank, worldSize)
	nPerRank := nAligned / worldSize
	shardStart := rank * nPerRank
	shardEnd := shardStart + nPerRank

	totalPacks := nAligned / LanesPerPacked
	packStart, packEnd := blockChunk(totalPacks, blocks, block)

	if err := Barrier(ctx, Phase0, block, rank, peers, rings); err != nil {
		return err
	}

	for pk := packStart; pk < packEnd; pk++ {
		elemOffset := pk * LanesPerPacked
		if elemOffset < shardStart || elemOffset >= shardEnd {
			// Outside this rank's reduce-scatter shard: this block still
			// executes the same barrier sequence as every other block,
			// it simply has no reduce-scatter work at this position.
			continue
		}

		var sum PackedBF16
		for k := 0; k < worldSize; k++ {
			peer := (rank + k) % worldSize
			v := StreamLoadPacked128(peerBuffers[peer], elemOffset)
			sum = AddPacked(sum, v)
		}
		StreamStorePacked128(peerBuffers[rank], elemOffset, sum)
		writeGuarded(out, elemOffset, numel, sum)
	}

	if err := Barrier(ctx, Phase1, block, rank, peers, rings); err != nil {
		return err
	}

	for pk := packStart; pk < packEnd; pk++ {
		elemOffset := pk * LanesPerPacked
		if elemOffset >= shardStart && elemOffset < shardEnd {
			continue // this rank's own shard, already produced above
		}
		owner := elemOffset / nPerRank
		v := StreamLoadPacked128(peerBuffers[owner], elemOffset)
		writeGuarded(out, elemOffset, numel, v)
	}
	return nil
}
