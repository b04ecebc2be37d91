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

// hcmBlock runs one block's share of the hybrid-cube-mesh algorithm:
// each device reduces with its three direct neighbors, exchanges the
// partial sum with its relay neighbor, and completes. Requires
// worldSize == MaxWorldSize (8) and a role row produced by
// AnalyzeTopology for a recognized HCM topology.
//
// Each PeerBuffer's second half is this rank's relay scratch region,
// used to publish the 4-way partial to the relay neighbor.
func hcmBlock(ctx context.Context, rank int, row RoleRow, block, blocks, nAligned, numel int, peerBuffers [][]BFloat16, rings []*SignalRing, out []BFloat16) error {
	neighbors := []int{int(row[0]), int(row[1]), int(row[2])}
	relay := int(row[3])

	scratchOffset := len(peerBuffers[rank]) / 2

	if err := Barrier(ctx, Phase0, block, rank, neighbors, rings); err != nil {
		return err
	}

	totalPacks := nAligned / LanesPerPacked
	packStart, packEnd := blockChunk(totalPacks, blocks, block)

	for pk := packStart; pk < packEnd; pk++ {
		elemOffset := pk * LanesPerPacked

		sum := LoadPacked128(peerBuffers[rank], elemOffset)
		for _, n := range neighbors {
			v := StreamLoadPacked128(peerBuffers[n], elemOffset)
			sum = AddPacked(sum, v)
		}
		// Cache-respecting store: this value is re-read on the same
		// device in the final step, and the relay neighbor reads it
		// only after the relay Barrier below.
		StorePacked128(peerBuffers[rank], scratchOffset+elemOffset, sum)
	}

	// The relay column does not collide with the three direct-neighbor
	// columns used above: SignalRing counters are indexed by actual
	// rank, and recognition guarantees the relay shares no neighbors
	// with this rank, so it is a distinct rank id.
	if err := Barrier(ctx, Phase0, block, rank, []int{relay}, rings); err != nil {
		return err
	}

	for pk := packStart; pk < packEnd; pk++ {
		elemOffset := pk * LanesPerPacked

		local := LoadPacked128(peerBuffers[rank], scratchOffset+elemOffset)
		remote := StreamLoadPacked128(peerBuffers[relay], scratchOffset+elemOffset)
		total := AddPacked(local, remote)
		writeGuarded(out, elemOffset, numel, total)
	}
	return nil
}
