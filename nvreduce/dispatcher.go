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
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SelectAllReduceAlgo picks the algorithm this payload and topology
// qualify for, or AlgoNone if none does and the caller must fall back
// to an external collective implementation.
//
// HCM only ever competes for small payloads: its relay hop adds a
// second round trip, so it only pays off under HCMThreshBytes and only
// on a recognized hybrid-cube-mesh topology. One-shot and two-shot both
// require a fully connected topology; one-shot wins below its own
// threshold because it skips the reduce-scatter/all-gather split, and
// two-shot takes over up to the much larger TwoShotThreshBytes because
// it moves each element at most twice instead of worldSize times.
func SelectAllReduceAlgo(bytesAfterAlignment int, topology Topology, worldSize int) AllReduceAlgo {
	if worldSize < MinWorldSize || worldSize > MaxWorldSize {
		return AlgoNone
	}
	switch topology {
	case TopoHybridCubeMesh:
		if bytesAfterAlignment <= HCMThreshBytes {
			return AlgoHCM
		}
		return AlgoNone
	case TopoFullyConnected:
		if bytesAfterAlignment <= OneShotThreshBytes {
			return AlgoOneShot
		}
		if bytesAfterAlignment <= TwoShotThreshBytes {
			return AlgoTwoShot
		}
		return AlgoNone
	default:
		return AlgoNone
	}
}

// requiredAlignment returns the element count algo's partitioning
// requires nAligned to be a multiple of: two-shot must divide evenly
// into worldSize shards of whole packs, one-shot and HCM only need
// whole-pack alignment.
func requiredAlignment(algo AllReduceAlgo, worldSize int) int {
	if algo == AlgoTwoShot {
		return LanesPerPacked * worldSize
	}
	return LanesPerPacked
}

// gridBlocks returns the number of block goroutines to launch for
// nAligned elements, one thread per pack, capped at MaxAllReduceBlocks.
func gridBlocks(nAligned int) int {
	packs := nAligned / LanesPerPacked
	if packs == 0 {
		return 1
	}
	threadsNeeded := alignUp(packs, WarpSize)
	blocks := (threadsNeeded + ThreadsPerBlock - 1) / ThreadsPerBlock
	if blocks < 1 {
		blocks = 1
	}
	if blocks > MaxAllReduceBlocks {
		blocks = MaxAllReduceBlocks
	}
	return blocks
}

// AllReduce sums input element-wise across worldSize ranks and writes
// the result to out. input must already be staged into
// peerBuffers[rank] by the caller (AllReduce only pads the alignment
// tail); every rank must call AllReduce with the same algo, numel and
// worldSize, and peerBuffers/rings must be shared across all of them.
//
// roleRow is only consulted when algo is AlgoHCM; callers not using HCM
// may pass a zero RoleRow.
func AllReduce(ctx context.Context, rank, worldSize int, algo AllReduceAlgo, numel int, peerBuffers [][]BFloat16, rings []*SignalRing, roleRow RoleRow, out []BFloat16) error {
	if algo == AlgoNone {
		return &ConfigurationError{Reason: "AllReduce called with AlgoNone"}
	}
	if worldSize < MinWorldSize || worldSize > MaxWorldSize {
		return &ConfigurationError{Reason: fmt.Sprintf("world size %d out of range [%d,%d]", worldSize, MinWorldSize, MaxWorldSize)}
	}
	if algo == AlgoHCM && worldSize != MaxWorldSize {
		return &ConfigurationError{Reason: fmt.Sprintf("HCM requires world size %d, got %d", MaxWorldSize, worldSize)}
	}
	if numel*2 > MaxIntraNodeSize {
		return &ConfigurationError{Reason: fmt.Sprintf("payload of %d bytes exceeds MaxIntraNodeSize", numel*2)}
	}
	if rank < 0 || rank >= worldSize {
		return &ConfigurationError{Reason: fmt.Sprintf("rank %d out of range for world size %d", rank, worldSize)}
	}
	if len(peerBuffers) != worldSize || len(rings) != worldSize {
		return &ConfigurationError{Reason: "peerBuffers and rings must each have worldSize entries"}
	}
	if len(out) < numel {
		return &ConfigurationError{Reason: "out is shorter than numel"}
	}

	align := requiredAlignment(algo, worldSize)
	nAligned := alignUp(numel, align)
	if len(peerBuffers[rank]) < nAligned {
		return &ConfigurationError{Reason: "peerBuffers[rank] is too short for the aligned payload"}
	}
	for i := numel; i < nAligned; i++ {
		peerBuffers[rank][i] = BFloat16Zero
	}

	blocks := gridBlocks(nAligned)

	g, gctx := errgroup.WithContext(ctx)
	for b := 0; b < blocks; b++ {
		block := b
		g.Go(func() error {
			switch algo {
			case AlgoOneShot:
				return oneShotBlock(gctx, rank, worldSize, block, blocks, nAligned, numel, peerBuffers, rings, out)
			case AlgoTwoShot:
				return twoShotBlock(gctx, rank, worldSize, block, blocks, nAligned, numel, peerBuffers, rings, out)
			case AlgoHCM:
				return hcmBlock(gctx, rank, roleRow, block, blocks, nAligned, numel, peerBuffers, rings, out)
			default:
				return &ConfigurationError{Reason: fmt.Sprintf("unknown algorithm %v", algo)}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return &LaunchError{Algo: algo, Err: err}
	}
	return nil
}
