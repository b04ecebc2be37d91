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
	"sync/atomic"
)

// Phase selects one of the two parallel signal tables a SignalRing
// keeps, letting two-shot sequence its reduce-scatter and all-gather
// barriers without resetting state in between.
type Phase int

const (
	// Phase0 is used by one-shot's single barrier, two-shot's
	// reduce-scatter barrier, and HCM's direct-neighbor barrier.
	Phase0 Phase = 0
	// Phase1 is used by two-shot's all-gather barrier.
	Phase1 Phase = 1
)

// SignalRing is the per-device table of system-scope atomic counters
// used for point-to-point barrier signaling between grid blocks on
// different devices: signals[phase][block][peerIndex]. It is owned by
// one device and written concurrently by every peer; only the owning
// device's goroutines read it.
type SignalRing struct {
	signals [2][MaxAllReduceBlocks][MaxWorldSize]atomic.Int32
}

// NewSignalRing allocates and zeroes one SignalRing. This is the Go
// rendering of initP2pState: a real binding would allocate device
// memory instead.
func NewSignalRing() *SignalRing {
	return &SignalRing{}
}

// release performs the system-scope atomic increment this rank issues
// on a peer's ring, keyed by this rank's own index.
func (r *SignalRing) release(phase Phase, block, selfIndex int) {
	r.signals[phase][block][selfIndex].Add(1)
}

// acquire spins on this rank's own ring, keyed by peerIndex, performing
// a compare-and-swap that decrements only when the counter is positive.
// It returns only once the matching release has landed, or ctx ends
// first. This is the one unbounded wait the concurrency model allows;
// ctx.Err() is the caller-imposed timeout spec.md's design leaves to
// the calling framework.
func (r *SignalRing) acquire(ctx context.Context, phase Phase, block, peerIndex int) error {
	counter := &r.signals[phase][block][peerIndex]
	for {
		if v := counter.Load(); v > 0 {
			if counter.CompareAndSwap(v, v-1) {
				return nil
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
