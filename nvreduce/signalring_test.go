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
	"sync"
	"testing"
	"time"
)

func TestSignalRingReleaseAcquireBalances(t *testing.T) {
	ring := NewSignalRing()
	ring.release(Phase0, 0, 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ring.acquire(ctx, Phase0, 0, 3); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}

	if got := ring.signals[Phase0][0][3].Load(); got != 0 {
		t.Errorf("counter after balanced release/acquire = %d, want 0", got)
	}
}

func TestSignalRingAcquireBlocksUntilRelease(t *testing.T) {
	ring := NewSignalRing()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		ring.release(Phase1, 5, 2)
	}()

	if err := ring.acquire(ctx, Phase1, 5, 2); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	wg.Wait()
}

func TestSignalRingAcquireRespectsContextDeadline(t *testing.T) {
	ring := NewSignalRing()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := ring.acquire(ctx, Phase0, 0, 0)
	if err == nil {
		t.Fatal("expected deadline error, got nil")
	}
}

func TestBarrierSymmetricAcrossRanks(t *testing.T) {
	const w = 4
	rings := make([]*SignalRing, w)
	for i := range rings {
		rings[i] = NewSignalRing()
	}
	peersOf := func(self int) []int {
		var peers []int
		for p := 0; p < w; p++ {
			if p != self {
				peers = append(peers, p)
			}
		}
		return peers
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, w)
	for r := 0; r < w; r++ {
		wg.Add(1)
		go func(self int) {
			defer wg.Done()
			errs[self] = Barrier(ctx, Phase0, 0, self, peersOf(self), rings)
		}(r)
	}
	wg.Wait()

	for r, err := range errs {
		if err != nil {
			t.Errorf("rank %d barrier: %v", r, err)
		}
	}

	for r := 0; r < w; r++ {
		for p := 0; p < w; p++ {
			if got := rings[r].signals[Phase0][0][p].Load(); got != 0 {
				t.Errorf("ring[%d] signal[%d] = %d after balanced barrier, want 0", r, p, got)
			}
		}
	}
}
