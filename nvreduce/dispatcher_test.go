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
)

func TestSelectAllReduceAlgo(t *testing.T) {
	tests := []struct {
		name  string
		bytes int
		topo  Topology
		world int
		want  AllReduceAlgo
	}{
		{"small fully-connected picks one-shot", 4 << 10, TopoFullyConnected, 4, AlgoOneShot},
		{"mid fully-connected picks two-shot", 1 << 20, TopoFullyConnected, 4, AlgoTwoShot},
		{"oversized fully-connected falls back", 16 << 20, TopoFullyConnected, 4, AlgoNone},
		{"small hcm picks hcm", 64 << 10, TopoHybridCubeMesh, 8, AlgoHCM},
		{"oversized hcm falls back", 3 << 20, TopoHybridCubeMesh, 8, AlgoNone},
		{"unsupported topology falls back", 4 << 10, TopoUnsupported, 4, AlgoNone},
		{"bad world size falls back", 4 << 10, TopoFullyConnected, 1, AlgoNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectAllReduceAlgo(tt.bytes, tt.topo, tt.world)
			if got != tt.want {
				t.Errorf("SelectAllReduceAlgo(%d, %v, %d) = %v, want %v", tt.bytes, tt.topo, tt.world, got, tt.want)
			}
		})
	}
}

// runAllReduce drives worldSize concurrent ranks through one AllReduce
// call and returns each rank's output buffer. Each rank r's input is a
// constant (r+1), so the expected reduced value is the triangular sum
// 1+2+...+worldSize.
func runAllReduce(t *testing.T, worldSize, numel int, algo AllReduceAlgo, roleRows []RoleRow) [][]BFloat16 {
	t.Helper()

	rings := make([]*SignalRing, worldSize)
	peerBuffers := make([][]BFloat16, worldSize)
	outs := make([][]BFloat16, worldSize)
	for r := 0; r < worldSize; r++ {
		rings[r] = NewSignalRing()
		peerBuffers[r] = make([]BFloat16, numel+2*LanesPerPacked*worldSize)
		for i := 0; i < numel; i++ {
			peerBuffers[r][i] = Float32ToBFloat16(float32(r + 1))
		}
		outs[r] = make([]BFloat16, numel)
	}

	var wg sync.WaitGroup
	errs := make([]error, worldSize)
	wg.Add(worldSize)
	for r := 0; r < worldSize; r++ {
		r := r
		var row RoleRow
		if roleRows != nil {
			row = roleRows[r]
		}
		go func() {
			defer wg.Done()
			errs[r] = AllReduce(context.Background(), r, worldSize, algo, numel, peerBuffers, rings, row, outs[r])
		}()
	}
	wg.Wait()

	for r, err := range errs {
		if err != nil {
			t.Fatalf("rank %d: AllReduce: %v", r, err)
		}
	}
	return outs
}

func assertAllReduceSum(t *testing.T, worldSize, numel int, outs [][]BFloat16) {
	t.Helper()
	var want float32
	for r := 0; r < worldSize; r++ {
		want += float32(r + 1)
	}
	for r := 0; r < worldSize; r++ {
		for i := 0; i < numel; i++ {
			got := BFloat16ToFloat32(outs[r][i])
			if got != want {
				t.Errorf("rank %d elem %d = %v, want %v", r, i, got, want)
			}
		}
	}
}

func TestAllReduceOneShot(t *testing.T) {
	const worldSize = 4
	numel := LanesPerPacked*3 + 2
	outs := runAllReduce(t, worldSize, numel, AlgoOneShot, nil)
	assertAllReduceSum(t, worldSize, numel, outs)
}

func TestAllReduceTwoShot(t *testing.T) {
	const worldSize = 4
	numel := LanesPerPacked * worldSize * 5
	outs := runAllReduce(t, worldSize, numel, AlgoTwoShot, nil)
	assertAllReduceSum(t, worldSize, numel, outs)
}

func TestAllReduceHCM(t *testing.T) {
	const worldSize = 8
	mesh := hcmMatrix()
	topo, _, err := AnalyzeTopology(mesh, worldSize)
	if err != nil {
		t.Fatalf("AnalyzeTopology: %v", err)
	}
	roleRows := make([]RoleRow, worldSize)
	for r := 0; r < worldSize; r++ {
		row, err := InitTopoInfo(topo, mesh, worldSize, r)
		if err != nil {
			t.Fatalf("InitTopoInfo(rank %d): %v", r, err)
		}
		roleRows[r] = row
	}
	numel := LanesPerPacked*2 + 1
	outs := runAllReduce(t, worldSize, numel, AlgoHCM, roleRows)
	assertAllReduceSum(t, worldSize, numel, outs)
}

func TestAllReduceRejectsAlgoNone(t *testing.T) {
	rings := []*SignalRing{NewSignalRing(), NewSignalRing()}
	peerBuffers := [][]BFloat16{make([]BFloat16, 64), make([]BFloat16, 64)}
	out := make([]BFloat16, 8)
	if err := AllReduce(context.Background(), 0, 2, AlgoNone, 8, peerBuffers, rings, RoleRow{}, out); err == nil {
		t.Error("expected error for AlgoNone")
	}
}

func TestAllReduceRejectsOutOfRangeRank(t *testing.T) {
	rings := []*SignalRing{NewSignalRing(), NewSignalRing()}
	peerBuffers := [][]BFloat16{make([]BFloat16, 64), make([]BFloat16, 64)}
	out := make([]BFloat16, 8)
	if err := AllReduce(context.Background(), 5, 2, AlgoOneShot, 8, peerBuffers, rings, RoleRow{}, out); err == nil {
		t.Error("expected error for out-of-range rank")
	}
}

func TestGridBlocksCapsAtMax(t *testing.T) {
	blocks := gridBlocks(MaxAllReduceBlocks * ThreadsPerBlock * LanesPerPacked * 4)
	if blocks != MaxAllReduceBlocks {
		t.Errorf("gridBlocks = %d, want %d", blocks, MaxAllReduceBlocks)
	}
}

func TestGridBlocksAtLeastOne(t *testing.T) {
	if blocks := gridBlocks(LanesPerPacked); blocks < 1 {
		t.Errorf("gridBlocks = %d, want >= 1", blocks)
	}
}
