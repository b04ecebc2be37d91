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

// Package fabric simulates the peer-to-peer fabric nvreduce assumes: W
// devices sharing a host over a high-bandwidth interconnect, bootstrapped
// and given peer buffers by an external framework. nvreduce itself never
// imports this package — it exists so AllReduce can be exercised and
// tested end-to-end without a real multi-device host.
package fabric

import (
	"context"

	"github.com/ajroetker/go-nvreduce/nvreduce"
	"golang.org/x/sync/errgroup"
)

// Group is a simulated intra-node group of ranks: one SignalRing and one
// PeerBuffer per rank, wired together the way a real bootstrap would wire
// device memory handles exchanged over the fabric's out-of-band channel.
type Group struct {
	worldSize   int
	rings       []*nvreduce.SignalRing
	peerBuffers [][]nvreduce.BFloat16
}

// New allocates a Group of worldSize ranks, each with a peer buffer of
// bufLen bf16 elements. bufLen must be at least as large as the largest
// aligned payload any rank in the group will reduce, and twice that for
// AlgoHCM, which uses the second half of each buffer as relay scratch.
func New(worldSize, bufLen int) *Group {
	g := &Group{
		worldSize:   worldSize,
		rings:       make([]*nvreduce.SignalRing, worldSize),
		peerBuffers: make([][]nvreduce.BFloat16, worldSize),
	}
	for r := 0; r < worldSize; r++ {
		g.rings[r] = nvreduce.NewSignalRing()
		g.peerBuffers[r] = make([]nvreduce.BFloat16, bufLen)
	}
	return g
}

// WorldSize returns the number of simulated ranks.
func (g *Group) WorldSize() int {
	return g.worldSize
}

// PeerBuffer returns rank's peer buffer, for the caller to stage input
// into before calling Run.
func (g *Group) PeerBuffer(rank int) []nvreduce.BFloat16 {
	return g.peerBuffers[rank]
}

// RankFunc is the per-rank work a Group runs concurrently. rank is this
// goroutine's simulated device index; peerBuffers and rings are shared
// across every rank in the group, exactly as AllReduce expects.
type RankFunc func(ctx context.Context, rank int, peerBuffers [][]nvreduce.BFloat16, rings []*nvreduce.SignalRing) error

// Run launches fn once per rank via an errgroup.Group, mirroring the
// teacher's persistent-goroutine worker pool idiom but spawning fresh
// goroutines per call since a simulated rank only ever runs one
// collective at a time. It blocks until every rank's fn returns, and
// returns the first non-nil error.
func (g *Group) Run(ctx context.Context, fn RankFunc) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for r := 0; r < g.worldSize; r++ {
		rank := r
		eg.Go(func() error {
			return fn(egCtx, rank, g.peerBuffers, g.rings)
		})
	}
	return eg.Wait()
}
