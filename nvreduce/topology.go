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

import "fmt"

// RoleRow is one rank's entry in a RoleTable: indices 0..2 are its three
// direct peer-link neighbors, index 3 is its relay neighbor.
type RoleRow [4]int32

// RoleTable is the per-rank HCM role assignment computed once from the
// adjacency matrix by AnalyzeTopology.
type RoleTable [MaxDevices]RoleRow

// Validate asserts the HCM role-table invariants that can be checked
// from the table alone: every relay is in range and involutive
// (relay(relay(x)) == x), and every neighbor column k is in range and
// symmetric (t[x][k] == y implies t[y][k] == x). It does not check
// neighbor counts or relay uniqueness; AnalyzeTopology establishes those
// from the adjacency matrix before it builds the table. AnalyzeTopology's
// greedy construction guarantees these by proof, so a Validate failure
// indicates a classifier bug, not a degenerate input — callers of
// AnalyzeTopology are not expected to call Validate themselves in normal
// operation, but tests do.
func (t *RoleTable) Validate(worldSize int) error {
	for i := 0; i < worldSize; i++ {
		row := t[i]

		relay := row[3]
		if relay < 0 || int(relay) >= worldSize {
			return fmt.Errorf("rank %d: relay %d out of range", i, relay)
		}
		if t[relay][3] != int32(i) {
			return fmt.Errorf("rank %d: relay(relay(%d))=%d, want %d", i, i, t[relay][3], i)
		}

		for k := 0; k < 3; k++ {
			j := row[k]
			if j < 0 || int(j) >= worldSize {
				return fmt.Errorf("rank %d: neighbor column %d = %d out of range", i, k, j)
			}
			if t[j][k] != int32(i) {
				return fmt.Errorf("rank %d: neighbor column %d = %d is not symmetric", i, k, j)
			}
		}
	}
	return nil
}

// InitTopoInfo computes this rank's role row for an already-classified
// topology: for TopoHybridCubeMesh it re-derives the role table from the
// adjacency matrix and returns rank's row; for every other topology it
// returns a zero RoleRow, since only HCM's kernel consults one.
//
// topology is supplied by the caller (normally the result of an earlier
// AnalyzeTopology call over the same nvl) rather than re-classified here,
// so a caller that already knows it is on a fully connected or
// unsupported fabric never pays for the HCM role-assignment pass.
func InitTopoInfo(topology Topology, nvl [MaxDevices][MaxDevices]int32, worldSize, rank int) (RoleRow, error) {
	if topology != TopoHybridCubeMesh {
		return RoleRow{}, nil
	}
	if rank < 0 || rank >= worldSize {
		return RoleRow{}, &ConfigurationError{Reason: fmt.Sprintf("rank %d out of range for world size %d", rank, worldSize)}
	}

	got, table, err := AnalyzeTopology(nvl, worldSize)
	if err != nil {
		return RoleRow{}, err
	}
	if got != TopoHybridCubeMesh {
		return RoleRow{}, fmt.Errorf("nvreduce: InitTopoInfo: caller claimed %v but adjacency matrix classifies as %v", topology, got)
	}
	return table[rank], nil
}

// AnalyzeTopology classifies a peer-link adjacency matrix into
// FullyConnected, HybridCubeMesh or Unsupported, and for HCM computes
// the role table.
func AnalyzeTopology(nvl [MaxDevices][MaxDevices]int32, worldSize int) (Topology, *RoleTable, error) {
	if worldSize < MinWorldSize || worldSize > MaxWorldSize {
		return TopoUnsupported, nil, &ConfigurationError{Reason: fmt.Sprintf("world size %d out of range [%d,%d]", worldSize, MinWorldSize, MaxWorldSize)}
	}

	var mask [MaxDevices]uint32
	neighborCount := make([]int, worldSize)
	for i := 0; i < worldSize; i++ {
		for j := 0; j < worldSize; j++ {
			if i == j {
				continue
			}
			if nvl[i][j] > 0 {
				mask[i] |= 1 << uint(j)
				neighborCount[i]++
			}
		}
	}

	fullyConnected := true
	for i := 0; i < worldSize; i++ {
		if neighborCount[i] != worldSize-1 {
			fullyConnected = false
			break
		}
	}
	if fullyConnected {
		return TopoFullyConnected, nil, nil
	}

	if worldSize != MaxWorldSize {
		return TopoUnsupported, nil, nil
	}
	for i := 0; i < worldSize; i++ {
		if neighborCount[i] != 4 {
			return TopoUnsupported, nil, nil
		}
	}

	relay := make([]int, worldSize)
	for i := 0; i < worldSize; i++ {
		found := -1
		count := 0
		for j := 0; j < worldSize; j++ {
			if j == i {
				continue
			}
			if mask[i]&mask[j] == 0 {
				found = j
				count++
			}
		}
		if count != 1 {
			return TopoUnsupported, nil, nil
		}
		relay[i] = found
	}

	var table RoleTable
	for i := 0; i < worldSize; i++ {
		table[i][3] = int32(relay[i])
	}

	assigned := make([][3]bool, worldSize)
	usedNeighbor := make([][]bool, worldSize)
	for i := range usedNeighbor {
		usedNeighbor[i] = make([]bool, worldSize)
	}
	for k := 0; k < 3; k++ {
		for i := 0; i < worldSize; i++ {
			if assigned[i][k] {
				continue
			}
			var j int = -1
			for cand := 0; cand < worldSize; cand++ {
				if cand == i || mask[i]&(1<<uint(cand)) == 0 {
					continue
				}
				if usedNeighbor[i][cand] {
					continue // already assigned to i in an earlier column
				}
				if assigned[cand][k] {
					continue
				}
				j = cand
				break
			}
			if j < 0 {
				return TopoUnsupported, nil, fmt.Errorf("hcm role assignment failed at rank %d column %d", i, k)
			}
			table[i][k] = int32(j)
			table[j][k] = int32(i)
			assigned[i][k] = true
			assigned[j][k] = true
			usedNeighbor[i][j] = true
			usedNeighbor[j][i] = true
		}
	}

	if err := table.Validate(worldSize); err != nil {
		return TopoUnsupported, nil, fmt.Errorf("hcm role table failed validation: %w", err)
	}

	return TopoHybridCubeMesh, &table, nil
}
