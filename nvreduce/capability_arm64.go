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

//go:build arm64

package nvreduce

import "golang.org/x/sys/cpu"

func init() {
	if noSimdEnv() {
		currentLevel = DispatchScalar
		return
	}

	// ARM64 always has NEON (ASIMD); cpu.ARM64.HasASIMD is checked for
	// consistency with the amd64 path rather than because it can be false.
	if !cpu.ARM64.HasASIMD {
		currentLevel = DispatchScalar
		return
	}

	if armBF16Available() {
		currentLevel = DispatchNEONBF16
	} else {
		currentLevel = DispatchNEON
	}
}

// armBF16Available reports ARMv8.6-A BF16 extension support.
// golang.org/x/sys/cpu has no explicit BF16 feature bit; on Darwin we
// fall back to a sysctl probe (capability_bf16_darwin.go), elsewhere we
// report unavailable rather than guess.
var armBF16Available = func() bool { return hasBF16Darwin }
