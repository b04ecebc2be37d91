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

import "testing"

func TestDispatchLevelString(t *testing.T) {
	tests := []struct {
		level DispatchLevel
		want  string
	}{
		{DispatchScalar, "scalar"},
		{DispatchAVX2, "avx2"},
		{DispatchAVX512BF16, "avx512bf16"},
		{DispatchNEON, "neon"},
		{DispatchNEONBF16, "neon-bf16"},
		{DispatchLevel(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("DispatchLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestIsSupportedMatchesCurrentLevel(t *testing.T) {
	want := currentLevel != DispatchScalar
	if got := IsSupported(); got != want {
		t.Errorf("IsSupported() = %v, want %v (currentLevel=%v)", got, want, currentLevel)
	}
}

func TestNoSimdEnv(t *testing.T) {
	t.Setenv("NVREDUCE_NO_SIMD", "")
	if noSimdEnv() {
		t.Error("noSimdEnv() should be false when unset")
	}

	t.Setenv("NVREDUCE_NO_SIMD", "true")
	if !noSimdEnv() {
		t.Error("noSimdEnv() should be true when set to \"true\"")
	}

	t.Setenv("NVREDUCE_NO_SIMD", "garbage")
	if !noSimdEnv() {
		t.Error("noSimdEnv() should default true for any non-empty unparsable value")
	}
}
