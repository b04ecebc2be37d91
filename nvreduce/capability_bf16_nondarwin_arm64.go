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

//go:build arm64 && !darwin

package nvreduce

// hasBF16Darwin is always false off Darwin; golang.org/x/sys/cpu has no
// portable ARM BF16 feature bit, and this module does not guess on
// platforms where no cheap probe exists.
const hasBF16Darwin = false
