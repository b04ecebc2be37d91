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

// ConfigurationError reports an invalid call to AllReduce,
// AnalyzeTopology or InitTopoInfo: a world size outside
// [MinWorldSize, MaxWorldSize], a rank out of range, a payload over
// MaxIntraNodeSize, an AlgoHCM call with a world size other than
// MaxWorldSize, AlgoNone, buffers too short for the aligned payload, and
// similar caller mistakes caught before anything is launched.
// SelectAllReduceAlgo never returns an error; it reports an unusable
// payload or topology as AlgoNone.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("nvreduce: configuration error: %s", e.Reason)
}

// CapabilityError reports that this process lacks the packed bf16 add
// and system-scope atomic encodings AllReduce requires. Callers should
// check IsSupported before calling AllReduce.
type CapabilityError struct {
	Reason string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("nvreduce: capability error: %s", e.Reason)
}

// LaunchError wraps a failure from the block-goroutine launch itself,
// as opposed to a validation failure caught before launch.
type LaunchError struct {
	Algo AllReduceAlgo
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("nvreduce: launch error (%s): %v", e.Algo, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
