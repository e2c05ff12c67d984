/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package debug

import (
	"sync/atomic"

	"github.com/cloudwego/loopopt/internal/opt"
)

// A Stats records statistics about the optimizer, accumulated over every
// function optimized so far.
type Stats struct {
	Driver      DriverStats
	Folding     FoldStats
	Propagation PropagationStats
	DeadCode    DeadCodeStats
	Motion      MotionStats
}

// A DriverStats records how often the driver ran.
type DriverStats struct {
	Runs   int
	Rounds int
}

// A FoldStats records the rewrites made by constant folding.
type FoldStats struct {
	Instrs       int
	Branches     int
	DivideByZero int
}

// A PropagationStats records the operands replaced by constant propagation.
type PropagationStats struct {
	Operands int
}

// A DeadCodeStats records what dead code elimination removed.
type DeadCodeStats struct {
	Instrs int
	Blocks int
}

// A MotionStats records what loop invariant code motion did.
type MotionStats struct {
	Hoisted      int
	Stores       int
	Accumulators int
}

func load(p *uint64) int {
	return int(atomic.LoadUint64(p))
}

// GetStats returns statistics of the optimizer.
func GetStats() Stats {
	return Stats{
		Driver: DriverStats{
			Runs:   load(&opt.RunCount),
			Rounds: load(&opt.RoundCount),
		},
		Folding: FoldStats{
			Instrs:       load(&opt.FoldCount),
			Branches:     load(&opt.BranchFoldCount),
			DivideByZero: load(&opt.DivZeroCount),
		},
		Propagation: PropagationStats{
			Operands: load(&opt.PropagateCount),
		},
		DeadCode: DeadCodeStats{
			Instrs: load(&opt.DeadInstrCount),
			Blocks: load(&opt.DeadBlockCount),
		},
		Motion: MotionStats{
			Hoisted:      load(&opt.HoistCount),
			Stores:       load(&opt.StoreHoistCount),
			Accumulators: load(&opt.ReduceCount),
		},
	}
}
