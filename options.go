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

package loopopt

import (
	"fmt"
	"io"

	"github.com/cloudwego/loopopt/internal/opts"
	"github.com/cloudwego/loopopt/ir"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithMaxRounds limits the number of rounds Optimize performs over a
// function.
//
// Each round runs every pass once. Optimize is always bounded by the number
// of instructions in the function plus one, this option can only lower that
// bound.
//
// Set this option to "0" to use only the instruction count bound.
//
// The default value of this option is "0", or the value of the
// `LOOPOPT_MAX_ROUNDS` environment variable.
func WithMaxRounds(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("loopopt: invalid round limit: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxRounds = n }
	}
}

// WithStrictDivision controls what constant folding does when it finds a
// signed division by the literal zero.
//
// In strict mode the whole run fails with a DivisionByZeroError, rewrites
// made before the division was found are kept. Set this option to "false"
// to leave such divisions in place unfolded and optimize the rest of the
// function as usual.
//
// The default value of this option is "true", or the value of the
// `LOOPOPT_STRICT_SDIV` environment variable.
func WithStrictDivision(v bool) Option {
	return func(o *opts.Options) { o.StrictDivision = v }
}

// WithTrace sends one line per rewrite, and per missed opportunity, to w.
//
// Set this option to "nil" to disable tracing.
//
// Setting the `LOOPOPT_TRACE` environment variable to a true value sends the
// trace to os.Stderr by default.
func WithTrace(w io.Writer) Option {
	return func(o *opts.Options) { o.Trace = w }
}

// WithOracle replaces the oracle deciding which instructions loop invariant
// code motion may execute speculatively.
//
// The default is ir.DefaultOracle.
func WithOracle(oracle ir.Oracle) Option {
	if oracle == nil {
		panic("loopopt: nil speculation oracle")
	} else {
		return func(o *opts.Options) { o.Oracle = oracle }
	}
}
