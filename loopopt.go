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

// Package loopopt implements a suite of intraprocedural optimizations over
// the control-flow graphs of package ir: constant folding, constant
// propagation over stack slots, dead code elimination and loop invariant
// code motion with accumulator strength reduction.
package loopopt

import (
	"github.com/cloudwego/loopopt/internal/opt"
	"github.com/cloudwego/loopopt/internal/opts"
	"github.com/cloudwego/loopopt/ir"
)

// Optimize runs every pass over fn, repeatedly, until none of them changes
// anything. It reports whether fn was modified.
//
// The function is checked with ir.Verify first, a malformed function is
// returned as is together with the verification error.
func Optimize(fn *ir.Function, options ...Option) (bool, error) {
	o := opts.GetDefaultOptions()
	for _, f := range options {
		f(&o)
	}
	if err := ir.Verify(fn); err != nil {
		return false, err
	}
	return opt.Optimize(fn, &o)
}

// RunPass runs a single pass over fn, by name. See Passes for the list of
// valid names.
func RunPass(name string, fn *ir.Function, options ...Option) (bool, error) {
	o := opts.GetDefaultOptions()
	for _, f := range options {
		f(&o)
	}
	p, ok := opt.Lookup(name)
	if !ok {
		return false, PassError{Name: name}
	}
	if err := ir.Verify(fn); err != nil {
		return false, err
	}
	return p.Apply(fn, &o)
}

// Passes returns the names of every pass, in the order Optimize runs them.
func Passes() []string {
	ret := make([]string, 0, len(opt.Passes))
	for _, p := range opt.Passes {
		ret = append(ret, p.Name)
	}
	return ret
}
