/*
 * Copyright 2022 ByteDance Inc.
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

package opt

import (
    `fmt`

    `github.com/cloudwego/loopopt/internal/opts`
    `github.com/cloudwego/loopopt/ir`
)

// Pass is a function-local transformation. Apply reports whether the
// function was modified.
type Pass interface {
    Apply(fn *ir.Function, o *opts.Options) (bool, error)
}

type PassDescriptor struct {
    Pass Pass
    Name string
    Desc string
}

// Passes lists every pass in the order the driver runs them.
var Passes = [...]PassDescriptor {
    { Name: "constant-folding"      , Desc: "Constant Folding"           , Pass: new(ConstFold) },
    { Name: "constant-propagation"  , Desc: "Constant Propagation"       , Pass: new(ConstProp) },
    { Name: "dead-code-elimination" , Desc: "Dead Code Elimination"      , Pass: new(DCE) },
    { Name: "licm"                  , Desc: "Loop Invariant Code Motion" , Pass: new(LICM) },
}

// Lookup finds a pass by name.
func Lookup(name string) (Pass, bool) {
    for _, p := range Passes {
        if p.Name == name {
            return p.Pass, true
        }
    }
    return nil, false
}

// DivisionByZeroError is returned by strict constant folding when a signed
// division by the literal zero is found.
type DivisionByZeroError struct {
    Func  string
    Instr string
}

func (self DivisionByZeroError) Error() string {
    return fmt.Sprintf("DivisionByZeroError(@%s): `%s` divides by zero", self.Func, self.Instr)
}
