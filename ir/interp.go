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

package ir

import (
    `errors`
    `fmt`
)

const (
    _DefaultMaxSteps = 1 << 20
)

// ErrStepLimit is returned when the interpreter gives up on a function that
// runs for too long.
var ErrStepLimit = errors.New("ir: step limit exceeded")

// Extern implements an external function for the interpreter.
type Extern func(args []int64) int64

// Env configures an interpreter run. The zero value is usable.
type Env struct {
    Externs  map[string]Extern
    MaxSteps int
}

// CallRecord is one observed call to an external function.
type CallRecord struct {
    Callee string
    Args   []int64
}

// Result is the observable behaviour of one run: the return value and the
// sequence of external calls.
type Result struct {
    Value int64
    Calls []CallRecord
    Steps int
}

// TrapError is returned when the program performs an operation with
// undefined behaviour.
type TrapError struct {
    Instr  string
    Reason string
}

func (self TrapError) Error() string {
    return fmt.Sprintf("trap at `%s`: %s", self.Instr, self.Reason)
}

type _Interp struct {
    env  *Env
    mem  [][]int64
    vals map[*Instr]int64
    args map[*Param]int64
    res  Result
}

// Interpret runs fn on the given arguments. Memory is zero-initialized, and
// pointers are opaque handles into interpreter-owned objects.
func Interpret(fn *Function, args []int64, env *Env) (*Result, error) {
    if env == nil {
        env = new(Env)
    }

    /* check the arguments */
    if len(args) != len(fn.Params) {
        return nil, fmt.Errorf("ir: @%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
    }

    /* initialize the interpreter */
    ip := &_Interp {
        env  : env,
        vals : make(map[*Instr]int64),
        args : make(map[*Param]int64, len(args)),
    }

    /* bind the arguments */
    for i, p := range fn.Params {
        ip.args[p] = p.Ty.Wrap(args[i])
    }

    /* run the function */
    if err := ip.run(fn); err != nil {
        return nil, err
    } else {
        return &ip.res, nil
    }
}

func (self *_Interp) value(v Value) int64 {
    switch p := v.(type) {
        case *Const : return p.V
        case *Param : return self.args[p]
        case *Instr : return self.vals[p]
        default     : panic("unreachable")
    }
}

func (self *_Interp) deref(ins *Instr, ptr int64) (*int64, error) {
    obj := int(ptr >> 32) - 1
    off := int(int32(ptr))

    /* check for object bounds */
    if obj < 0 || obj >= len(self.mem) {
        return nil, TrapError { Instr: ins.String(), Reason: "invalid pointer" }
    } else if off < 0 || off >= len(self.mem[obj]) {
        return nil, TrapError { Instr: ins.String(), Reason: "out of bounds access" }
    } else {
        return &self.mem[obj][off], nil
    }
}

func (self *_Interp) run(fn *Function) error {
    var err error
    var cell *int64

    /* limit the number of steps */
    max := self.env.MaxSteps
    if max <= 0 {
        max = _DefaultMaxSteps
    }

    /* start from the entry block */
    bb := fn.Entry()
    if bb == nil {
        return fmt.Errorf("ir: @%s has no blocks", fn.Name)
    }

    /* execute until return */
    for {
        var next *BasicBlock
        for _, ins := range bb.Ins {
            if self.res.Steps++; self.res.Steps > max {
                return ErrStepLimit
            }

            /* dispatch on the instruction kind */
            switch ins.Kind {
                default: {
                    return TrapError { Instr: ins.String(), Reason: "cannot interpret" }
                }

                /* allocate a new object */
                case KindAlloca: {
                    n := ins.Len
                    if n < 1 { n = 1 }
                    self.mem = append(self.mem, make([]int64, n))
                    self.vals[ins] = int64(len(self.mem)) << 32
                }

                /* memory access */
                case KindLoad: {
                    if cell, err = self.deref(ins, self.value(ins.Args[0])); err != nil {
                        return err
                    } else {
                        self.vals[ins] = ins.Ty.Wrap(*cell)
                    }
                }

                /* memory store */
                case KindStore: {
                    if cell, err = self.deref(ins, self.value(ins.Args[1])); err != nil {
                        return err
                    } else {
                        *cell = self.value(ins.Args[0])
                    }
                }

                /* arithmetic */
                case KindBinary: {
                    if r, ok := EvalBinary(ins.Op, ins.Ty, self.value(ins.Args[0]), self.value(ins.Args[1])); !ok {
                        return TrapError { Instr: ins.String(), Reason: "division by zero or overflow" }
                    } else {
                        self.vals[ins] = r
                    }
                }

                /* comparison */
                case KindCompare: {
                    if EvalCompare(ins.Pred, ins.Args[0].Type(), self.value(ins.Args[0]), self.value(ins.Args[1])) {
                        self.vals[ins] = 1
                    } else {
                        self.vals[ins] = 0
                    }
                }

                /* conversion */
                case KindCast: {
                    self.vals[ins] = EvalCast(ins.Cast, ins.Args[0].Type(), ins.Ty, self.value(ins.Args[0]))
                }

                /* selection */
                case KindSelect: {
                    if self.value(ins.Args[0]) != 0 {
                        self.vals[ins] = self.value(ins.Args[1])
                    } else {
                        self.vals[ins] = self.value(ins.Args[2])
                    }
                }

                /* address computation */
                case KindAddr: {
                    self.vals[ins] = self.value(ins.Args[0]) + self.value(ins.Args[1])
                }

                /* external call */
                case KindCall: {
                    if err = self.call(ins); err != nil {
                        return err
                    }
                }

                /* control flow */
                case KindBranch: {
                    if len(ins.Args) == 0 || self.value(ins.Args[0]) != 0 {
                        next = ins.Succ[0]
                    } else {
                        next = ins.Succ[1]
                    }
                }

                /* function return */
                case KindReturn: {
                    if len(ins.Args) != 0 {
                        self.res.Value = self.value(ins.Args[0])
                    }
                    return nil
                }
            }
        }

        /* fell off the end of the block */
        if next == nil {
            return fmt.Errorf("ir: block %s of @%s is not terminated", bb.Ref(), fn.Name)
        } else {
            bb = next
        }
    }
}

func (self *_Interp) call(ins *Instr) error {
    var ret int64
    var args []int64

    /* evaluate the arguments */
    for _, v := range ins.Args {
        args = append(args, self.value(v))
    }

    /* record the call */
    self.res.Calls = append(self.res.Calls, CallRecord {
        Args   : args,
        Callee : ins.Callee,
    })

    /* invoke the external function if any */
    if fn, ok := self.env.Externs[ins.Callee]; ok {
        ret = fn(args)
    } else if ins.HasResult() {
        return fmt.Errorf("ir: unknown external function @%s", ins.Callee)
    }

    /* save the result */
    if ins.HasResult() {
        self.vals[ins] = ins.Ty.Wrap(ret)
    }
    return nil
}
