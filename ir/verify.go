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
    `fmt`
)

// VerifyError describes a malformed function.
type VerifyError struct {
    Func   string
    Block  string
    Reason string
}

func (self VerifyError) Error() string {
    if self.Block == "" {
        return fmt.Sprintf("VerifyError(@%s): %s", self.Func, self.Reason)
    } else {
        return fmt.Sprintf("VerifyError(@%s, %s): %s", self.Func, self.Block, self.Reason)
    }
}

var _Arity = [...]int {
    KindOther   : -1,
    KindAlloca  : 0,
    KindLoad    : 1,
    KindStore   : 2,
    KindBinary  : 2,
    KindCompare : 2,
    KindCast    : 1,
    KindSelect  : 3,
    KindAddr    : 2,
    KindCall    : -1,
    KindBranch  : -1,
    KindReturn  : -1,
}

// Verify checks the structural invariants every pass relies on: each block
// ends with exactly one terminator, every operand is a literal, a parameter
// of the function or an instruction still attached to the function, and
// every branch target belongs to the function.
func Verify(fn *Function) error {
    blocks := make(map[*BasicBlock]bool, len(fn.Blocks))
    params := make(map[*Param]bool, len(fn.Params))

    /* collect the blocks and parameters */
    for _, bb := range fn.Blocks { blocks[bb] = true }
    for _, p := range fn.Params { params[p] = true }

    /* empty functions are not allowed */
    if len(fn.Blocks) == 0 {
        return VerifyError { Func: fn.Name, Reason: "function has no blocks" }
    }

    /* check every block */
    for _, bb := range fn.Blocks {
        fail := func(format string, args ...interface{}) error {
            return VerifyError { Func: fn.Name, Block: bb.Ref(), Reason: fmt.Sprintf(format, args...) }
        }

        /* must be properly terminated */
        if bb.Terminator() == nil {
            return fail("block is not terminated")
        }

        /* check every instruction */
        for i, ins := range bb.Ins {
            if ins.Block != bb {
                return fail("instruction %s has a stale parent", ins)
            }

            /* terminators are only allowed at the end */
            if ins.IsTerminator() && i != len(bb.Ins) - 1 {
                return fail("terminator %s in the middle of the block", ins)
            }

            /* check the operand count */
            if n := _Arity[ins.Kind]; n >= 0 && len(ins.Args) != n {
                return fail("%s expects %d operands, got %d", ins.Kind, n, len(ins.Args))
            }

            /* check the branch shape */
            if ins.Kind == KindBranch && len(ins.Succ) != len(ins.Args) + 1 {
                return fail("malformed branch %s", ins)
            }

            /* check every branch target */
            for _, s := range ins.Succ {
                if !blocks[s] {
                    return fail("branch to foreign block %s", s.Ref())
                }
            }

            /* check every operand */
            for _, v := range ins.Args {
                switch p := v.(type) {
                    case *Const : break
                    case *Param : if !params[p] { return fail("operand %s is a foreign parameter", p.Ref()) }
                    case *Instr : if p.Block == nil || !blocks[p.Block] { return fail("operand %s of %s is not in the function", p.Ref(), ins) }
                    default     : return fail("invalid operand in %s", ins)
                }
            }
        }
    }
    return nil
}
