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
    `github.com/cloudwego/loopopt/internal/opts`
    `github.com/cloudwego/loopopt/ir`
)

// ConstFold evaluates instructions whose operands are all literals, and
// turns branches on literal conditions into unconditional jumps.
type ConstFold struct{}

func (ConstFold) binary(fn *ir.Function, o *opts.Options, ins *ir.Instr) (ir.Value, error) {
    x, ok := ir.AsConst(ins.Args[0])
    if !ok {
        return nil, nil
    }

    /* both operands must be literals */
    y, ok := ir.AsConst(ins.Args[1])
    if !ok {
        return nil, nil
    }

    /* evaluate the expression */
    if r, ok := ir.EvalBinary(ins.Op, ins.Ty, x.V, y.V); ok {
        return ir.Int(ins.Ty, r), nil
    }

    /* only division by zero is worth reporting */
    if y.V != 0 {
        o.Tracef("constant-folding: @%s: `%s` overflows, not folded", fn.Name, ins)
        return nil, nil
    }

    /* signed division by zero aborts the whole run in strict mode */
    count(&DivZeroCount, 1)
    if ins.Op == ir.OpSDiv && o.StrictDivision {
        return nil, DivisionByZeroError { Func: fn.Name, Instr: ins.String() }
    } else {
        o.Tracef("constant-folding: @%s: `%s` divides by zero, not folded", fn.Name, ins)
        return nil, nil
    }
}

func (ConstFold) compare(ins *ir.Instr) ir.Value {
    if x, ok := ir.AsConst(ins.Args[0]); !ok {
        return nil
    } else if y, ok := ir.AsConst(ins.Args[1]); !ok {
        return nil
    } else {
        return ir.Bool(ir.EvalCompare(ins.Pred, x.Ty, x.V, y.V))
    }
}

func (ConstFold) cast(ins *ir.Instr) ir.Value {
    if x, ok := ir.AsConst(ins.Args[0]); !ok {
        return nil
    } else {
        return ir.Int(ins.Ty, ir.EvalCast(ins.Cast, x.Ty, ins.Ty, x.V))
    }
}

func (ConstFold) choose(ins *ir.Instr) ir.Value {
    if c, ok := ir.AsConst(ins.Args[0]); !ok {
        return nil
    } else if c.V != 0 {
        return ins.Args[1]
    } else {
        return ins.Args[2]
    }
}

func (ConstFold) branch(fn *ir.Function, o *opts.Options, ins *ir.Instr) bool {
    var to *ir.BasicBlock
    var cc *ir.Const
    var ok bool

    /* only conditional branches on a literal */
    if !ins.IsConditional() {
        return false
    } else if cc, ok = ir.AsConst(ins.Args[0]); !ok {
        return false
    }

    /* select the taken edge */
    if cc.V != 0 {
        to = ins.Succ[0]
    } else {
        to = ins.Succ[1]
    }

    /* replace with an unconditional branch */
    br := fn.NewInstr(ir.KindBranch, ir.Void)
    br.Succ = []*ir.BasicBlock { to }
    ins.Block.InsertBefore(br, ins)

    /* the original branch is gone, the other target may become unreachable */
    o.Tracef("constant-folding: @%s: `%s` => `%s`", fn.Name, ins, br)
    ins.Erase()
    return true
}

func (self ConstFold) fold(fn *ir.Function, o *opts.Options, ins *ir.Instr) (bool, error) {
    var err error
    var val ir.Value

    /* evaluate the instruction */
    switch ins.Kind {
        case ir.KindBinary  : val, err = self.binary(fn, o, ins)
        case ir.KindCompare : val = self.compare(ins)
        case ir.KindCast    : val = self.cast(ins)
        case ir.KindSelect  : val = self.choose(ins)
        case ir.KindBranch  : return self.branch(fn, o, ins), nil
        default             : return false, nil
    }

    /* cannot be folded */
    if err != nil || val == nil {
        return false, err
    }

    /* replace every use, and delete the instruction */
    fn.ReplaceAllUsesWith(ins, val)
    o.Tracef("constant-folding: @%s: `%s` => %s", fn.Name, ins, val.Ref())
    ins.Erase()
    return true, nil
}

func (self ConstFold) Apply(fn *ir.Function, o *opts.Options) (bool, error) {
    var ok bool
    var err error
    var changed bool

    /* fold until nothing changes, so that a second run is a no-op */
    for done := false; !done; {
        done = true
        for _, ins := range fn.Instrs() {
            if ok, err = self.fold(fn, o, ins); err != nil {
                return changed, err
            } else if ok {
                done = false
                changed = true
                self.count(ins)
            }
        }
    }

    /* all done */
    return changed, nil
}

func (ConstFold) count(ins *ir.Instr) {
    if ins.Kind == ir.KindBranch {
        count(&BranchFoldCount, 1)
    } else {
        count(&FoldCount, 1)
    }
}
