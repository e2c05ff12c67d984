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
    `errors`
    `math/big`

    `github.com/cloudwego/loopopt/internal/analysis`
    `github.com/cloudwego/loopopt/ir`
)

var (
    errNoLatch     = errors.New("no unique unconditional latch")
    errExits       = errors.New("loop exits from blocks other than the header")
    errExitTest    = errors.New("header does not end with a recognized exit test")
    errNoInduction = errors.New("exit test does not compare a tracked location against a literal")
    errStep        = errors.New("induction variable is not updated by a constant step in the latch")
    errInit        = errors.New("induction variable has no constant initial value")
    errTripCount   = errors.New("trip count overflows or the loop does not terminate")
)

// _InductionVar describes a loop of the shape
//
//     x = Init
//     while Pred(x, Bound) { ...; x = x + Step }
//
type _InductionVar struct {
    Ptr   *ir.Instr
    Ty    ir.Type
    Pred  ir.Predicate
    Init  int64
    Step  int64
    Bound int64
}

// inductionVar recognizes the canonical induction variable of a loop. The
// loop must exit only from its header, and have a single unconditional latch
// that is not part of a nested loop.
func inductionVar(l *analysis.Loop, sv *_Solver) (*_InductionVar, error) {
    hd := l.Header
    lt := l.Latch

    /* the latch must be a plain jump back to the header */
    if lt == nil || lt == hd || isNested(l, lt) {
        return nil, errNoLatch
    } else if tr := lt.Terminator(); tr.IsConditional() || tr.Succ[0] != hd {
        return nil, errNoLatch
    }

    /* every exit edge must leave from the header */
    if ex := l.Exiting(); len(ex) != 1 || ex[0] != hd {
        return nil, errExits
    }

    /* the header must end with a branch on a comparison in the header */
    tr := hd.Terminator()
    if !tr.IsConditional() {
        return nil, errExitTest
    }

    /* the comparison itself */
    cmp, ok := tr.Args[0].(*ir.Instr)
    if !ok || cmp.Kind != ir.KindCompare || cmp.Block != hd {
        return nil, errExitTest
    }

    /* find out which edge stays in the loop */
    pred := cmp.Pred
    stay0, stay1 := l.Contains(tr.Succ[0]), l.Contains(tr.Succ[1])

    /* exactly one of them must leave */
    switch {
        case stay0 && !stay1 : break
        case stay1 && !stay0 : pred = pred.Inverse()
        default              : return nil, errExitTest
    }

    /* normalize to `load x` on the left and the bound on the right */
    ld, bound := asInductionTest(cmp)
    if ld == nil {
        return nil, errNoInduction
    } else if ld != cmp.Args[0] {
        pred = pred.Swapped()
    }

    /* the location must be a tracked scalar allocated before the loop */
    ptr, ok := ld.Args[0].(*ir.Instr)
    if !ok || ld.Block != hd || !sv.Tracked(ptr) || l.ContainsValue(ptr) {
        return nil, errNoInduction
    }

    /* only integers at least one byte wide */
    ty := ld.Ty
    if ty != ir.ElemOf(ptr) || !ty.IsInt() || ty.Bits() < 8 {
        return nil, errNoInduction
    }

    /* find the step */
    step, ok := inductionStep(l, ptr, ty)
    if !ok {
        return nil, errStep
    }

    /* the value on the preheader edge */
    st := sv.StateAt(l.Preheader.Terminator(), ptr)
    if !st.IsConst() {
        return nil, errInit
    }

    /* construct the induction variable */
    return &_InductionVar {
        Ptr   : ptr,
        Ty    : ty,
        Pred  : pred,
        Init  : ty.Wrap(st.Value),
        Step  : step,
        Bound : ty.Wrap(bound.V),
    }, nil
}

func asInductionTest(cmp *ir.Instr) (*ir.Instr, *ir.Const) {
    for i, v := range cmp.Args {
        if p, ok := v.(*ir.Instr); ok && p.Kind == ir.KindLoad {
            if c, ok := cmp.Args[1 - i].(*ir.Const); ok {
                return p, c
            }
        }
    }
    return nil, nil
}

// inductionStep finds the only store to ptr in the loop, which must sit in
// the latch and store `load ptr ± c`.
func inductionStep(l *analysis.Loop, ptr *ir.Instr, ty ir.Type) (int64, bool) {
    var st *ir.Instr
    for _, ins := range l.Instrs() {
        if ins.Kind == ir.KindStore && ins.Args[1] == ptr {
            if st != nil {
                return 0, false
            } else {
                st = ins
            }
        }
    }

    /* must be in the latch */
    if st == nil || st.Block != l.Latch {
        return 0, false
    }

    /* the stored value must be a binary operation in the latch */
    bin, ok := st.Args[0].(*ir.Instr)
    if !ok || bin.Kind != ir.KindBinary || bin.Block != l.Latch || bin.Ty != ty {
        return 0, false
    }

    /* x + c, c + x or x - c */
    var c *ir.Const
    var x *ir.Instr
    switch bin.Op {
        case ir.OpAdd : x, c = addOperands(bin)
        case ir.OpSub : x, c = subOperands(bin)
        default       : return 0, false
    }

    /* x must be the current value of the location, loaded before the store */
    if x == nil || x.Kind != ir.KindLoad || x.Args[0] != ptr || x.Block != l.Latch || x.Index() > st.Index() {
        return 0, false
    }

    /* the step must not vanish in the width of the type */
    step := ty.Wrap(c.V)
    if bin.Op == ir.OpSub {
        step = ty.Wrap(-step)
    }

    /* a zero step never terminates */
    if step == 0 {
        return 0, false
    } else {
        return step, true
    }
}

func addOperands(ins *ir.Instr) (*ir.Instr, *ir.Const) {
    for i, v := range ins.Args {
        if p, ok := v.(*ir.Instr); ok {
            if c, ok := ins.Args[1 - i].(*ir.Const); ok {
                return p, c
            }
        }
    }
    return nil, nil
}

func subOperands(ins *ir.Instr) (*ir.Instr, *ir.Const) {
    if p, ok := ins.Args[0].(*ir.Instr); !ok {
        return nil, nil
    } else if c, ok := ins.Args[1].(*ir.Const); !ok {
        return nil, nil
    } else {
        return p, c
    }
}

func isNested(l *analysis.Loop, bb *ir.BasicBlock) bool {
    for _, c := range l.Children {
        if c.Contains(bb) {
            return true
        }
    }
    return false
}

// TripCount is the number of times the back edge is taken, that is how many
// times the loop body runs before the exit test fails.
func (self *_InductionVar) TripCount() (uint64, error) {
    return tripCount(self.Pred, self.Ty, self.Init, self.Step, self.Bound)
}

// tripCount computes the number of iterations of
//
//     for x := init; pred(x, bound); x += step {}
//
// in the width of ty, comparing as signed or unsigned depending on pred. It
// refuses loops where x would wrap around before the test fails, and loops
// that never terminate.
func tripCount(pred ir.Predicate, ty ir.Type, init int64, step int64, bound int64) (uint64, error) {
    var n *big.Int
    var lo, hi *big.Int

    /* convert into the domain of the comparison */
    s := big.NewInt(step)
    a := domain(ty, pred.IsUnsigned(), init)
    b := domain(ty, pred.IsUnsigned(), bound)

    /* the representable range */
    if pred.IsUnsigned() {
        lo = new(big.Int)
        hi = new(big.Int).SetUint64(ty.MaxUnsigned())
    } else {
        lo = big.NewInt(ty.MinSigned())
        hi = big.NewInt(ty.MaxSigned())
    }

    /* check for predicates */
    switch pred {
        default: {
            return 0, errTripCount
        }

        /* x < b */
        case ir.CmpSlt, ir.CmpUlt: {
            if a.Cmp(b) >= 0 {
                return 0, nil
            } else if s.Sign() <= 0 {
                return 0, errTripCount
            } else {
                n = ceilDiv(new(big.Int).Sub(b, a), s)
            }
        }

        /* x <= b */
        case ir.CmpSle, ir.CmpUle: {
            if a.Cmp(b) > 0 {
                return 0, nil
            } else if s.Sign() <= 0 {
                return 0, errTripCount
            } else {
                n = new(big.Int).Quo(new(big.Int).Sub(b, a), s)
                n.Add(n, big.NewInt(1))
            }
        }

        /* x > b */
        case ir.CmpSgt, ir.CmpUgt: {
            if a.Cmp(b) <= 0 {
                return 0, nil
            } else if s.Sign() >= 0 {
                return 0, errTripCount
            } else {
                n = ceilDiv(new(big.Int).Sub(a, b), new(big.Int).Neg(s))
            }
        }

        /* x >= b */
        case ir.CmpSge, ir.CmpUge: {
            if a.Cmp(b) < 0 {
                return 0, nil
            } else if s.Sign() >= 0 {
                return 0, errTripCount
            } else {
                n = new(big.Int).Quo(new(big.Int).Sub(a, b), new(big.Int).Neg(s))
                n.Add(n, big.NewInt(1))
            }
        }

        /* x != b, must hit b exactly without wrapping */
        case ir.CmpNe: {
            d := new(big.Int).Sub(b, a)
            m := new(big.Int)
            q := new(big.Int)

            /* check for divisibility */
            if d.Sign() == 0 {
                return 0, nil
            } else if q.QuoRem(d, s, m); m.Sign() != 0 || q.Sign() <= 0 {
                return 0, errTripCount
            } else {
                return q.Uint64(), nil
            }
        }

        /* x == b, the first step always leaves */
        case ir.CmpEq: {
            if a.Cmp(b) != 0 {
                return 0, nil
            } else {
                return 1, nil
            }
        }
    }

    /* the last value stored must not wrap around */
    last := new(big.Int).Mul(n, s)
    last.Add(last, a)

    /* check for overflow */
    if last.Cmp(lo) < 0 || last.Cmp(hi) > 0 || !n.IsUint64() {
        return 0, errTripCount
    } else {
        return n.Uint64(), nil
    }
}

func domain(ty ir.Type, unsigned bool, v int64) *big.Int {
    if unsigned {
        return new(big.Int).SetUint64(ty.Unsigned(v))
    } else {
        return big.NewInt(ty.Wrap(v))
    }
}

func ceilDiv(x *big.Int, y *big.Int) *big.Int {
    q, m := new(big.Int).QuoRem(x, y, new(big.Int))
    if m.Sign() != 0 {
        q.Add(q, big.NewInt(1))
    }
    return q
}
