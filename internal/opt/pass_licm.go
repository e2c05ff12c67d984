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
    `github.com/cloudwego/loopopt/internal/analysis`
    `github.com/cloudwego/loopopt/internal/opts`
    `github.com/cloudwego/loopopt/ir`
)

type _MotionKind uint8

const (
    _M_hoist _MotionKind = iota
    _M_store
    _M_reduce
)

// _Motion is one transformation selected while scanning a loop. They are
// applied only after the whole loop has been scanned.
type _Motion struct {
    kind _MotionKind
    ins  *ir.Instr
    trip uint64
}

type _LoopScan struct {
    fn    *ir.Function
    o     *opts.Options
    dt    analysis.DominatorTree
    loop  *analysis.Loop
    sv    *_Solver
    moved map[*ir.Instr]bool
    refs  map[ir.Value]int
    trip  *uint64
    err   error
}

func newLoopScan(fn *ir.Function, o *opts.Options, dt analysis.DominatorTree, l *analysis.Loop) *_LoopScan {
    ret := &_LoopScan {
        fn    : fn,
        o     : o,
        dt    : dt,
        loop  : l,
        moved : make(map[*ir.Instr]bool),
        refs  : make(map[ir.Value]int),
    }

    /* count the references to every pointer within the loop */
    for _, ins := range l.Instrs() {
        for _, v := range ins.Args {
            if _, ok := v.(*ir.Const); !ok {
                ret.refs[v]++
            }
        }
    }
    return ret
}

// invariant reports whether v has the same value on every iteration.
func (self *_LoopScan) invariant(v ir.Value) bool {
    if p, ok := v.(*ir.Instr); !ok {
        return true
    } else {
        return !self.loop.Contains(p.Block) || self.moved[p]
    }
}

// dominatesExits reports whether bb runs on every path leaving the loop.
func (self *_LoopScan) dominatesExits(bb *ir.BasicBlock) bool {
    for _, ex := range self.loop.Exits {
        if !self.dt.Dominates(bb, ex) {
            return false
        }
    }
    return true
}

func (self *_LoopScan) pure(ins *ir.Instr) bool {
    switch ins.Kind {
        case ir.KindBinary  : break
        case ir.KindCompare : break
        case ir.KindCast    : break
        case ir.KindSelect  : break
        case ir.KindAddr    : break
        default             : return false
    }

    /* every operand must be loop invariant */
    for _, v := range ins.Args {
        if !self.invariant(v) {
            return false
        }
    }

    /* must be safe to execute unconditionally */
    return self.o.Speculatable(ins) && self.dominatesExits(ins.Block)
}

func (self *_LoopScan) store(ins *ir.Instr) bool {
    if ins.Kind != ir.KindStore {
        return false
    }

    /* the destination must be a private location allocated outside the loop */
    ptr, ok := ins.Args[1].(*ir.Instr)
    if !ok || !self.invariant(ptr) || !trackable(self.fn, ptr) {
        return false
    }

    /* no other instruction in the loop may touch it */
    if self.refs[ptr] != 1 || !self.invariant(ins.Args[0]) {
        return false
    } else {
        return self.dominatesExits(ins.Block)
    }
}

// accumulator recognizes `%v = load %p; %w = add %v, c; store %w, %p`, and
// returns the store.
func (self *_LoopScan) accumulator(ins *ir.Instr) *ir.Instr {
    var ok bool
    var c *ir.Const
    var x *ir.Instr
    var ptr *ir.Instr

    /* must start with a load from a private location */
    if ins.Kind != ir.KindLoad {
        return nil
    } else if ptr, ok = ins.Args[0].(*ir.Instr); !ok || !self.invariant(ptr) || !trackable(self.fn, ptr) {
        return nil
    }

    /* the block runs exactly once per iteration */
    bb := self.loop.Header
    lt := self.loop.Latch
    if ins.Block == bb || ins.Block == lt || lt == nil || !self.dt.Dominates(ins.Block, lt) || isNested(self.loop, ins.Block) {
        return nil
    }

    /* followed by the update */
    upd := ins.Next()
    if upd == nil || upd.Kind != ir.KindBinary {
        return nil
    }

    /* add or subtract a constant */
    switch upd.Op {
        case ir.OpAdd : x, c = addOperands(upd)
        case ir.OpSub : x, c = subOperands(upd)
        default       : return nil
    }

    /* the update must apply to the loaded value */
    if x != ins || c == nil {
        return nil
    }

    /* followed by the store back */
    st := upd.Next()
    if st == nil || st.Kind != ir.KindStore || st.Args[0] != upd || st.Args[1] != ptr {
        return nil
    }

    /* the location is only touched by the triplet, the values only by each other */
    if self.refs[ptr] != 2 || len(self.fn.Uses(ins)) != 1 || len(self.fn.Uses(upd)) != 1 {
        return nil
    } else {
        return st
    }
}

// tripCount derives the trip count of the loop once, the result is shared
// by every accumulator in the loop.
func (self *_LoopScan) tripCount() (uint64, error) {
    if self.trip != nil || self.err != nil {
        return self.tripValue(), self.err
    }

    /* the propagation solver provides the initial value */
    if self.sv == nil {
        self.sv = solveFunction(self.fn)
    }

    /* find the induction variable */
    iv, err := inductionVar(self.loop, self.sv)
    if err != nil {
        self.err = err
        return 0, err
    }

    /* compute the trip count */
    n, err := iv.TripCount()
    if err != nil {
        self.err = err
        return 0, err
    }

    /* cache the result */
    self.trip = &n
    self.o.Tracef("licm: @%s: loop %s runs %d times (induction variable %s, %s %d, step %d, from %d)", self.fn.Name, self.loop.Header.Ref(), n, iv.Ptr.Ref(), iv.Pred, iv.Bound, iv.Step, iv.Init)
    return n, nil
}

func (self *_LoopScan) tripValue() uint64 {
    if self.trip == nil {
        return 0
    } else {
        return *self.trip
    }
}

// Scan classifies every instruction of the loop body.
func (self *_LoopScan) Scan(order []*ir.BasicBlock) []_Motion {
    var ret []_Motion
    for _, bb := range order {
        if !self.loop.Contains(bb) {
            continue
        }

        /* check every instruction, in order */
        for _, ins := range bb.Ins {
            if self.pure(ins) {
                self.moved[ins] = true
                ret = append(ret, _Motion { kind: _M_hoist, ins: ins })
                continue
            }

            /* invariant stores */
            if self.store(ins) {
                self.moved[ins] = true
                ret = append(ret, _Motion { kind: _M_store, ins: ins })
                continue
            }

            /* accumulators */
            if st := self.accumulator(ins); st != nil {
                if n, err := self.tripCount(); err != nil {
                    self.o.Tracef("licm: @%s: accumulator `%s` not reduced: %v", self.fn.Name, st, err)
                } else {
                    ret = append(ret, _Motion { kind: _M_reduce, ins: ins, trip: n })
                }
            }
        }
    }
    return ret
}

// LICM hoists loop invariant computations and stores into the preheader, and
// replaces simple accumulators with a single update before the loop.
type LICM struct{}

func (LICM) hoist(fn *ir.Function, o *opts.Options, l *analysis.Loop, ins *ir.Instr) {
    o.Tracef("licm: @%s: hoisted `%s` from %s to %s", fn.Name, ins, ins.Block.Ref(), l.Preheader.Ref())
    ins.MoveBefore(l.Preheader.Terminator())
}

func (LICM) reduce(fn *ir.Function, o *opts.Options, l *analysis.Loop, ins *ir.Instr, trip uint64) {
    upd := ins.Next()
    st := upd.Next()
    pos := l.Preheader.Terminator()

    /* find the delta operand */
    i := 1
    if _, ok := upd.Args[0].(*ir.Const); ok {
        i = 0
    }

    /* delta * trip count */
    ty := upd.Ty
    mul := fn.NewInstr(ir.KindBinary, ty, upd.Args[i], ir.Int(ty, int64(trip)))
    mul.Op = ir.OpMul
    l.Preheader.InsertBefore(mul, pos)

    /* apply the whole delta once */
    upd.Args[i] = mul
    ins.MoveBefore(pos)
    upd.MoveBefore(pos)
    st.MoveBefore(pos)
    o.Tracef("licm: @%s: reduced accumulator `%s` into %s", fn.Name, upd, l.Preheader.Ref())
}

func (self LICM) Apply(fn *ir.Function, o *opts.Options) (bool, error) {
    if len(fn.Blocks) == 0 {
        return false, nil
    }

    /* the motions never change the shape of the CFG, analyze it once */
    changed := false
    dt := analysis.BuildDominatorTree(fn.Entry())
    li := analysis.FindLoops(fn, dt)
    rpo := analysis.ReversePostOrder(fn)

    /* dump the loop nest */
    if o.Tracing() {
        for _, l := range li.Loops {
            o.Tracef("licm: @%s: %s", fn.Name, l)
        }
    }

    /* innermost loops first */
    for _, l := range li.Loops {
        if l.Preheader == nil {
            o.Tracef("licm: @%s: loop %s has no preheader, skipped", fn.Name, l.Header.Ref())
            continue
        }

        /* select, then move */
        for _, m := range newLoopScan(fn, o, dt, l).Scan(rpo) {
            changed = true
            switch m.kind {
                case _M_hoist  : self.hoist(fn, o, l, m.ins); count(&HoistCount, 1)
                case _M_store  : self.hoist(fn, o, l, m.ins); count(&StoreHoistCount, 1)
                case _M_reduce : self.reduce(fn, o, l, m.ins, m.trip); count(&ReduceCount, 1)
                default        : panic("licm: invalid motion kind")
            }
        }
    }
    return changed, nil
}
