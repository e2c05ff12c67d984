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

// _Point is a program point: the position right before and right after one
// instruction. Points live in a flat arena and refer to each other by index.
type _Point struct {
    ins  *ir.Instr
    pred []int
}

// _Solver computes, for every tracked location and every program point,
// the state of the location before (in) and after (out) the instruction.
type _Solver struct {
    locs   []*ir.Instr
    index  map[*ir.Instr]int
    points []_Point
    ids    map[*ir.Instr]int
    entry  int
    in     [][]State
    out    [][]State
    passes int
}

// trackable reports whether the alloca is a scalar whose address never
// escapes: it is only ever used as the pointer of a load or a store.
func trackable(fn *ir.Function, p *ir.Instr) bool {
    if p.Kind != ir.KindAlloca || p.Len > 1 || !p.Elem.IsInt() {
        return false
    }

    /* check every use of the address */
    for _, u := range fn.Uses(p) {
        switch u.Kind {
            case ir.KindLoad  : break
            case ir.KindStore : if u.Args[0] == p { return false }
            default           : return false
        }
    }
    return true
}

// newSolver builds the arena for fn.
func newSolver(fn *ir.Function) *_Solver {
    ret := &_Solver {
        entry : -1,
        index : make(map[*ir.Instr]int),
        ids   : make(map[*ir.Instr]int),
    }

    /* discover the locations */
    for _, ins := range fn.Instrs() {
        if trackable(fn, ins) {
            ret.index[ins] = len(ret.locs)
            ret.locs = append(ret.locs, ins)
        }
    }

    /* allocate one point per instruction */
    for _, ins := range fn.Instrs() {
        ret.ids[ins] = len(ret.points)
        ret.points = append(ret.points, _Point { ins: ins })
    }

    /* the first instruction of the entry block is the entry point */
    if bb := fn.Entry(); bb != nil && bb.First() != nil {
        ret.entry = ret.ids[bb.First()]
    }

    /* link the points within a block, and the block heads to the terminators of the predecessors */
    for _, bb := range fn.Blocks {
        for i, ins := range bb.Ins {
            if i != 0 {
                id := ret.ids[ins]
                ret.points[id].pred = append(ret.points[id].pred, ret.ids[bb.Ins[i - 1]])
            }
        }

        /* the terminator flows into every successor */
        if tr := bb.Terminator(); tr != nil {
            for _, s := range distinctBlocks(tr.Succ) {
                if hd := s.First(); hd != nil {
                    id := ret.ids[hd]
                    ret.points[id].pred = append(ret.points[id].pred, ret.ids[tr])
                }
            }
        }
    }

    /* all states start unresolved */
    ret.in = make([][]State, len(ret.points))
    ret.out = make([][]State, len(ret.points))

    /* allocate the state table */
    for i := range ret.points {
        ret.in[i] = make([]State, len(ret.locs))
        ret.out[i] = make([]State, len(ret.locs))
    }
    return ret
}

// stateIn computes the expected in-state of a location at a point. The
// entry point knows nothing, anything else merges its predecessors.
func (self *_Solver) stateIn(p int, loc int) State {
    if p == self.entry {
        return varying
    }

    /* merge every predecessor */
    st := unresolved
    for _, q := range self.points[p].pred {
        st = st.Join(self.out[q][loc])
    }
    return st
}

// stateOut is the transfer function of the instruction at p.
func (self *_Solver) stateOut(p int, loc int, in State) State {
    ins := self.points[p].ins
    ptr := self.locs[loc]

    /* nothing flows out of a point nothing flows into */
    if in.Kind == Unresolved {
        return unresolved
    }

    /* a fresh allocation has unknown content */
    if ins == ptr {
        return varying
    }

    /* only stores to this location change anything */
    if ins.Kind != ir.KindStore || ins.Args[1] != ptr {
        return in
    }

    /* storing a literal generates a constant, anything else kills it */
    if c, ok := ir.AsConst(ins.Args[0]); ok {
        return constant(c.V)
    } else {
        return varying
    }
}

// Solve iterates until no state changes. Each new state is joined with the
// old one, so states only rise and the iteration terminates.
func (self *_Solver) Solve() {
    for done := false; !done; {
        done = true
        self.passes++

        /* recompute every (point, location) pair */
        for p := range self.points {
            for l := range self.locs {
                in := self.in[p][l].Join(self.stateIn(p, l))
                out := self.out[p][l].Join(self.stateOut(p, l, in))

                /* check for changes */
                if in != self.in[p][l] || out != self.out[p][l] {
                    done = false
                    self.in[p][l] = in
                    self.out[p][l] = out
                }
            }
        }
    }
}

// StateAt returns the state of the location ptr right before ins. Locations
// that are not tracked are always Varying.
func (self *_Solver) StateAt(ins *ir.Instr, ptr ir.Value) State {
    if p, ok := self.ids[ins]; !ok {
        return varying
    } else if a, ok := ptr.(*ir.Instr); !ok {
        return varying
    } else if l, ok := self.index[a]; !ok {
        return varying
    } else {
        return self.in[p][l]
    }
}

// Tracked reports whether ptr is a location known to the solver.
func (self *_Solver) Tracked(ptr ir.Value) bool {
    if a, ok := ptr.(*ir.Instr); !ok {
        return false
    } else {
        _, ok = self.index[a]
        return ok
    }
}

func (self *_Solver) dump() map[string][]string {
    ret := make(map[string][]string, len(self.locs))
    for l, ptr := range self.locs {
        for p := range self.points {
            ret[ptr.Ref()] = append(ret[ptr.Ref()], self.in[p][l].String())
        }
    }
    return ret
}

// solveFunction runs the propagation analysis on fn without modifying it.
func solveFunction(fn *ir.Function) *_Solver {
    s := newSolver(fn)
    s.Solve()
    return s
}

// ConstProp replaces loads of locations holding a known constant with the
// constant itself.
type ConstProp struct{}

func (ConstProp) Apply(fn *ir.Function, o *opts.Options) (bool, error) {
    var n int
    var sv *_Solver

    /* nothing to do for empty functions */
    if len(fn.Blocks) == 0 {
        return false, nil
    }

    /* run the analysis */
    sv = solveFunction(fn)
    if o.Tracing() {
        o.Dump("constant-propagation: @" + fn.Name, sv.dump())
    }

    /* replace the uses of every load from a constant location */
    for _, ins := range fn.Instrs() {
        if ins.Kind == ir.KindLoad {
            if st := sv.StateAt(ins, ins.Args[0]); st.IsConst() {
                if m := fn.ReplaceAllUsesWith(ins, ir.Int(ins.Ty, st.Value)); m != 0 {
                    n += m
                    o.Tracef("constant-propagation: @%s: `%s` => %d (%d uses)", fn.Name, ins, ir.Int(ins.Ty, st.Value).V, m)
                }
            }
        }
    }

    /* update the statistics */
    count(&PropagateCount, n)
    return n != 0, nil
}

func distinctBlocks(bbs []*ir.BasicBlock) []*ir.BasicBlock {
    ret := make([]*ir.BasicBlock, 0, len(bbs))
    for _, bb := range bbs {
        if !containsBlock(ret, bb) {
            ret = append(ret, bb)
        }
    }
    return ret
}

func containsBlock(bbs []*ir.BasicBlock, bb *ir.BasicBlock) bool {
    for _, p := range bbs {
        if p == bb {
            return true
        }
    }
    return false
}
