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

// DCE removes instructions without live effects and blocks that cannot be
// reached from the entry block.
type DCE struct{}

func (DCE) candidate(ins *ir.Instr) bool {
    if ins.Kind == ir.KindStore {
        return true
    } else {
        return ins.HasResult() && !ir.HasSideEffects(ins)
    }
}

func isStoreTarget(ins *ir.Instr, i int, p *ir.Instr) bool {
    return ins.Kind == ir.KindStore && i == 1 && p.Kind == ir.KindAlloca
}

func (self DCE) unused(fn *ir.Function, o *opts.Options) int {
    n := 0
    live := make(map[*ir.Instr]struct{})

    /* Phase 1: mark every instruction used as an operand, stores do not keep their destination alive */
    for _, bb := range fn.Blocks {
        for _, ins := range bb.Ins {
            for i, v := range ins.Args {
                if p, ok := v.(*ir.Instr); ok && !isStoreTarget(ins, i, p) {
                    live[p] = struct{}{}

                    /* a loaded value keeps the location alive */
                    if p.Kind == ir.KindLoad {
                        if a, ok := p.Args[0].(*ir.Instr); ok {
                            live[a] = struct{}{}
                        }
                    }
                }
            }
        }
    }

    /* Phase 2: remove everything that was not marked */
    for _, ins := range fn.Instrs() {
        if !self.candidate(ins) {
            continue
        }

        /* a store is dead iff it writes to an allocation never marked live */
        if ins.Kind == ir.KindStore {
            if a, ok := ins.Args[1].(*ir.Instr); !ok || a.Kind != ir.KindAlloca {
                continue
            } else if _, ok = live[a]; ok {
                continue
            }
        } else if _, ok := live[ins]; ok {
            continue
        }

        /* remove the instruction */
        n++
        o.Tracef("dead-code-elimination: @%s: removed `%s`", fn.Name, ins)
        ins.Erase()
    }

    /* update the statistics */
    count(&DeadInstrCount, n)
    return n
}

func (DCE) unreachable(fn *ir.Function, o *opts.Options) int {
    n := 0
    vis := analysis.Reachable(fn)

    /* remove every block the traversal did not reach */
    for _, bb := range append([]*ir.BasicBlock(nil), fn.Blocks...) {
        if !vis[bb] {
            n++
            o.Tracef("dead-code-elimination: @%s: removed unreachable block %s", fn.Name, bb.Ref())
            fn.RemoveBlock(bb)
        }
    }

    /* update the statistics */
    count(&DeadBlockCount, n)
    return n
}

func (self DCE) Apply(fn *ir.Function, o *opts.Options) (bool, error) {
    changed := false
    for {
        n := self.unused(fn, o)
        n += self.unreachable(fn, o)

        /* both sweeps are stable */
        if n == 0 {
            return changed, nil
        } else {
            changed = true
        }
    }
}
