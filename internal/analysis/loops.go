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

package analysis

import (
    `fmt`
    `sort`
    `strings`

    `github.com/cloudwego/loopopt/ir`
    `github.com/oleiade/lane`
)

// Loop is a maximal natural loop: all back edges into the same header are
// merged into a single loop.
type Loop struct {
    Header    *ir.BasicBlock
    Preheader *ir.BasicBlock
    Latch     *ir.BasicBlock
    Latches   []*ir.BasicBlock
    Blocks    []*ir.BasicBlock
    Exits     []*ir.BasicBlock
    Parent    *Loop
    Children  []*Loop
    set       map[*ir.BasicBlock]bool
}

// Contains reports whether bb is part of the loop body.
func (self *Loop) Contains(bb *ir.BasicBlock) bool {
    return bb != nil && self.set[bb]
}

// ContainsValue reports whether v is an instruction inside the loop.
func (self *Loop) ContainsValue(v ir.Value) bool {
    if p, ok := v.(*ir.Instr); !ok {
        return false
    } else {
        return self.Contains(p.Block)
    }
}

// Depth is the nesting depth of the loop, outermost loops have depth 1.
func (self *Loop) Depth() (n int) {
    for p := self; p != nil; p = p.Parent {
        n++
    }
    return
}

// Exiting returns the blocks inside the loop that have a successor outside.
func (self *Loop) Exiting() []*ir.BasicBlock {
    var ret []*ir.BasicBlock
    for _, bb := range self.Blocks {
        for _, s := range bb.Succs() {
            if !self.set[s] {
                ret = append(ret, bb)
                break
            }
        }
    }
    return ret
}

// Instrs returns a snapshot of every instruction in the loop body.
func (self *Loop) Instrs() []*ir.Instr {
    var ret []*ir.Instr
    for _, bb := range self.Blocks {
        ret = append(ret, bb.Ins...)
    }
    return ret
}

func (self *Loop) String() string {
    var blocks []string
    var exits []string

    /* dump the blocks */
    for _, bb := range self.Blocks { blocks = append(blocks, bb.Ref()) }
    for _, bb := range self.Exits { exits = append(exits, bb.Ref()) }

    /* join them together */
    return fmt.Sprintf(
        "loop %s { preheader = %s, latch = %s, blocks = {%s}, exits = {%s} }",
        self.Header.Ref(),
        strblock(self.Preheader),
        strblock(self.Latch),
        strings.Join(blocks, ", "),
        strings.Join(exits, ", "),
    )
}

func strblock(bb *ir.BasicBlock) string {
    if bb == nil {
        return "∅"
    } else {
        return bb.Ref()
    }
}

// LoopInfo is the loop nest of a function.
type LoopInfo struct {
    Loops []*Loop
    Top   []*Loop
}

// LoopFor returns the innermost loop containing bb.
func (self *LoopInfo) LoopFor(bb *ir.BasicBlock) *Loop {
    for _, l := range self.Loops {
        if l.Contains(bb) {
            return l
        }
    }
    return nil
}

// FindLoops discovers the natural loops of fn. Loops are ordered innermost
// first, so that a loop always comes before the loops containing it.
func FindLoops(fn *ir.Function, dt DominatorTree) *LoopInfo {
    var loops []*Loop
    pred := make(map[*ir.BasicBlock][]*ir.BasicBlock, len(fn.Blocks))
    order := make(map[*ir.BasicBlock]int, len(fn.Blocks))

    /* build the predecessor map for reachable blocks */
    for i, bb := range fn.Blocks {
        order[bb] = i
        if dt.Reachable(bb) {
            for _, s := range distinct(bb.Succs()) {
                pred[s] = append(pred[s], bb)
            }
        }
    }

    /* every edge t -> h where h dominates t is a back edge */
    for _, h := range ReversePostOrder(fn) {
        var latches []*ir.BasicBlock
        for _, t := range pred[h] {
            if dt.Dominates(h, t) {
                latches = append(latches, t)
            }
        }

        /* not a loop header */
        if len(latches) != 0 {
            loops = append(loops, buildLoop(h, latches, pred, order))
        }
    }

    /* smaller loops first, a nested loop is always strictly smaller than its parent */
    sort.SliceStable(loops, func(i int, j int) bool {
        return len(loops[i].Blocks) < len(loops[j].Blocks)
    })

    /* link every loop to the smallest loop containing it */
    for i, l := range loops {
        for _, p := range loops[i + 1:] {
            if p.Contains(l.Header) {
                l.Parent = p
                p.Children = append(p.Children, l)
                break
            }
        }
    }

    /* collect the outermost loops */
    ret := &LoopInfo { Loops: loops }
    for _, l := range loops {
        if l.Parent == nil {
            ret.Top = append(ret.Top, l)
        }
    }
    return ret
}

func buildLoop(h *ir.BasicBlock, latches []*ir.BasicBlock, pred map[*ir.BasicBlock][]*ir.BasicBlock, order map[*ir.BasicBlock]int) *Loop {
    q := lane.NewQueue()
    l := &Loop {
        Header  : h,
        Latches : latches,
        set     : map[*ir.BasicBlock]bool { h: true },
    }

    /* walk backwards from the latches until the header */
    for _, t := range latches {
        if !l.set[t] {
            l.set[t] = true
            q.Enqueue(t)
        }
    }

    /* add every block that can reach a latch without passing through the header */
    for !q.Empty() {
        bb := q.Dequeue().(*ir.BasicBlock)
        for _, p := range pred[bb] {
            if !l.set[p] {
                l.set[p] = true
                q.Enqueue(p)
            }
        }
    }

    /* sort the body by block order */
    for bb := range l.set {
        l.Blocks = append(l.Blocks, bb)
    }

    /* header always comes first */
    sort.Slice(l.Blocks, func(i int, j int) bool {
        if l.Blocks[i] == h {
            return true
        } else if l.Blocks[j] == h {
            return false
        } else {
            return order[l.Blocks[i]] < order[l.Blocks[j]]
        }
    })

    /* a single back edge defines the latch */
    if len(latches) == 1 {
        l.Latch = latches[0]
    }

    /* find the exit blocks */
    for _, bb := range l.Blocks {
        for _, s := range distinct(bb.Succs()) {
            if !l.set[s] && !containsBlock(l.Exits, s) {
                l.Exits = append(l.Exits, s)
            }
        }
    }

    /* the preheader is the only predecessor outside the loop, and it must
     * branch unconditionally into the header */
    var outside []*ir.BasicBlock
    for _, p := range pred[h] {
        if !l.set[p] {
            outside = append(outside, p)
        }
    }

    /* check for the preheader shape */
    if len(outside) == 1 {
        if ss := distinct(outside[0].Succs()); len(ss) == 1 && ss[0] == h {
            l.Preheader = outside[0]
        }
    }
    return l
}

func distinct(bbs []*ir.BasicBlock) []*ir.BasicBlock {
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
