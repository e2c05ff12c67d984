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
    `github.com/cloudwego/loopopt/ir`
    `gonum.org/v1/gonum/graph`
    `gonum.org/v1/gonum/graph/flow`
)

// DominatorTree is the dominator tree of the blocks reachable from Root.
// Unreachable blocks are not part of the tree.
type DominatorTree struct {
    Root *ir.BasicBlock
    idom map[*ir.BasicBlock]*ir.BasicBlock
    kids map[*ir.BasicBlock][]*ir.BasicBlock
}

// BuildDominatorTree computes the dominator tree of the blocks reachable
// from bb, which is usually the entry block of its function.
func BuildDominatorTree(bb *ir.BasicBlock) DominatorTree {
    dt := flow.Dominators(Node { bb }, NewGraph(bb.Func))
    ret := DominatorTree {
        Root : bb,
        idom : make(map[*ir.BasicBlock]*ir.BasicBlock, len(bb.Func.Blocks)),
        kids : make(map[*ir.BasicBlock][]*ir.BasicBlock, len(bb.Func.Blocks)),
    }

    /* the root dominates itself only, unreachable blocks have no dominator */
    for _, p := range bb.Func.Blocks {
        if d := dt.DominatorOf(int64(p.Id)); d != nil && p != bb {
            ret.idom[p] = d.(Node).BasicBlock
        }
    }

    /* the children, in block order */
    for _, p := range bb.Func.Blocks {
        ret.kids[p] = blocksOf(dt.DominatedBy(int64(p.Id)))
    }
    return ret
}

func blocksOf(nodes []graph.Node) []*ir.BasicBlock {
    ret := make([]*ir.BasicBlock, 0, len(nodes))
    for _, n := range nodes {
        ret = append(ret, n.(Node).BasicBlock)
    }
    return ret
}

// Reachable reports whether bb is part of the tree.
func (self DominatorTree) Reachable(bb *ir.BasicBlock) bool {
    if bb == self.Root {
        return true
    } else {
        _, ok := self.idom[bb]
        return ok
    }
}

// Dominates reports whether every path from the root to b passes through a.
// Like most compilers, blocks that cannot be reached from the root are
// considered to be dominated by everything.
func (self DominatorTree) Dominates(a *ir.BasicBlock, b *ir.BasicBlock) bool {
    if a == b || !self.Reachable(b) {
        return true
    }

    /* walk up the tree from b */
    for p := self.idom[b]; p != nil; p = self.idom[p] {
        if p == a {
            return true
        }
    }
    return false
}

// ImmediateDominator returns the immediate dominator of bb, or nil for the
// root and unreachable blocks.
func (self DominatorTree) ImmediateDominator(bb *ir.BasicBlock) *ir.BasicBlock {
    return self.idom[bb]
}

// Children returns the blocks bb immediately dominates.
func (self DominatorTree) Children(bb *ir.BasicBlock) []*ir.BasicBlock {
    return self.kids[bb]
}
