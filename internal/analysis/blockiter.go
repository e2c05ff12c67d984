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
    `github.com/oleiade/lane`
)

// BasicBlockIter walks the blocks reachable from the entry block along
// branch edges, yielding them in depth-first post-order.
type BasicBlockIter struct {
    b *ir.BasicBlock
    s *lane.Stack
    v map[*ir.BasicBlock]struct{}
}

func NewBasicBlockIter(fn *ir.Function) *BasicBlockIter {
    it := &BasicBlockIter {
        s: lane.NewStack(),
        v: make(map[*ir.BasicBlock]struct{}),
    }

    /* start from the entry block, if any */
    if bb := fn.Entry(); bb != nil {
        it.s.Push(bb)
        it.v[bb] = struct{}{}
    }
    return it
}

func (self *BasicBlockIter) Next() bool {
    var tail bool
    var this *ir.BasicBlock

    /* scan until the stack is empty */
    for !self.s.Empty() {
        tail = true
        this = self.s.Head().(*ir.BasicBlock)

        /* add all the successors */
        for _, p := range this.Succs() {
            if _, ok := self.v[p]; !ok {
                tail = false
                self.v[p] = struct{}{}
                self.s.Push(p)
                break
            }
        }

        /* all the successors are visited, pop the current node */
        if tail {
            self.b = self.s.Pop().(*ir.BasicBlock)
            return true
        }
    }

    /* clear the basic block pointer to indicate no more blocks */
    self.b = nil
    return false
}

func (self *BasicBlockIter) Block() *ir.BasicBlock {
    return self.b
}

func (self *BasicBlockIter) ForEach(action func(bb *ir.BasicBlock)) {
    for self.Next() {
        action(self.b)
    }
}

// PostOrder returns the reachable blocks in post-order.
func PostOrder(fn *ir.Function) []*ir.BasicBlock {
    ret := make([]*ir.BasicBlock, 0, len(fn.Blocks))
    NewBasicBlockIter(fn).ForEach(func(bb *ir.BasicBlock) { ret = append(ret, bb) })
    return ret
}

// ReversePostOrder returns the reachable blocks in reverse post-order.
func ReversePostOrder(fn *ir.Function) []*ir.BasicBlock {
    ret := PostOrder(fn)
    blockreverse(ret)
    return ret
}

// Reachable returns the set of blocks reachable from the entry block.
func Reachable(fn *ir.Function) map[*ir.BasicBlock]bool {
    ret := make(map[*ir.BasicBlock]bool, len(fn.Blocks))
    NewBasicBlockIter(fn).ForEach(func(bb *ir.BasicBlock) { ret[bb] = true })
    return ret
}

func blockreverse(s []*ir.BasicBlock) {
    for i, j := 0, len(s) - 1; i < j; i, j = i + 1, j - 1 {
        s[i], s[j] = s[j], s[i]
    }
}
