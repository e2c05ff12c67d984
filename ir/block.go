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

type BasicBlock struct {
    Id   int
    Name string
    Ins  []*Instr
    Func *Function
}

func (self *BasicBlock) Ref() string {
    if self.Name != "" {
        return "%" + self.Name
    } else {
        return fmt.Sprintf("%%bb_%d", self.Id)
    }
}

func (self *BasicBlock) String() string {
    return self.Ref()
}

// Terminator returns the last instruction of the block if it is a branch or
// a return, nil otherwise.
func (self *BasicBlock) Terminator() *Instr {
    if n := len(self.Ins); n == 0 {
        return nil
    } else if p := self.Ins[n - 1]; !p.IsTerminator() {
        return nil
    } else {
        return p
    }
}

// Succs returns the successor blocks named by the terminator, duplicates
// included, in operand order.
func (self *BasicBlock) Succs() []*BasicBlock {
    if tr := self.Terminator(); tr == nil {
        return nil
    } else {
        return tr.Succ
    }
}

// First returns the first instruction of the block.
func (self *BasicBlock) First() *Instr {
    if len(self.Ins) == 0 {
        return nil
    } else {
        return self.Ins[0]
    }
}

// InsertBefore inserts ins right before pos, which must belong to self.
func (self *BasicBlock) InsertBefore(ins *Instr, pos *Instr) {
    if ins.Block != nil {
        panic("ir: inserting an attached instruction: " + ins.String())
    }

    /* find the insertion point */
    for i, p := range self.Ins {
        if p == pos {
            ins.Block = self
            self.Ins = append(self.Ins, nil)
            copy(self.Ins[i + 1:], self.Ins[i:])
            self.Ins[i] = ins
            return
        }
    }

    /* the position is not in this block */
    panic(fmt.Sprintf("ir: instruction %s is not in block %s", pos, self.Ref()))
}

// Append adds ins at the end of the block.
func (self *BasicBlock) Append(ins *Instr) {
    if ins.Block != nil {
        panic("ir: appending an attached instruction: " + ins.String())
    } else if self.Terminator() != nil {
        panic(fmt.Sprintf("ir: appending %s after the terminator of %s", ins, self.Ref()))
    } else {
        ins.Block = self
        self.Ins = append(self.Ins, ins)
    }
}

func (self *BasicBlock) remove(ins *Instr) {
    for i, p := range self.Ins {
        if p == ins {
            copy(self.Ins[i:], self.Ins[i + 1:])
            self.Ins[len(self.Ins) - 1] = nil
            self.Ins = self.Ins[:len(self.Ins) - 1]
            ins.Block = nil
            return
        }
    }
    panic(fmt.Sprintf("ir: instruction %s is not in block %s", ins, self.Ref()))
}
