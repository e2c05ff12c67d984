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
    `strings`
)

// Function is a control-flow graph of basic blocks. The first block is the
// entry block.
type Function struct {
    Name   string
    Ret    Type
    Params []*Param
    Blocks []*BasicBlock
    nextId int
    nextBB int
}

func NewFunction(name string, ret Type) *Function {
    return &Function {
        Name : name,
        Ret  : ret,
    }
}

// AddParam appends a parameter to the signature.
func (self *Function) AddParam(name string, ty Type) *Param {
    p := &Param {
        Ty    : ty,
        Name  : name,
        Index : len(self.Params),
    }
    self.Params = append(self.Params, p)
    return p
}

// NewBlock appends an empty basic block.
func (self *Function) NewBlock(name string) *BasicBlock {
    bb := &BasicBlock {
        Id   : self.nextBB,
        Name : name,
        Func : self,
    }
    self.nextBB++
    self.Blocks = append(self.Blocks, bb)
    return bb
}

// NewInstr allocates a detached instruction with a fresh ID.
func (self *Function) NewInstr(kind Kind, ty Type, args ...Value) *Instr {
    ins := &Instr {
        Id   : self.nextId,
        Kind : kind,
        Ty   : ty,
        Args : args,
    }
    self.nextId++
    return ins
}

// Entry returns the entry block, or nil for an empty function.
func (self *Function) Entry() *BasicBlock {
    if len(self.Blocks) == 0 {
        return nil
    } else {
        return self.Blocks[0]
    }
}

// Preds returns the distinct predecessors of bb, in block order.
func (self *Function) Preds(bb *BasicBlock) []*BasicBlock {
    var ret []*BasicBlock
    for _, p := range self.Blocks {
        for _, s := range p.Succs() {
            if s == bb {
                ret = append(ret, p)
                break
            }
        }
    }
    return ret
}

// Instrs returns a snapshot of every instruction in block order.
func (self *Function) Instrs() []*Instr {
    ret := make([]*Instr, 0, self.NumInstrs())
    for _, bb := range self.Blocks {
        ret = append(ret, bb.Ins...)
    }
    return ret
}

// NumInstrs counts the instructions of the function.
func (self *Function) NumInstrs() (n int) {
    for _, bb := range self.Blocks {
        n += len(bb.Ins)
    }
    return
}

// Uses returns every instruction that has v as one of its operands.
func (self *Function) Uses(v Value) []*Instr {
    var ret []*Instr
    for _, bb := range self.Blocks {
        for _, p := range bb.Ins {
            for _, a := range p.Args {
                if a == v {
                    ret = append(ret, p)
                    break
                }
            }
        }
    }
    return ret
}

// ReplaceAllUsesWith rewrites every operand referring to old into v, and
// returns the number of operands rewritten.
func (self *Function) ReplaceAllUsesWith(old Value, v Value) (n int) {
    for _, bb := range self.Blocks {
        for _, p := range bb.Ins {
            for i, a := range p.Args {
                if a == old {
                    n++
                    p.Args[i] = v
                }
            }
        }
    }
    return
}

// RemoveBlock deletes bb and all of its instructions from the function.
func (self *Function) RemoveBlock(bb *BasicBlock) {
    for i, p := range self.Blocks {
        if p == bb {
            for _, ins := range bb.Ins { ins.Block = nil }
            bb.Ins = nil
            bb.Func = nil
            self.Blocks = append(self.Blocks[:i], self.Blocks[i + 1:]...)
            return
        }
    }
    panic(fmt.Sprintf("ir: block %s is not in function @%s", bb.Ref(), self.Name))
}

// Block looks up a block by name.
func (self *Function) Block(name string) *BasicBlock {
    for _, bb := range self.Blocks {
        if bb.Name == name {
            return bb
        }
    }
    return nil
}

// Lookup finds an instruction by its result name.
func (self *Function) Lookup(name string) *Instr {
    for _, bb := range self.Blocks {
        for _, p := range bb.Ins {
            if p.Name == name {
                return p
            }
        }
    }
    return nil
}

func (self *Function) String() string {
    var buf []string
    var par []string

    /* function signature */
    for _, p := range self.Params {
        par = append(par, p.String())
    }

    /* dump every block */
    buf = append(buf, fmt.Sprintf("define %s @%s(%s) {", self.Ret, self.Name, strings.Join(par, ", ")))
    for i, bb := range self.Blocks {
        if i != 0 {
            buf = append(buf, "")
        }
        buf = append(buf, bb.Ref()[1:] + ":")
        for _, ins := range bb.Ins {
            buf = append(buf, "    " + ins.String())
        }
    }

    /* join them together */
    buf = append(buf, "}")
    return strings.Join(buf, "\n")
}
