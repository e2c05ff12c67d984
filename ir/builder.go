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

// Builder appends instructions at the end of a basic block.
type Builder struct {
    fn *Function
    bb *BasicBlock
}

func NewBuilder(fn *Function) *Builder {
    return &Builder { fn: fn }
}

// At moves the insertion point to the end of bb.
func (self *Builder) At(bb *BasicBlock) *Builder {
    if bb.Func != self.fn {
        panic("ir: block " + bb.Ref() + " belongs to another function")
    } else {
        self.bb = bb
        return self
    }
}

// Block returns the current insertion block.
func (self *Builder) Block() *BasicBlock {
    return self.bb
}

func (self *Builder) emit(name string, ins *Instr) *Instr {
    if self.bb == nil {
        panic("ir: no insertion block")
    } else {
        ins.Name = name
        self.bb.Append(ins)
        return ins
    }
}

func (self *Builder) Alloca(name string, ty Type) *Instr {
    return self.AllocaN(name, ty, 1)
}

func (self *Builder) AllocaN(name string, ty Type, n int) *Instr {
    ins := self.fn.NewInstr(KindAlloca, Ptr)
    ins.Elem = ty
    ins.Len = n
    return self.emit(name, ins)
}

// Load reads from ptr, the loaded type is the element type of the alloca or
// address computation that produced ptr.
func (self *Builder) Load(name string, ptr Value) *Instr {
    return self.LoadAs(name, ElemOf(ptr), ptr)
}

func (self *Builder) LoadAs(name string, ty Type, ptr Value) *Instr {
    return self.emit(name, self.fn.NewInstr(KindLoad, ty, ptr))
}

func (self *Builder) Store(v Value, ptr Value) *Instr {
    return self.emit("", self.fn.NewInstr(KindStore, Void, v, ptr))
}

func (self *Builder) Binary(name string, op BinaryOp, x Value, y Value) *Instr {
    ins := self.fn.NewInstr(KindBinary, x.Type(), x, y)
    ins.Op = op
    return self.emit(name, ins)
}

func (self *Builder) Add(name string, x Value, y Value) *Instr {
    return self.Binary(name, OpAdd, x, y)
}

func (self *Builder) Sub(name string, x Value, y Value) *Instr {
    return self.Binary(name, OpSub, x, y)
}

func (self *Builder) Mul(name string, x Value, y Value) *Instr {
    return self.Binary(name, OpMul, x, y)
}

func (self *Builder) SDiv(name string, x Value, y Value) *Instr {
    return self.Binary(name, OpSDiv, x, y)
}

func (self *Builder) ICmp(name string, pred Predicate, x Value, y Value) *Instr {
    ins := self.fn.NewInstr(KindCompare, I1, x, y)
    ins.Pred = pred
    return self.emit(name, ins)
}

func (self *Builder) Cast(name string, op CastOp, ty Type, x Value) *Instr {
    ins := self.fn.NewInstr(KindCast, ty, x)
    ins.Cast = op
    return self.emit(name, ins)
}

func (self *Builder) Select(name string, cond Value, x Value, y Value) *Instr {
    return self.emit(name, self.fn.NewInstr(KindSelect, x.Type(), cond, x, y))
}

func (self *Builder) Addr(name string, base Value, idx Value) *Instr {
    ins := self.fn.NewInstr(KindAddr, Ptr, base, idx)
    ins.Elem = ElemOf(base)
    return self.emit(name, ins)
}

func (self *Builder) Call(name string, ret Type, callee string, args ...Value) *Instr {
    ins := self.fn.NewInstr(KindCall, ret, args...)
    ins.Callee = callee
    return self.emit(name, ins)
}

func (self *Builder) Br(to *BasicBlock) *Instr {
    ins := self.fn.NewInstr(KindBranch, Void)
    ins.Succ = []*BasicBlock { to }
    return self.emit("", ins)
}

func (self *Builder) CondBr(cond Value, t *BasicBlock, f *BasicBlock) *Instr {
    ins := self.fn.NewInstr(KindBranch, Void, cond)
    ins.Succ = []*BasicBlock { t, f }
    return self.emit("", ins)
}

func (self *Builder) Ret(v ...Value) *Instr {
    if len(v) > 1 {
        panic("ir: multiple return values")
    } else {
        return self.emit("", self.fn.NewInstr(KindReturn, Void, v...))
    }
}

// ElemOf returns the type stored behind ptr, as far as it is known.
func ElemOf(ptr Value) Type {
    if p, ok := ptr.(*Instr); !ok {
        return I64
    } else if p.Kind == KindAlloca || p.Kind == KindAddr {
        return p.Elem
    } else {
        return I64
    }
}
