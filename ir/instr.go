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

// Kind is the tag of an instruction.
type Kind uint8

const (
    KindOther Kind = iota
    KindAlloca
    KindLoad
    KindStore
    KindBinary
    KindCompare
    KindCast
    KindSelect
    KindAddr
    KindCall
    KindBranch
    KindReturn
)

var _KindNames = [...]string {
    KindOther   : "other",
    KindAlloca  : "alloca",
    KindLoad    : "load",
    KindStore   : "store",
    KindBinary  : "binary",
    KindCompare : "icmp",
    KindCast    : "cast",
    KindSelect  : "select",
    KindAddr    : "addr",
    KindCall    : "call",
    KindBranch  : "br",
    KindReturn  : "ret",
}

func (self Kind) String() string {
    return _KindNames[self]
}

type BinaryOp uint8

const (
    OpAdd BinaryOp = iota
    OpSub
    OpMul
    OpSDiv
    OpUDiv
    OpSRem
    OpAnd
    OpOr
    OpXor
    OpShl
)

var _BinaryOpNames = [...]string {
    OpAdd  : "add",
    OpSub  : "sub",
    OpMul  : "mul",
    OpSDiv : "sdiv",
    OpUDiv : "udiv",
    OpSRem : "srem",
    OpAnd  : "and",
    OpOr   : "or",
    OpXor  : "xor",
    OpShl  : "shl",
}

func (self BinaryOp) String() string {
    return _BinaryOpNames[self]
}

// IsDivision reports whether the operator can trap on its right operand.
func (self BinaryOp) IsDivision() bool {
    return self == OpSDiv || self == OpUDiv || self == OpSRem
}

type Predicate uint8

const (
    CmpEq Predicate = iota
    CmpNe
    CmpSgt
    CmpSge
    CmpSlt
    CmpSle
    CmpUgt
    CmpUge
    CmpUlt
    CmpUle
)

var _PredicateNames = [...]string {
    CmpEq  : "eq",
    CmpNe  : "ne",
    CmpSgt : "sgt",
    CmpSge : "sge",
    CmpSlt : "slt",
    CmpSle : "sle",
    CmpUgt : "ugt",
    CmpUge : "uge",
    CmpUlt : "ult",
    CmpUle : "ule",
}

func (self Predicate) String() string {
    return _PredicateNames[self]
}

// Inverse returns the predicate that holds exactly when self does not.
func (self Predicate) Inverse() Predicate {
    switch self {
        case CmpEq  : return CmpNe
        case CmpNe  : return CmpEq
        case CmpSgt : return CmpSle
        case CmpSge : return CmpSlt
        case CmpSlt : return CmpSge
        case CmpSle : return CmpSgt
        case CmpUgt : return CmpUle
        case CmpUge : return CmpUlt
        case CmpUlt : return CmpUge
        case CmpUle : return CmpUgt
        default     : panic("unreachable")
    }
}

// Swapped returns the predicate to use when the operands are exchanged.
func (self Predicate) Swapped() Predicate {
    switch self {
        case CmpEq  : return CmpEq
        case CmpNe  : return CmpNe
        case CmpSgt : return CmpSlt
        case CmpSge : return CmpSle
        case CmpSlt : return CmpSgt
        case CmpSle : return CmpSge
        case CmpUgt : return CmpUlt
        case CmpUge : return CmpUle
        case CmpUlt : return CmpUgt
        case CmpUle : return CmpUge
        default     : panic("unreachable")
    }
}

// IsUnsigned reports whether the predicate compares operands as unsigned.
func (self Predicate) IsUnsigned() bool {
    return self >= CmpUgt
}

type CastOp uint8

const (
    CastTrunc CastOp = iota
    CastZExt
    CastSExt
)

var _CastOpNames = [...]string {
    CastTrunc : "trunc",
    CastZExt  : "zext",
    CastSExt  : "sext",
}

func (self CastOp) String() string {
    return _CastOpNames[self]
}

// Instr is a tagged instruction. The operand conventions per kind are:
//
//     alloca   -                       Elem is the allocated type, Len the element count
//     load     ptr                     Ty is the loaded type
//     store    value, ptr
//     binary   x, y                    Op
//     icmp     x, y                    Pred, Ty is always i1
//     cast     x                       Cast
//     select   cond, x, y
//     addr     base, index             Elem is the element type
//     call     args...                 Callee
//     br       [cond]                  Succ[0] (true), Succ[1] (false)
//     ret      [value]
//
type Instr struct {
    Id     int
    Name   string
    Kind   Kind
    Op     BinaryOp
    Pred   Predicate
    Cast   CastOp
    Ty     Type
    Elem   Type
    Len    int
    Args   []Value
    Succ   []*BasicBlock
    Callee string
    Block  *BasicBlock
}

func (self *Instr) Type() Type {
    return self.Ty
}

func (self *Instr) Ref() string {
    if self.Name != "" {
        return "%" + self.Name
    } else {
        return fmt.Sprintf("%%%d", self.Id)
    }
}

// HasResult reports whether the instruction defines a value.
func (self *Instr) HasResult() bool {
    return self.Ty != Void
}

// IsTerminator reports whether the instruction ends a basic block.
func (self *Instr) IsTerminator() bool {
    return self.Kind == KindBranch || self.Kind == KindReturn
}

// IsConditional reports whether the instruction is a two-way branch.
func (self *Instr) IsConditional() bool {
    return self.Kind == KindBranch && len(self.Args) == 1
}

// Pointer returns the address operand of a load or a store.
func (self *Instr) Pointer() Value {
    switch self.Kind {
        case KindLoad  : return self.Args[0]
        case KindStore : return self.Args[1]
        default        : return nil
    }
}

// StoredValue returns the value operand of a store.
func (self *Instr) StoredValue() Value {
    if self.Kind != KindStore {
        return nil
    } else {
        return self.Args[0]
    }
}

// Index returns the position of the instruction within its block, or -1 if
// the instruction is detached.
func (self *Instr) Index() int {
    if self.Block != nil {
        for i, p := range self.Block.Ins {
            if p == self {
                return i
            }
        }
    }
    return -1
}

// Prev returns the instruction right before self in the same block.
func (self *Instr) Prev() *Instr {
    if i := self.Index(); i <= 0 {
        return nil
    } else {
        return self.Block.Ins[i - 1]
    }
}

// Next returns the instruction right after self in the same block.
func (self *Instr) Next() *Instr {
    if i := self.Index(); i < 0 || i == len(self.Block.Ins) - 1 {
        return nil
    } else {
        return self.Block.Ins[i + 1]
    }
}

// Erase detaches the instruction from its block. Any remaining uses keep
// referring to it, it is up to the caller to replace them first.
func (self *Instr) Erase() {
    if self.Block == nil {
        panic("ir: erasing a detached instruction: " + self.String())
    } else {
        self.Block.remove(self)
    }
}

// MoveBefore moves the instruction right before pos, possibly into another
// block.
func (self *Instr) MoveBefore(pos *Instr) {
    if pos == self {
        panic("ir: moving an instruction before itself: " + self.String())
    }

    /* detach from the current block, and insert into the new one */
    self.Erase()
    pos.Block.InsertBefore(self, pos)
}

func (self *Instr) String() string {
    var lhs string
    var rhs string

    /* assignment target */
    if self.HasResult() {
        lhs = self.Ref() + " = "
    }

    /* instruction body */
    switch self.Kind {
        case KindAlloca  : rhs = self.strAlloca()
        case KindLoad    : rhs = fmt.Sprintf("load %s, ptr %s", self.Ty, self.Args[0].Ref())
        case KindStore   : rhs = fmt.Sprintf("store %s %s, ptr %s", self.Args[0].Type(), self.Args[0].Ref(), self.Args[1].Ref())
        case KindBinary  : rhs = fmt.Sprintf("%s %s %s, %s", self.Op, self.Ty, self.Args[0].Ref(), self.Args[1].Ref())
        case KindCompare : rhs = fmt.Sprintf("icmp %s %s %s, %s", self.Pred, self.Args[0].Type(), self.Args[0].Ref(), self.Args[1].Ref())
        case KindCast    : rhs = fmt.Sprintf("%s %s %s to %s", self.Cast, self.Args[0].Type(), self.Args[0].Ref(), self.Ty)
        case KindSelect  : rhs = fmt.Sprintf("select i1 %s, %s %s, %s %s", self.Args[0].Ref(), self.Ty, self.Args[1].Ref(), self.Ty, self.Args[2].Ref())
        case KindAddr    : rhs = fmt.Sprintf("addr %s, ptr %s, %s", self.Elem, self.Args[0].Ref(), self.Args[1].Ref())
        case KindCall    : rhs = fmt.Sprintf("call %s @%s(%s)", self.Ty, self.Callee, strargs(self.Args))
        case KindBranch  : rhs = self.strBranch()
        case KindReturn  : rhs = self.strReturn()
        default          : rhs = fmt.Sprintf("other %s", strargs(self.Args))
    }

    /* join them together */
    return lhs + rhs
}

func (self *Instr) strAlloca() string {
    if self.Len <= 1 {
        return fmt.Sprintf("alloca %s", self.Elem)
    } else {
        return fmt.Sprintf("alloca %s, %d", self.Elem, self.Len)
    }
}

func (self *Instr) strBranch() string {
    if len(self.Args) == 0 {
        return fmt.Sprintf("br label %s", self.Succ[0].Ref())
    } else {
        return fmt.Sprintf("br i1 %s, label %s, label %s", self.Args[0].Ref(), self.Succ[0].Ref(), self.Succ[1].Ref())
    }
}

func (self *Instr) strReturn() string {
    if len(self.Args) == 0 {
        return "ret void"
    } else {
        return fmt.Sprintf("ret %s %s", self.Args[0].Type(), self.Args[0].Ref())
    }
}

func strargs(args []Value) string {
    ret := make([]string, 0, len(args))
    for _, v := range args { ret = append(ret, v.Type().String() + " " + v.Ref()) }
    return strings.Join(ret, ", ")
}
