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
    `strconv`
)

// Value is anything that can appear in an operand list: a literal constant,
// a function parameter, or the result of an instruction.
type Value interface {
    Type() Type
    Ref() string
    value()
}

func (*Const) value() {}
func (*Param) value() {}
func (*Instr) value() {}

// Const is an integer literal. V is always normalized to the width of Ty.
type Const struct {
    Ty Type
    V  int64
}

// Int constructs an integer literal of the given type.
func Int(ty Type, v int64) *Const {
    if !ty.IsInt() {
        panic("ir: integer literal of non-integer type " + ty.String())
    } else {
        return &Const { Ty: ty, V: ty.Wrap(v) }
    }
}

// Bool constructs an i1 literal.
func Bool(v bool) *Const {
    if v {
        return &Const { Ty: I1, V: 1 }
    } else {
        return &Const { Ty: I1, V: 0 }
    }
}

func (self *Const) Type() Type {
    return self.Ty
}

func (self *Const) Ref() string {
    if self.Ty != I1 {
        return strconv.FormatInt(self.V, 10)
    } else if self.V != 0 {
        return "true"
    } else {
        return "false"
    }
}

func (self *Const) String() string {
    return self.Ty.String() + " " + self.Ref()
}

// AsConst returns the literal behind v, if v is one.
func AsConst(v Value) (*Const, bool) {
    c, ok := v.(*Const)
    return c, ok
}

// IsConst reports whether v is a literal.
func IsConst(v Value) bool {
    _, ok := v.(*Const)
    return ok
}

// SameValue compares two operands. Literals compare by type and value,
// everything else by identity.
func SameValue(a Value, b Value) bool {
    if x, ok := a.(*Const); !ok {
        return a == b
    } else if y, ok := b.(*Const); !ok {
        return false
    } else {
        return x.Ty == y.Ty && x.V == y.V
    }
}

// Param is a function argument.
type Param struct {
    Ty    Type
    Name  string
    Index int
}

func (self *Param) Type() Type {
    return self.Ty
}

func (self *Param) Ref() string {
    return "%" + self.Name
}

func (self *Param) String() string {
    return fmt.Sprintf("%s %%%s", self.Ty, self.Name)
}
