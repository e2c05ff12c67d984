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

// Type is the type of a value. Integer types are two's complement.
type Type uint8

const (
    Void Type = iota
    I1
    I8
    I16
    I32
    I64
    Ptr
)

var _TypeNames = [...]string {
    Void : "void",
    I1   : "i1",
    I8   : "i8",
    I16  : "i16",
    I32  : "i32",
    I64  : "i64",
    Ptr  : "ptr",
}

var _TypeBits = [...]uint {
    Void : 0,
    I1   : 1,
    I8   : 8,
    I16  : 16,
    I32  : 32,
    I64  : 64,
    Ptr  : 64,
}

func (self Type) String() string {
    if int(self) < len(_TypeNames) {
        return _TypeNames[self]
    } else {
        return fmt.Sprintf("type(%d)", self)
    }
}

// Bits returns the width of the type in bits.
func (self Type) Bits() uint {
    return _TypeBits[self]
}

// IsInt reports whether the type is one of the integer types.
func (self Type) IsInt() bool {
    return self >= I1 && self <= I64
}

// Wrap truncates v to the width of the type. Booleans are kept as 0 or 1,
// every other integer type is sign extended back to 64 bits.
func (self Type) Wrap(v int64) int64 {
    switch nb := self.Bits(); {
        case self == I1 : return v & 1
        case nb == 0    : return v
        case nb >= 64   : return v
        default         : return (v << (64 - nb)) >> (64 - nb)
    }
}

// Unsigned reinterprets the (already wrapped) v as an unsigned value of the
// type's width.
func (self Type) Unsigned(v int64) uint64 {
    switch nb := self.Bits(); {
        case nb == 0  : return uint64(v)
        case nb >= 64 : return uint64(v)
        default       : return uint64(v) & ((1 << nb) - 1)
    }
}

// MinSigned returns the smallest signed value representable in the type.
func (self Type) MinSigned() int64 {
    if self == I1 {
        return 0
    } else {
        return -1 << (self.Bits() - 1)
    }
}

// MaxSigned returns the largest signed value representable in the type.
func (self Type) MaxSigned() int64 {
    if self == I1 {
        return 1
    } else {
        return int64(^uint64(0) >> (65 - self.Bits()))
    }
}

// MaxUnsigned returns the largest unsigned value representable in the type.
func (self Type) MaxUnsigned() uint64 {
    return ^uint64(0) >> (64 - self.Bits())
}
