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

// EvalBinary computes x op y in the width of ty. The second result is false
// when the operation traps (division by zero or signed division overflow).
func EvalBinary(op BinaryOp, ty Type, x int64, y int64) (int64, bool) {
    switch op {
        case OpAdd  : return ty.Wrap(x + y), true
        case OpSub  : return ty.Wrap(x - y), true
        case OpMul  : return ty.Wrap(x * y), true
        case OpAnd  : return ty.Wrap(x & y), true
        case OpOr   : return ty.Wrap(x | y), true
        case OpXor  : return ty.Wrap(x ^ y), true
        case OpShl  : return evalshl(ty, x, y), true
        case OpSDiv : return evalsdiv(ty, x, y)
        case OpSRem : return evalsrem(ty, x, y)
        case OpUDiv : return evaludiv(ty, x, y)
        default     : panic(fmt.Sprintf("ir: invalid binary operator: %d", op))
    }
}

func evalshl(ty Type, x int64, y int64) int64 {
    if n := ty.Unsigned(y); n >= uint64(ty.Bits()) {
        return 0
    } else {
        return ty.Wrap(x << n)
    }
}

func evalsdiv(ty Type, x int64, y int64) (int64, bool) {
    if y == 0 || (y == -1 && x == ty.MinSigned()) {
        return 0, false
    } else {
        return ty.Wrap(x / y), true
    }
}

func evalsrem(ty Type, x int64, y int64) (int64, bool) {
    if y == 0 || (y == -1 && x == ty.MinSigned()) {
        return 0, false
    } else {
        return ty.Wrap(x % y), true
    }
}

func evaludiv(ty Type, x int64, y int64) (int64, bool) {
    if y == 0 {
        return 0, false
    } else {
        return ty.Wrap(int64(ty.Unsigned(x) / ty.Unsigned(y))), true
    }
}

// EvalCompare evaluates the predicate on two values of type ty.
func EvalCompare(pred Predicate, ty Type, x int64, y int64) bool {
    ux := ty.Unsigned(x)
    uy := ty.Unsigned(y)

    /* check for predicate */
    switch pred {
        case CmpEq  : return x == y
        case CmpNe  : return x != y
        case CmpSgt : return x > y
        case CmpSge : return x >= y
        case CmpSlt : return x < y
        case CmpSle : return x <= y
        case CmpUgt : return ux > uy
        case CmpUge : return ux >= uy
        case CmpUlt : return ux < uy
        case CmpUle : return ux <= uy
        default     : panic(fmt.Sprintf("ir: invalid predicate: %d", pred))
    }
}

// EvalCast converts x from type from to type to.
func EvalCast(op CastOp, from Type, to Type, x int64) int64 {
    switch op {
        case CastTrunc : return to.Wrap(x)
        case CastSExt  : if from == I1 && x != 0 { return to.Wrap(-1) } else { return to.Wrap(x) }
        case CastZExt  : return to.Wrap(int64(from.Unsigned(x)))
        default        : panic(fmt.Sprintf("ir: invalid cast operator: %d", op))
    }
}
