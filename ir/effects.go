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

// Oracle decides whether an instruction may be executed on paths where the
// original program would not have executed it.
type Oracle interface {
    Speculatable(ins *Instr) bool
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ins *Instr) bool

func (self OracleFunc) Speculatable(ins *Instr) bool {
    return self(ins)
}

// DefaultOracle is the built-in speculation oracle.
var DefaultOracle Oracle = OracleFunc(Speculatable)

// Speculatable reports whether ins has no side effects and cannot trap.
func Speculatable(ins *Instr) bool {
    switch ins.Kind {
        case KindBinary  : return !ins.Op.IsDivision() || safeDivisor(ins)
        case KindCompare : return true
        case KindCast    : return true
        case KindSelect  : return true
        case KindAddr    : return true
        default          : return false
    }
}

func safeDivisor(ins *Instr) bool {
    if c, ok := AsConst(ins.Args[1]); !ok || c.V == 0 {
        return false
    } else if ins.Op == OpUDiv {
        return true
    } else {
        return c.V != -1
    }
}

// HasSideEffects reports whether removing ins could change the observable
// behaviour of the program even when its result is unused.
func HasSideEffects(ins *Instr) bool {
    switch ins.Kind {
        case KindStore  : return true
        case KindCall   : return true
        case KindBranch : return true
        case KindReturn : return true
        case KindOther  : return true
        default         : return false
    }
}
