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

package opt

import (
    `fmt`
)

type StateKind uint8

const (
    Unresolved StateKind = iota
    Constant
    Varying
)

// State is what is known about the content of a memory location at one
// program point. States only ever rise: Unresolved < Constant(n) < Varying.
type State struct {
    Kind  StateKind
    Value int64
}

var (
    unresolved = State { Kind: Unresolved }
    varying    = State { Kind: Varying }
)

func constant(v int64) State {
    return State {
        Kind  : Constant,
        Value : v,
    }
}

// Join returns the least upper bound of two states.
func (self State) Join(other State) State {
    switch {
        case self.Kind == Unresolved   : return other
        case other.Kind == Unresolved  : return self
        case self.Kind == Varying      : return self
        case other.Kind == Varying     : return other
        case self.Value == other.Value : return self
        default                        : return varying
    }
}

// Below reports whether self is strictly lower than other in the lattice.
func (self State) Below(other State) bool {
    return self != other && self.Join(other) == other
}

func (self State) IsConst() bool {
    return self.Kind == Constant
}

func (self State) String() string {
    switch self.Kind {
        case Unresolved : return "⊥"
        case Constant   : return fmt.Sprintf("const(%d)", self.Value)
        case Varying    : return "⊤"
        default         : panic(fmt.Sprintf("constprop: invalid state kind: %d", self.Kind))
    }
}
