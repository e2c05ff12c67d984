/*
 * Copyright 2021 ByteDance Inc.
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

package loopopt

import (
    `fmt`

    `github.com/cloudwego/loopopt/internal/opt`
)

// DivisionByZeroError occures when strict constant folding finds a signed
// division by the literal zero.
type DivisionByZeroError = opt.DivisionByZeroError

// PassError occures when running a pass that does not exist.
type PassError struct {
    Name string
}

func (self PassError) Error() string {
    return fmt.Sprintf("PassError(%s): no such pass", self.Name)
}
