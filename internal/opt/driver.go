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
    `github.com/cloudwego/loopopt/internal/opts`
    `github.com/cloudwego/loopopt/ir`
)

// Optimize runs every pass over fn until none of them reports a change. The
// number of rounds is bounded by the instruction count of the function.
func Optimize(fn *ir.Function, o *opts.Options) (bool, error) {
    var ok bool
    var err error
    var changed bool

    /* limit the number of rounds */
    count(&RunCount, 1)
    max := o.Rounds(fn.NumInstrs())

    /* repeat until stable */
    for i := 0; i < max; i++ {
        round := false
        count(&RoundCount, 1)

        /* every pass runs once per round */
        for _, p := range Passes {
            if ok, err = p.Pass.Apply(fn, o); err != nil {
                return changed || round, err
            } else if ok {
                round = true
                o.Tracef("driver: @%s: round %d: %s changed the function", fn.Name, i + 1, p.Name)
            }
        }

        /* nothing changed in this round */
        if !round {
            return changed, nil
        } else {
            changed = true
        }
    }

    /* ran out of rounds */
    o.Tracef("driver: @%s: stopped after %d rounds", fn.Name, max)
    return changed, nil
}
