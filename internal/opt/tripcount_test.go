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
    `math`
    `testing`

    `github.com/cloudwego/loopopt/internal/analysis`
    `github.com/cloudwego/loopopt/ir`
    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
)

type _TripCase struct {
    ty    ir.Type
    pred  ir.Predicate
    init  int64
    step  int64
    bound int64
    trip  uint64
    ok    bool
    run   bool
}

var _TripCases = []_TripCase {
    { ir.I32, ir.CmpSlt, 0             ,  1, 10            , 10, true , true  },
    { ir.I32, ir.CmpSlt, 0             ,  3, 10            ,  4, true , true  },
    { ir.I32, ir.CmpSlt, 10            ,  1, 10            ,  0, true , true  },
    { ir.I32, ir.CmpSlt, 0             , -1, 10            ,  0, false, false },
    { ir.I32, ir.CmpSlt, math.MaxInt32 - 5, 4, math.MaxInt32, 0, false, false },
    { ir.I32, ir.CmpSle, 0             ,  1, 10            , 11, true , true  },
    { ir.I32, ir.CmpSle, 0             ,  4, 10            ,  3, true , true  },
    { ir.I32, ir.CmpSle, 0             ,  1, math.MaxInt32 ,  0, false, false },
    { ir.I32, ir.CmpSgt, 10            , -1, 0             , 10, true , true  },
    { ir.I32, ir.CmpSgt, 10            , -3, 0             ,  4, true , true  },
    { ir.I32, ir.CmpSgt, 0             ,  1, -5            ,  0, false, false },
    { ir.I32, ir.CmpSge, 10            , -2, 0             ,  6, true , true  },
    { ir.I32, ir.CmpSge, -1            , -2, 0             ,  0, true , true  },
    { ir.I32, ir.CmpSge, 0             ,  1, -5            ,  0, false, false },
    { ir.I32, ir.CmpNe , 0             ,  2, 10            ,  5, true , true  },
    { ir.I32, ir.CmpNe , 10            , -1, 0             , 10, true , true  },
    { ir.I32, ir.CmpNe , 7             ,  3, 7             ,  0, true , true  },
    { ir.I32, ir.CmpNe , 0             ,  3, 10            ,  0, false, false },
    { ir.I32, ir.CmpNe , 0             , -1, 5             ,  0, false, false },
    { ir.I32, ir.CmpEq , 5             ,  1, 5             ,  1, true , true  },
    { ir.I32, ir.CmpEq , 4             ,  1, 5             ,  0, true , true  },
    { ir.I8 , ir.CmpUlt, 250           ,  1, 255           ,  5, true , true  },
    { ir.I8 , ir.CmpUle, 0             , 16, 239           , 15, true , true  },
    { ir.I8 , ir.CmpUle, 0             ,  1, 255           ,  0, false, false },
    { ir.I8 , ir.CmpSlt, -128          , 64, 127           ,  0, false, false },
    { ir.I8 , ir.CmpSlt, -128          , 64, 64            ,  3, true , true  },
    { ir.I8 , ir.CmpUgt, 200           ,-50, 10            ,  4, true , true  },
    { ir.I8 , ir.CmpUge, 3             , -1, 0             ,  0, false, false },
    { ir.I8 , ir.CmpUge, 3             , -1, 1             ,  3, true , true  },
    { ir.I64, ir.CmpSlt, 0             ,  1, 1 << 40       ,  1 << 40, true, false },
    { ir.I64, ir.CmpSle, math.MinInt64 ,  1, math.MaxInt64 ,  0, false, false },
    { ir.I64, ir.CmpUlt, 0             ,  7, -1            ,  0, false, false },
}

func (self _TripCase) String() string {
    return fmt.Sprintf("%s %s from %d step %d to %d", self.ty, self.pred, self.init, self.step, self.bound)
}

func TestTripCount_Table(t *testing.T) {
    for _, tc := range _TripCases {
        n, err := tripCount(tc.pred, tc.ty, ir.Int(tc.ty, tc.init).V, tc.step, ir.Int(tc.ty, tc.bound).V)
        if !tc.ok {
            assert.Equal(t, errTripCount, err, "%s", tc)
        } else if assert.NoError(t, err, "%s", tc) {
            assert.Equal(t, tc.trip, n, "%s", tc)
        }
    }
}

func TestTripCount_Interpret(t *testing.T) {
    for _, tc := range _TripCases {
        for _, flip := range []bool { false, true } {
            fn := countedLoop(tc.ty, tc.pred, tc.init, tc.step, tc.bound, flip)
            dt := analysis.BuildDominatorTree(fn.Entry())
            li := analysis.FindLoops(fn, dt)
            require.Len(t, li.Loops, 1)

            /* recognize the induction variable */
            iv, err := inductionVar(li.Loops[0], solveFunction(fn))
            require.NoError(t, err, "%s", tc)
            assert.Equal(t, tc.pred, iv.Pred, "%s", tc)
            assert.Equal(t, ir.Int(tc.ty, tc.step).V, iv.Step, "%s", tc)

            /* must agree with the table */
            n, err := iv.TripCount()
            if !tc.ok {
                require.Error(t, err, "%s", tc)
                continue
            }

            /* and with what actually happens */
            require.NoError(t, err, "%s", tc)
            require.Equal(t, tc.trip, n, "%s", tc)
            if tc.run {
                assert.Len(t, mustRun(t, fn).Calls, int(n), "%s", tc)
            }
        }
    }
}

func TestInductionVar_Rejected(t *testing.T) {
    loopOf := func(fn *ir.Function) *analysis.Loop {
        li := analysis.FindLoops(fn, analysis.BuildDominatorTree(fn.Entry()))
        require.Len(t, li.Loops, 1)
        return li.Loops[0]
    }

    /* a second exit out of the body */
    fn := countedLoop(ir.I32, ir.CmpSlt, 0, 1, 10, false)
    b := ir.NewBuilder(fn)
    body := fn.Block("body")
    body.Terminator().Erase()
    b.At(body)
    b.CondBr(ir.Bool(true), fn.Block("latch"), fn.Block("exit"))
    _, err := inductionVar(loopOf(fn), solveFunction(fn))
    assert.Equal(t, errExits, err)

    /* the bound is not a literal */
    fn = countedLoop(ir.I32, ir.CmpSlt, 0, 1, 10, false)
    fn.Block("head").Ins[1].Args[1] = fn.AddParam("n", ir.I32)
    _, err = inductionVar(loopOf(fn), solveFunction(fn))
    assert.Equal(t, errNoInduction, err)

    /* the initial value is unknown */
    fn = countedLoop(ir.I32, ir.CmpSlt, 0, 1, 10, false)
    fn.Block("entry").Ins[1].Args[0] = fn.AddParam("n", ir.I32)
    _, err = inductionVar(loopOf(fn), solveFunction(fn))
    assert.Equal(t, errInit, err)

    /* the step is not a literal */
    fn = countedLoop(ir.I32, ir.CmpSlt, 0, 1, 10, false)
    fn.Lookup("next").Args[1] = fn.AddParam("n", ir.I32)
    _, err = inductionVar(loopOf(fn), solveFunction(fn))
    assert.Equal(t, errStep, err)

    /* a zero step never terminates */
    fn = countedLoop(ir.I8, ir.CmpSlt, 0, 256, 10, false)
    _, err = inductionVar(loopOf(fn), solveFunction(fn))
    assert.Equal(t, errStep, err)

    /* a second store in the body */
    fn = countedLoop(ir.I32, ir.CmpSlt, 0, 1, 10, false)
    st := fn.NewInstr(ir.KindStore, ir.Void, ir.Int(ir.I32, 0), fn.Lookup("i"))
    fn.Block("body").InsertBefore(st, fn.Block("body").First())
    _, err = inductionVar(loopOf(fn), solveFunction(fn))
    assert.Equal(t, errStep, err)
}
