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
    `testing`

    `github.com/cloudwego/loopopt/internal/analysis`
    `github.com/cloudwego/loopopt/ir`
    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
)

func TestDCE_DeadStore(t *testing.T) {
    fn := ir.NewFunction("deadstore", ir.I32)
    b := ir.NewBuilder(fn)
    b.At(fn.NewBlock("entry"))
    x := b.Alloca("x", ir.I32)
    b.Store(ir.Int(ir.I32, 5), x)
    b.Ret(ir.Int(ir.I32, 0))

    /* the location is never read, so neither the store nor the allocation matter */
    ok, err := new(DCE).Apply(fn, testOptions(t))
    require.NoError(t, err)
    require.True(t, ok)
    require.Len(t, fn.Entry().Ins, 1)
    assert.Equal(t, ir.KindReturn, fn.Entry().Ins[0].Kind)
}

func TestDCE_Chain(t *testing.T) {
    fn := ir.NewFunction("chain", ir.I32)
    p := fn.AddParam("p", ir.I32)
    b := ir.NewBuilder(fn)
    b.At(fn.NewBlock("entry"))
    x := b.Add("x", p, ir.Int(ir.I32, 1))
    b.Mul("y", x, ir.Int(ir.I32, 2))
    b.Call("ignored", ir.I32, "rand")
    b.Ret(p)

    /* the whole chain goes away, the call stays even though its result is unused */
    ok, err := new(DCE).Apply(fn, testOptions(t))
    require.NoError(t, err)
    require.True(t, ok)
    assert.Nil(t, fn.Lookup("x"))
    assert.Nil(t, fn.Lookup("y"))
    assert.NotNil(t, fn.Lookup("ignored"))
}

func TestDCE_SideEffects(t *testing.T) {
    fn := ir.NewFunction("effects", ir.I32)
    p := fn.AddParam("p", ir.I32)
    b := ir.NewBuilder(fn)
    b.At(fn.NewBlock("entry"))
    b.Call("c", ir.I32, "rand")
    b.Load("l", b.Alloca("x", ir.I32))

    /* an opaque instruction with an unused result */
    op := fn.NewInstr(ir.KindOther, ir.I32, p)
    op.Name = "o"
    b.Block().Append(op)
    b.Ret(p)

    /* the load and the allocation go, the call and the opaque one stay */
    ok, err := new(DCE).Apply(fn, testOptions(t))
    require.NoError(t, err)
    require.True(t, ok)
    assert.Nil(t, fn.Lookup("l"))
    assert.Nil(t, fn.Lookup("x"))
    assert.NotNil(t, fn.Lookup("c"))
    assert.NotNil(t, fn.Lookup("o"))
    require.Len(t, fn.Entry().Ins, 3)
}

func TestDCE_LiveStore(t *testing.T) {
    fn := ir.NewFunction("livestore", ir.I32)
    b := ir.NewBuilder(fn)
    b.At(fn.NewBlock("entry"))

    /* a scalar that is read back, and an array written through an address */
    x := b.Alloca("x", ir.I32)
    a := b.AllocaN("a", ir.I32, 4)
    b.Store(ir.Int(ir.I32, 5), x)
    b.Store(ir.Int(ir.I32, 6), b.Addr("p", a, ir.Int(ir.I64, 2)))
    b.Ret(b.Load("y", x))

    /* nothing is dead */
    ok, err := new(DCE).Apply(fn, testOptions(t))
    require.NoError(t, err)
    assert.False(t, ok)
    assert.Len(t, fn.Entry().Ins, 7)
    assert.Equal(t, int64(5), mustRun(t, fn).Value)
}

func TestDCE_Unreachable(t *testing.T) {
    fn := ir.NewFunction("unreachable", ir.I32)
    b := ir.NewBuilder(fn)

    /* the blocks */
    entry := fn.NewBlock("entry")
    then := fn.NewBlock("then")
    other := fn.NewBlock("else")
    orphan := fn.NewBlock("orphan")

    /* br false, then, else */
    b.At(entry)
    x := b.Alloca("x", ir.I32)
    b.CondBr(ir.Bool(false), then, other)
    b.At(then)
    b.Store(ir.Int(ir.I32, 1), x)
    b.Ret(b.Load("y", x))
    b.At(other)
    b.Ret(ir.Int(ir.I32, 2))
    b.At(orphan)
    b.Br(then)

    /* only the orphan is unreachable before folding */
    ok, err := new(DCE).Apply(fn, testOptions(t))
    require.NoError(t, err)
    require.True(t, ok)
    assert.Nil(t, fn.Block("orphan"))
    assert.NotNil(t, fn.Block("then"))

    /* once the branch is folded, the then block goes away together with the location */
    _, err = new(ConstFold).Apply(fn, testOptions(t))
    require.NoError(t, err)
    ok, err = new(DCE).Apply(fn, testOptions(t))
    require.NoError(t, err)
    require.True(t, ok)
    assert.Nil(t, fn.Block("then"))
    assert.Nil(t, fn.Lookup("x"))
    assert.Equal(t, []*ir.BasicBlock { entry, other }, fn.Blocks)
    assert.Equal(t, int64(2), mustRun(t, fn).Value)
}

func TestDCE_Closure(t *testing.T) {
    for seed := int64(0); seed < 100; seed++ {
        fn := randomProgram(seed, false)
        want := mustRun(t, fn, 1, 2)

        /* fold first, so that there is something to remove */
        _, err := new(ConstFold).Apply(fn, testOptions(t))
        require.NoError(t, err)
        _, err = new(DCE).Apply(fn, testOptions(t))
        require.NoError(t, err)
        require.NoError(t, ir.Verify(fn))

        /* every block is reachable */
        vis := analysis.Reachable(fn)
        for _, bb := range fn.Blocks {
            require.True(t, vis[bb], "%s is unreachable", bb.Ref())
        }

        /* every removable value is used */
        for _, ins := range fn.Instrs() {
            if ins.HasResult() && ins.Kind != ir.KindCall {
                require.NotEmpty(t, fn.Uses(ins), "%s is unused", ins)
            }
        }

        /* a second run has nothing left to do */
        ok, err := new(DCE).Apply(fn, testOptions(t))
        require.NoError(t, err)
        require.False(t, ok)

        /* and the behaviour is the same */
        got := mustRun(t, fn, 1, 2)
        assert.Equal(t, want.Value, got.Value, fn.String())
        assert.Equal(t, want.Calls, got.Calls, fn.String())
    }
}
