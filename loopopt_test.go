/*
 * Copyright 2022 CloudWeGo Authors
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
	"bytes"
	"errors"
	"testing"

	"github.com/cloudwego/loopopt/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sumConst builds `s = 0; for i := 0; i < 10; i++ { s += 5 }; return s`.
func sumConst() *ir.Function {
	fn := ir.NewFunction("sum_const", ir.I64)
	b := ir.NewBuilder(fn)

	entry := fn.NewBlock("entry")
	head := fn.NewBlock("head")
	body := fn.NewBlock("body")
	latch := fn.NewBlock("latch")
	exit := fn.NewBlock("exit")

	b.At(entry)
	i := b.Alloca("i", ir.I64)
	s := b.Alloca("s", ir.I64)
	b.Store(ir.Int(ir.I64, 0), i)
	b.Store(ir.Int(ir.I64, 0), s)
	b.Br(head)

	b.At(head)
	b.CondBr(b.ICmp("c", ir.CmpSlt, b.Load("iv", i), ir.Int(ir.I64, 10)), body, exit)

	b.At(body)
	b.Store(b.Add("sn", b.Load("sv", s), ir.Int(ir.I64, 5)), s)
	b.Br(latch)

	b.At(latch)
	b.Store(b.Add("in", b.Load("ii", i), ir.Int(ir.I64, 1)), i)
	b.Br(head)

	b.At(exit)
	b.Ret(b.Load("r", s))
	return fn
}

func TestOptimize(t *testing.T) {
	var buf bytes.Buffer
	fn := sumConst()
	want, err := ir.Interpret(fn, nil, nil)
	require.NoError(t, err)

	ok, err := Optimize(fn, WithTrace(&buf))
	require.NoError(t, err)
	require.True(t, ok)
	t.Log(fn.String())

	got, err := ir.Interpret(fn, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Value)
	assert.Equal(t, want.Value, got.Value)
	assert.Less(t, got.Steps, want.Steps)
	assert.Contains(t, buf.String(), "licm: @sum_const: reduced accumulator")
}

func TestOptimize_Verify(t *testing.T) {
	var ve ir.VerifyError
	fn := ir.NewFunction("broken", ir.Void)
	fn.NewBlock("entry")

	ok, err := Optimize(fn)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.As(err, &ve))
}

func TestOptimize_DivisionByZero(t *testing.T) {
	var dz DivisionByZeroError
	fn := ir.NewFunction("div", ir.I32)
	b := ir.NewBuilder(fn)
	b.At(fn.NewBlock("entry"))
	b.Ret(b.SDiv("q", ir.Int(ir.I32, 1), ir.Int(ir.I32, 0)))

	_, err := Optimize(fn)
	require.Error(t, err)
	require.True(t, errors.As(err, &dz))
	assert.Equal(t, "div", dz.Func)

	ok, err := Optimize(fn, WithStrictDivision(false))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunPass(t *testing.T) {
	fn := sumConst()
	ok, err := RunPass("licm", fn)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, fn.Block("body").Ins, 1)

	_, err = RunPass("inline", fn)
	assert.Equal(t, PassError{Name: "inline"}, err)
	assert.EqualError(t, err, "PassError(inline): no such pass")
}

func TestPasses(t *testing.T) {
	assert.Equal(t, []string{
		"constant-folding",
		"constant-propagation",
		"dead-code-elimination",
		"licm",
	}, Passes())
}

func TestOptions(t *testing.T) {
	assert.Panics(t, func() { WithMaxRounds(-1) })
	assert.Panics(t, func() { WithOracle(nil) })

	fn := sumConst()
	ok, err := Optimize(fn, WithMaxRounds(1), WithOracle(ir.OracleFunc(func(*ir.Instr) bool { return false })))
	require.NoError(t, err)
	assert.True(t, ok)
}
