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
    `strings`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/cloudwego/loopopt/internal/opts`
    `github.com/cloudwego/loopopt/ir`
    `github.com/stretchr/testify/require`
)

type _TestWriter struct {
    t *testing.T
}

func (self _TestWriter) Write(p []byte) (int, error) {
    self.t.Log(strings.TrimRight(string(p), "\n"))
    return len(p), nil
}

func testOptions(t *testing.T) *opts.Options {
    return &opts.Options {
        Trace          : _TestWriter { t },
        Oracle         : ir.DefaultOracle,
        StrictDivision : true,
    }
}

func mustRun(t *testing.T, fn *ir.Function, args ...int64) *ir.Result {
    res, err := ir.Interpret(fn, args, nil)
    require.NoError(t, err, fn.String())
    return res
}

// countedLoop builds
//
//     entry:  i = alloca; store init, i; br head
//     head:   c = icmp pred (load i), bound; br c, body, exit
//     body:   call @tick(); br latch
//     latch:  store (load i) + step, i; br head
//     exit:   ret void
//
// When flip is set the exit test is inverted and the branch targets are
// swapped, which keeps the behaviour identical.
func countedLoop(ty ir.Type, pred ir.Predicate, init int64, step int64, bound int64, flip bool) *ir.Function {
    fn := ir.NewFunction("counted", ir.Void)
    b := ir.NewBuilder(fn)

    /* the blocks */
    entry := fn.NewBlock("entry")
    head := fn.NewBlock("head")
    body := fn.NewBlock("body")
    latch := fn.NewBlock("latch")
    exit := fn.NewBlock("exit")

    /* entry */
    b.At(entry)
    i := b.Alloca("i", ty)
    b.Store(ir.Int(ty, init), i)
    b.Br(head)

    /* exit test */
    b.At(head)
    if iv := b.Load("iv", i); !flip {
        b.CondBr(b.ICmp("c", pred, iv, ir.Int(ty, bound)), body, exit)
    } else {
        b.CondBr(b.ICmp("c", pred.Inverse().Swapped(), ir.Int(ty, bound), iv), exit, body)
    }

    /* body */
    b.At(body)
    b.Call("", ir.Void, "tick")
    b.Br(latch)

    /* latch */
    b.At(latch)
    b.Store(b.Add("next", b.Load("cur", i), ir.Int(ty, step)), i)
    b.Br(head)

    /* exit */
    b.At(exit)
    b.Ret()
    return fn
}

type _Gen struct {
    fk     *gofakeit.Faker
    fn     *ir.Function
    b      *ir.Builder
    vars   []*ir.Instr
    pool   []*ir.Instr
    ivs    []*ir.Instr
    depth  int
    blocks int
    noacc  bool
}

var _GenOps = []ir.BinaryOp {
    ir.OpAdd,
    ir.OpSub,
    ir.OpMul,
    ir.OpAnd,
    ir.OpXor,
}

// randomProgram generates a well formed function with branches, counted
// loops (both while and do-while shaped), accumulators and calls. Every
// generated program terminates and never traps.
func randomProgram(seed int64, noacc bool) *ir.Function {
    g := &_Gen {
        fk    : gofakeit.New(seed),
        fn    : ir.NewFunction(fmt.Sprintf("random_%d", seed), ir.I32),
        noacc : noacc,
    }

    /* the signature */
    g.b = ir.NewBuilder(g.fn)
    g.fn.AddParam("a", ir.I32)
    g.fn.AddParam("b", ir.I32)
    g.b.At(g.fn.NewBlock("entry"))

    /* the data locations */
    for i := 0; i < 3; i++ {
        v := g.b.Alloca(fmt.Sprintf("v%d", i), ir.I32)
        g.vars = append(g.vars, v)
        g.b.Store(g.operand(), v)
    }

    /* the induction variables, one per nesting level */
    for i := 0; i < 3; i++ {
        g.pool = append(g.pool, g.b.Alloca(fmt.Sprintf("i%d", i), ir.I32))
    }

    /* the body */
    g.stmts(g.fk.IntRange(2, 6))
    g.b.Ret(g.expr(2))
    return g.fn
}

func (self *_Gen) block(prefix string) *ir.BasicBlock {
    self.blocks++
    return self.fn.NewBlock(fmt.Sprintf("%s%d", prefix, self.blocks))
}

func (self *_Gen) small() int64 {
    return int64(self.fk.IntRange(-8, 8))
}

func (self *_Gen) variable() *ir.Instr {
    return self.vars[self.fk.IntRange(0, len(self.vars) - 1)]
}

func (self *_Gen) operand() ir.Value {
    switch self.fk.IntRange(0, 4) {
        case 0  : return ir.Int(ir.I32, self.small())
        case 1  : return self.fn.Params[self.fk.IntRange(0, len(self.fn.Params) - 1)]
        case 2  : if len(self.ivs) != 0 { return self.b.Load("", self.ivs[self.fk.IntRange(0, len(self.ivs) - 1)]) }
    }
    return self.b.Load("", self.variable())
}

func (self *_Gen) expr(depth int) ir.Value {
    if depth == 0 || self.fk.Bool() {
        return self.operand()
    } else {
        return self.b.Binary("", _GenOps[self.fk.IntRange(0, len(_GenOps) - 1)], self.expr(depth - 1), self.expr(depth - 1))
    }
}

func (self *_Gen) stmts(n int) {
    for i := 0; i < n; i++ {
        self.stmt()
    }
}

func (self *_Gen) stmt() {
    switch r := self.fk.IntRange(0, 9); {
        case r < 4                      : self.b.Store(self.expr(2), self.variable())
        case r < 5                      : self.b.Store(ir.Int(ir.I32, self.small()), self.variable())
        case r < 6                      : self.b.Call("", ir.Void, "sink", self.expr(2))
        case r < 8 && self.depth < 2    : self.branch()
        case r < 10 && self.depth < 2   : self.loop()
        default                         : self.b.Store(self.expr(1), self.variable())
    }
}

func (self *_Gen) branch() {
    var cond ir.Value
    then := self.block("then")
    other := self.block("else")
    join := self.block("join")

    /* sometimes the condition is a literal */
    if self.fk.IntRange(0, 3) == 0 {
        cond = ir.Bool(self.fk.Bool())
    } else {
        cond = self.b.ICmp("", ir.Predicate(self.fk.IntRange(0, int(ir.CmpUle))), self.expr(1), ir.Int(ir.I32, self.small()))
    }

    /* both arms */
    self.depth++
    self.b.CondBr(cond, then, other)
    self.b.At(then)
    self.stmts(self.fk.IntRange(1, 3))
    self.b.Br(join)
    self.b.At(other)
    self.stmts(self.fk.IntRange(0, 2))
    self.b.Br(join)
    self.depth--
    self.b.At(join)
}

func (self *_Gen) accumulate() {
    v := self.variable()
    x := self.b.Load("", v)

    /* load, update, store back */
    if self.fk.Bool() {
        self.b.Store(self.b.Add("", x, ir.Int(ir.I32, self.small())), v)
    } else {
        self.b.Store(self.b.Sub("", x, ir.Int(ir.I32, self.small())), v)
    }
}

func (self *_Gen) loop() {
    var pred ir.Predicate
    iv := self.pool[self.depth]

    /* pick a terminating exit test, do-while loops run at least once */
    loop := self.fk.Bool()
    init := self.small()
    step := int64(self.fk.IntRange(1, 3))
    trip := int64(self.fk.IntRange(0, 6))

    /* an `ne` test must be hit exactly */
    if !loop && trip == 0 {
        trip = 1
    }

    /* the bound */
    bound := init + trip * step

    /* decreasing loops */
    if self.fk.Bool() {
        step, bound = -step, init - trip * step
        pred = []ir.Predicate { ir.CmpSgt, ir.CmpSge, ir.CmpNe }[self.fk.IntRange(0, 2)]
    } else {
        pred = []ir.Predicate { ir.CmpSlt, ir.CmpSle, ir.CmpNe }[self.fk.IntRange(0, 2)]
    }

    /* initialize the induction variable */
    self.b.Store(ir.Int(ir.I32, init), iv)
    head := self.block("head")
    self.b.Br(head)

    /* enter the loop */
    self.depth++
    self.ivs = append(self.ivs, iv)

    /* while or do-while */
    if loop {
        self.while(head, iv, pred, step, bound)
    } else {
        self.until(head, iv, pred, step, bound)
    }

    /* leave the loop */
    self.depth--
    self.ivs = self.ivs[:len(self.ivs) - 1]
}

func (self *_Gen) update(iv *ir.Instr, step int64) {
    if self.fk.Bool() {
        self.b.Store(self.b.Add("", self.b.Load("", iv), ir.Int(ir.I32, step)), iv)
    } else {
        self.b.Store(self.b.Sub("", self.b.Load("", iv), ir.Int(ir.I32, -step)), iv)
    }
}

func (self *_Gen) while(head *ir.BasicBlock, iv *ir.Instr, pred ir.Predicate, step int64, bound int64) {
    body := self.block("body")
    latch := self.block("latch")
    exit := self.block("exit")

    /* the exit test */
    self.b.At(head)
    self.b.CondBr(self.b.ICmp("", pred, self.b.Load("", iv), ir.Int(ir.I32, bound)), body, exit)

    /* the body, possibly starting with an accumulator */
    self.b.At(body)
    if !self.noacc && self.fk.Bool() {
        self.accumulate()
    }

    /* the rest of the body */
    self.stmts(self.fk.IntRange(1, 3))
    self.b.Br(latch)

    /* the latch */
    self.b.At(latch)
    self.update(iv, step)
    self.b.Br(head)
    self.b.At(exit)
}

func (self *_Gen) until(head *ir.BasicBlock, iv *ir.Instr, pred ir.Predicate, step int64, bound int64) {
    exit := self.block("exit")
    self.b.At(head)
    self.stmts(self.fk.IntRange(1, 3))

    /* a do-while loop runs at least once, so the test is made after the update */
    cur := self.b.Load("", iv)
    self.b.Store(self.b.Add("", cur, ir.Int(ir.I32, step)), iv)

    /* leave after the first iteration when the original test fails right away */
    cond := self.b.ICmp("", pred, self.b.Load("", iv), ir.Int(ir.I32, bound))
    self.b.CondBr(cond, head, exit)
    self.b.At(exit)
}
