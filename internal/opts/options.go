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

package opts

import (
	"fmt"
	"io"

	"github.com/cloudwego/loopopt/ir"
	"github.com/davecgh/go-spew/spew"
)

type Options struct {
	MaxRounds      int
	StrictDivision bool
	Trace          io.Writer
	Oracle         ir.Oracle
}

var dumper = spew.ConfigState{
	Indent:                  "    ",
	SortKeys:                true,
	DisableMethods:          false,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Rounds returns the number of driver rounds allowed for a function with n
// instructions.
func (self *Options) Rounds(n int) int {
	if self.MaxRounds == 0 || self.MaxRounds > n+1 {
		return n + 1
	} else {
		return self.MaxRounds
	}
}

// Speculatable asks the configured oracle whether ins may be hoisted.
func (self *Options) Speculatable(ins *ir.Instr) bool {
	if self.Oracle == nil {
		return ir.DefaultOracle.Speculatable(ins)
	} else {
		return self.Oracle.Speculatable(ins)
	}
}

// Tracing reports whether a trace sink is configured.
func (self *Options) Tracing() bool {
	return self.Trace != nil
}

// Tracef writes one line to the trace sink, if any.
func (self *Options) Tracef(format string, args ...interface{}) {
	if self.Trace != nil {
		fmt.Fprintf(self.Trace, format+"\n", args...)
	}
}

// Dump writes a structural dump of v to the trace sink, if any.
func (self *Options) Dump(title string, v interface{}) {
	if self.Trace != nil {
		fmt.Fprintf(self.Trace, "%s: %s", title, dumper.Sdump(v))
	}
}

func GetDefaultOptions() Options {
	return Options{
		MaxRounds:      MaxRounds,
		StrictDivision: StrictDivision,
		Trace:          Trace,
		Oracle:         ir.DefaultOracle,
	}
}
