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

package debug

import (
	"github.com/cloudwego/loopopt/internal/analysis"
	"github.com/cloudwego/loopopt/ir"
	"gonum.org/v1/gonum/graph/encoding/dot"
)

// DOT renders the control-flow graph of fn in the Graphviz DOT language, one
// box per basic block listing its instructions.
func DOT(fn *ir.Function) ([]byte, error) {
	return dot.Marshal(analysis.NewGraph(fn), fn.Name, "", "  ")
}
