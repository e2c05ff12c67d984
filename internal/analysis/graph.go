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

package analysis

import (
    `strings`

    `github.com/cloudwego/loopopt/ir`
    `gonum.org/v1/gonum/graph`
    `gonum.org/v1/gonum/graph/encoding`
    `gonum.org/v1/gonum/graph/iterator`
)

// Node is a basic block seen as a gonum graph node.
type Node struct {
    *ir.BasicBlock
}

func (self Node) ID() int64 {
    return int64(self.Id)
}

func (self Node) DOTID() string {
    return self.Ref()[1:]
}

func (self Node) Attributes() []encoding.Attribute {
    buf := make([]string, 0, len(self.Ins) + 1)
    buf = append(buf, self.Ref()[1:] + ":")

    /* dump every instruction */
    for _, ins := range self.Ins {
        buf = append(buf, ins.String())
    }

    /* one instruction per line */
    return []encoding.Attribute {
        { Key: "shape", Value: "box" },
        { Key: "label", Value: strings.Join(buf, "\n") },
    }
}

// Edge is a branch edge between two blocks.
type Edge struct {
    F Node
    T Node
    L string
}

func (self Edge) From() graph.Node { return self.F }
func (self Edge) To() graph.Node   { return self.T }

func (self Edge) ReversedEdge() graph.Edge {
    return Edge { F: self.T, T: self.F, L: self.L }
}

func (self Edge) Attributes() []encoding.Attribute {
    if self.L == "" {
        return nil
    } else {
        return []encoding.Attribute {{ Key: "label", Value: self.L }}
    }
}

// Graph is a read-only graph.Directed view of a function's CFG. It is a
// snapshot: mutating the function invalidates it.
type Graph struct {
    fn    *ir.Function
    ids   map[int64]*ir.BasicBlock
    preds map[int64][]graph.Node
}

// NewGraph builds the graph view of fn.
func NewGraph(fn *ir.Function) *Graph {
    g := &Graph {
        fn    : fn,
        ids   : make(map[int64]*ir.BasicBlock, len(fn.Blocks)),
        preds : make(map[int64][]graph.Node, len(fn.Blocks)),
    }

    /* index the blocks */
    for _, bb := range fn.Blocks {
        g.ids[int64(bb.Id)] = bb
    }

    /* build the reverse edges */
    for _, bb := range fn.Blocks {
        for _, s := range distinct(bb.Succs()) {
            g.preds[int64(s.Id)] = append(g.preds[int64(s.Id)], Node { bb })
        }
    }
    return g
}

func (self *Graph) Node(id int64) graph.Node {
    if bb, ok := self.ids[id]; !ok {
        return nil
    } else {
        return Node { bb }
    }
}

func (self *Graph) Nodes() graph.Nodes {
    ret := make([]graph.Node, 0, len(self.fn.Blocks))
    for _, bb := range self.fn.Blocks { ret = append(ret, Node { bb }) }
    return iterator.NewOrderedNodes(ret)
}

func (self *Graph) From(id int64) graph.Nodes {
    var ret []graph.Node
    if bb, ok := self.ids[id]; ok {
        for _, s := range distinct(bb.Succs()) {
            ret = append(ret, Node { s })
        }
    }
    return iterator.NewOrderedNodes(ret)
}

func (self *Graph) To(id int64) graph.Nodes {
    return iterator.NewOrderedNodes(self.preds[id])
}

func (self *Graph) HasEdgeBetween(xid int64, yid int64) bool {
    return self.HasEdgeFromTo(xid, yid) || self.HasEdgeFromTo(yid, xid)
}

func (self *Graph) HasEdgeFromTo(uid int64, vid int64) bool {
    return self.Edge(uid, vid) != nil
}

func (self *Graph) Edge(uid int64, vid int64) graph.Edge {
    var ok bool
    var u, v *ir.BasicBlock

    /* both ends must exist */
    if u, ok = self.ids[uid]; !ok { return nil }
    if v, ok = self.ids[vid]; !ok { return nil }

    /* find the edge in the terminator */
    for i, s := range u.Succs() {
        if s == v {
            return Edge { F: Node { u }, T: Node { v }, L: edgelabel(u, i) }
        }
    }
    return nil
}

func edgelabel(bb *ir.BasicBlock, i int) string {
    if tr := bb.Terminator(); !tr.IsConditional() {
        return ""
    } else if tr.Succ[0] == tr.Succ[1] {
        return ""
    } else if i == 0 {
        return "T"
    } else {
        return "F"
    }
}
