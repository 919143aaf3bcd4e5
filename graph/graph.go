// Package graph implements the canonical intermediate representation that
// sampler synthesis operates on. Nodes are immutable expression records
// stored in an append-only arena and addressed by stable NodeID handles;
// substituting one expression for another never mutates a record, it only
// remaps handles in a view's outputs.
package graph

import (
	"fmt"
	"strconv"
	"strings"
)

type DType int

const (
	Real DType = iota
	Int
)

type Op int

const (
	OpSymbol Op = iota
	OpConst
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpSqrt
	OpSum
	OpLen
	OpBroadcast
	OpBeta
	OpBinomial
	OpGamma
	OpPoisson
	OpNormal
)

var opNames = map[Op]string{
	OpSymbol:    "symbol",
	OpConst:     "const",
	OpAdd:       "add",
	OpSub:       "sub",
	OpMul:       "mul",
	OpDiv:       "div",
	OpNeg:       "neg",
	OpSqrt:      "sqrt",
	OpSum:       "sum",
	OpLen:       "len",
	OpBroadcast: "broadcast",
	OpBeta:      "beta",
	OpBinomial:  "binomial",
	OpGamma:     "gamma",
	OpPoisson:   "poisson",
	OpNormal:    "normal",
}

func (op Op) String() string { return opNames[op] }

// IsRV reports whether the operation draws from a distribution.
func (op Op) IsRV() bool {
	switch op {
	case OpBeta, OpBinomial, OpGamma, OpPoisson, OpNormal:
		return true
	default:
		return false
	}
}

// IsElemwise reports whether the operation applies elementwise to its
// inputs, which is what lets a Broadcast wrapper on an input collapse.
func (op Op) IsElemwise() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpNeg, OpSqrt:
		return true
	default:
		return false
	}
}

// NodeID is a stable handle into an arena. Node identity is handle
// equality: structurally equal random variables with different handles are
// different draws.
type NodeID int32

const InvalidID NodeID = -1

// Node is one immutable expression record. Callers must not modify Inputs.
type Node struct {
	Op     Op
	Name   string  // symbols and random-variable labels
	Value  float64 // constants only
	DT     DType
	Inputs []NodeID
}

// Arena is the append-only store of records. Deterministic applications
// (constants and arithmetic) are interned so structurally equal expressions
// share a handle; symbols and random variables always get a fresh handle.
type Arena struct {
	nodes    []Node
	interned map[string]NodeID
}

func newArena() *Arena {
	return &Arena{interned: make(map[string]NodeID)}
}

func (a *Arena) add(n Node) NodeID {
	if n.Op == OpSymbol || n.Op.IsRV() {
		return a.append(n)
	}
	key := internKey(n)
	if id, ok := a.interned[key]; ok {
		return id
	}
	id := a.append(n)
	a.interned[key] = id
	return id
}

func (a *Arena) append(n Node) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return id
}

func (a *Arena) node(id NodeID) Node {
	return a.nodes[id]
}

func (a *Arena) len() int { return len(a.nodes) }

func internKey(n Node) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(n.Op)))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(int(n.DT)))
	sb.WriteByte('|')
	sb.WriteString(n.Name)
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
	for _, in := range n.Inputs {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(int(in)))
	}
	return sb.String()
}

// ShowNode renders a node for diagnostics.
func (fg *FGraph) ShowNode(id NodeID) string {
	n := fg.NodeOf(id)
	switch n.Op {
	case OpSymbol:
		if n.Name == "" {
			return fmt.Sprintf("sym#%d", id)
		}
		return n.Name
	case OpConst:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	}
	var sb strings.Builder
	if n.Name != "" {
		sb.WriteString(n.Name)
		sb.WriteByte('=')
	}
	sb.WriteString(n.Op.String())
	sb.WriteByte('(')
	for i, in := range n.Inputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fg.ShowNode(in))
	}
	sb.WriteByte(')')
	return sb.String()
}
