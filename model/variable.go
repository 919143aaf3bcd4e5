// Package model holds the user-facing symbolic representation of a
// probabilistic model. A Variable is an immutable expression record: a leaf
// symbol, a constant, a deterministic operation applied to other variables,
// or a random variable drawn from a distribution.
//
// Variables are compared by pointer identity, never by structure: two
// Beta(1, 1) draws are two different random variables.
package model

import "sync/atomic"

type DType int

const (
	Real DType = iota
	Int
)

func (d DType) String() string {
	switch d {
	case Real:
		return "real"
	case Int:
		return "int"
	default:
		return "invalid"
	}
}

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

// seq orders variables by creation time. Graph walks sort on it so that
// "declaration order" is well-defined even though Go maps are unordered.
var seq atomic.Int64

// Variable is a single immutable node of the model expression tree.
// Do not modify fields after construction; Named is the one exception and
// must be called before the variable is referenced anywhere else.
type Variable struct {
	Op     Op
	Name   string
	Value  float64 // constants only
	DT     DType
	Inputs []*Variable

	seq int64
}

func newVariable(op Op, dt DType, inputs ...*Variable) *Variable {
	return &Variable{
		Op:     op,
		DT:     dt,
		Inputs: inputs,
		seq:    seq.Add(1),
	}
}

// Seq returns the variable's creation sequence number.
func (v *Variable) Seq() int64 { return v.seq }

// Named labels the variable and returns it. Call it at construction time
// only: it mutates in place so that the labelled variable keeps its identity.
func (v *Variable) Named(name string) *Variable {
	v.Name = name
	return v
}

// IsRV reports whether v is a random variable.
func (v *Variable) IsRV() bool { return v.Op.IsRV() }

// Symbol creates a leaf variable with no defining expression.
func Symbol(name string, dt DType) *Variable {
	return newVariable(OpSymbol, dt).Named(name)
}

// Const creates a constant leaf.
func Const(value float64) *Variable {
	v := newVariable(OpConst, Real)
	v.Value = value
	return v
}

func Add(a, b *Variable) *Variable { return newVariable(OpAdd, a.DT, a, b) }
func Sub(a, b *Variable) *Variable { return newVariable(OpSub, a.DT, a, b) }
func Mul(a, b *Variable) *Variable { return newVariable(OpMul, a.DT, a, b) }
func Div(a, b *Variable) *Variable { return newVariable(OpDiv, Real, a, b) }
func Neg(a *Variable) *Variable    { return newVariable(OpNeg, a.DT, a) }
func Sqrt(a *Variable) *Variable   { return newVariable(OpSqrt, Real, a) }

// Sum reduces a vector-valued expression to the sum of its elements.
func Sum(a *Variable) *Variable { return newVariable(OpSum, a.DT, a) }

// Len counts the elements of a vector-valued expression.
func Len(a *Variable) *Variable { return newVariable(OpLen, Int, a) }

// Broadcast marks a scalar expression as broadcast against the surrounding
// elementwise context.
func Broadcast(a *Variable) *Variable { return newVariable(OpBroadcast, a.DT, a) }

// Raw builds a variable directly from an operation. Intended for code that
// reconstructs model expressions from another representation; ordinary model
// building should go through the named constructors.
func Raw(op Op, dt DType, name string, inputs ...*Variable) *Variable {
	v := newVariable(op, dt, inputs...)
	v.Name = name
	return v
}

// Beta draws from a Beta(alpha, beta) distribution.
func Beta(alpha, beta *Variable) *Variable { return newVariable(OpBeta, Real, alpha, beta) }

// Binomial draws from a Binomial(n, p) distribution.
func Binomial(n, p *Variable) *Variable { return newVariable(OpBinomial, Int, n, p) }

// Gamma draws from a Gamma(shape, rate) distribution.
func Gamma(shape, rate *Variable) *Variable { return newVariable(OpGamma, Real, shape, rate) }

// Poisson draws from a Poisson(rate) distribution.
func Poisson(rate *Variable) *Variable { return newVariable(OpPoisson, Int, rate) }

// Normal draws from a Normal(mu, sigma) distribution.
func Normal(mu, sigma *Variable) *Variable { return newVariable(OpNormal, Real, mu, sigma) }
