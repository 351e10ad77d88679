// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Expr, the small argument language used for repeat counts,
// call arguments and block lanes.
//
// Why not keep hcl.Expression?
//
// An HCL expression can only be evaluated against an hcl.EvalContext, which
// would force the evaluator to express pattern calls as HCL functions and lose
// control over argument binding, arity errors and call-stack reporting. The
// adapter translates the handful of syntax forms we accept into these nodes
// and rejects everything else up front.
package model

import (
	"github.com/hashicorp/hcl/v2"
)

// Expr is a closed set of expression nodes.
type Expr interface {
	Range() hcl.Range
	expr()
}

// NatLit is a natural number literal.
type NatLit struct {
	Value    int
	SrcRange hcl.Range
}

// StringLit is a quoted string literal.
type StringLit struct {
	Value    string
	SrcRange hcl.Range
}

// Ref names a parameter or, failing that, a pattern.
type Ref struct {
	Name     string
	SrcRange hcl.Range
}

// Call invokes a pattern or builtin with positional arguments.
type Call struct {
	Name     string
	Args     []Expr
	SrcRange hcl.Range
}

// ArithOp is an integer operator.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

func (o ArithOp) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	default:
		return "?"
	}
}

// Arith is a binary integer operation over two expressions.
type Arith struct {
	Op       ArithOp
	LHS, RHS Expr
	SrcRange hcl.Range
}

func (e *NatLit) Range() hcl.Range    { return e.SrcRange }
func (e *StringLit) Range() hcl.Range { return e.SrcRange }
func (e *Ref) Range() hcl.Range       { return e.SrcRange }
func (e *Call) Range() hcl.Range      { return e.SrcRange }
func (e *Arith) Range() hcl.Range     { return e.SrcRange }

func (*NatLit) expr()    {}
func (*StringLit) expr() {}
func (*Ref) expr()       {}
func (*Call) expr()      {}
func (*Arith) expr()     {}

// Nat is a shorthand for a literal without a source range, mostly for tests
// and builtins assembled in Go.
func Nat(n int) *NatLit {
	return &NatLit{Value: n}
}
