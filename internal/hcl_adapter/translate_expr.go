// This file contains the logic for translating HCL syntax expressions into the
// model's expression and stitch-list nodes. Only the forms the pattern
// language accepts are translated; anything else is reported with a
// diagnostic pointing at the offending expression.

package hcl_adapter

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/knitgrid/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// Stitch-list helper functions.
const (
	fnRep    = "rep"
	fnToEnd  = "to_end"
	fnToLast = "to_last"
)

func exprDiag(summary, detail string, rng hcl.Range) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  rng.Ptr(),
	}
}

// translateExpr converts an argument expression.
func translateExpr(expr hcl.Expression) (model.Expr, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return translateLiteral(e.Val, e.SrcRange)

	case *hclsyntax.TemplateExpr:
		if !e.IsStringLiteral() {
			return nil, hcl.Diagnostics{exprDiag("Unsupported template", "String interpolation is not supported in pattern arguments.", e.SrcRange)}
		}
		v, diags := e.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		return &model.StringLit{Value: v.AsString(), SrcRange: e.SrcRange}, nil

	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) != 1 {
			return nil, hcl.Diagnostics{exprDiag("Unsupported reference", "Only plain names can be referenced; attribute and index access are not supported.", e.SrcRange)}
		}
		return &model.Ref{Name: e.Traversal.RootName(), SrcRange: e.SrcRange}, nil

	case *hclsyntax.FunctionCallExpr:
		if e.ExpandFinal {
			return nil, hcl.Diagnostics{exprDiag("Unsupported call", "Argument expansion with \"...\" is not supported.", e.Range())}
		}
		call := &model.Call{Name: e.Name, SrcRange: e.Range()}
		var diags hcl.Diagnostics
		for _, a := range e.Args {
			arg, d := translateExpr(a)
			diags = append(diags, d...)
			call.Args = append(call.Args, arg)
		}
		if diags.HasErrors() {
			return nil, diags
		}
		return call, nil

	case *hclsyntax.BinaryOpExpr:
		op, ok := arithOp(e.Op)
		if !ok {
			return nil, hcl.Diagnostics{exprDiag("Unsupported operator", "Only +, -, *, / and % are supported.", e.SrcRange)}
		}
		lhs, diags := translateExpr(e.LHS)
		rhs, rdiags := translateExpr(e.RHS)
		diags = append(diags, rdiags...)
		if diags.HasErrors() {
			return nil, diags
		}
		return &model.Arith{Op: op, LHS: lhs, RHS: rhs, SrcRange: e.SrcRange}, nil

	case *hclsyntax.ParenthesesExpr:
		return translateExpr(e.Expression)

	default:
		return nil, hcl.Diagnostics{exprDiag("Unsupported expression", fmt.Sprintf("Expressions of type %T are not supported here.", expr), expr.Range())}
	}
}

func translateLiteral(v cty.Value, rng hcl.Range) (model.Expr, hcl.Diagnostics) {
	switch {
	case v.Type() == cty.Number:
		bf := v.AsBigFloat()
		if !bf.IsInt() || bf.Sign() < 0 || bf.Cmp(big.NewFloat(1<<31)) >= 0 {
			return nil, hcl.Diagnostics{exprDiag("Invalid number", "Counts must be natural numbers.", rng)}
		}
		n, _ := bf.Int64()
		return &model.NatLit{Value: int(n), SrcRange: rng}, nil
	case v.Type() == cty.String:
		return &model.StringLit{Value: v.AsString(), SrcRange: rng}, nil
	default:
		return nil, hcl.Diagnostics{exprDiag("Invalid literal", fmt.Sprintf("A %s literal cannot be used here.", v.Type().FriendlyName()), rng)}
	}
}

func arithOp(op *hclsyntax.Operation) (model.ArithOp, bool) {
	switch op {
	case hclsyntax.OpAdd:
		return model.OpAdd, true
	case hclsyntax.OpSubtract:
		return model.OpSub, true
	case hclsyntax.OpMultiply:
		return model.OpMul, true
	case hclsyntax.OpDivide:
		return model.OpDiv, true
	case hclsyntax.OpModulo:
		return model.OpMod, true
	default:
		return 0, false
	}
}

// translateStitchList converts the tuple assigned to a row's `stitches`.
func translateStitchList(expr hcl.Expression) ([]model.StitchNode, hcl.Diagnostics) {
	tuple, ok := expr.(*hclsyntax.TupleConsExpr)
	if !ok {
		return nil, hcl.Diagnostics{exprDiag("Invalid stitch list", "The stitches attribute must be a list, e.g. [K(2), P(2)].", expr.Range())}
	}
	return translateStitches(tuple.Exprs)
}

func translateStitches(exprs []hclsyntax.Expression) ([]model.StitchNode, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	nodes := make([]model.StitchNode, 0, len(exprs))
	for _, e := range exprs {
		n, d := translateStitch(e)
		diags = append(diags, d...)
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, diags
}

func translateStitch(expr hclsyntax.Expression) (model.StitchNode, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) != 1 {
			return nil, hcl.Diagnostics{exprDiag("Invalid stitch", "A stitch is written as its symbol, e.g. K or SSK.", e.SrcRange)}
		}
		return &model.StitchLit{Symbol: e.Traversal.RootName(), SrcRange: e.SrcRange}, nil

	case *hclsyntax.TupleConsExpr:
		body, diags := translateStitches(e.Exprs)
		return &model.FixedRepeat{Stitches: body, Times: &model.NatLit{Value: 1, SrcRange: e.SrcRange}, SrcRange: e.SrcRange}, diags

	case *hclsyntax.FunctionCallExpr:
		return translateStitchCall(e)

	default:
		return nil, hcl.Diagnostics{exprDiag("Invalid stitch", fmt.Sprintf("Expressions of type %T cannot appear in a stitch list.", expr), expr.Range())}
	}
}

func translateStitchCall(e *hclsyntax.FunctionCallExpr) (model.StitchNode, hcl.Diagnostics) {
	rng := e.Range()
	switch e.Name {
	case fnRep:
		if len(e.Args) < 2 {
			return nil, hcl.Diagnostics{exprDiag("Invalid rep", "rep() takes a count followed by at least one stitch.", rng)}
		}
		times, diags := translateExpr(e.Args[0])
		body, bdiags := translateStitches(e.Args[1:])
		diags = append(diags, bdiags...)
		return &model.FixedRepeat{Stitches: body, Times: times, SrcRange: rng}, diags

	case fnToEnd:
		if len(e.Args) < 1 {
			return nil, hcl.Diagnostics{exprDiag("Invalid to_end", "to_end() takes at least one stitch.", rng)}
		}
		body, diags := translateStitches(e.Args)
		return &model.ExpandingRepeat{Stitches: body, SrcRange: rng}, diags

	case fnToLast:
		if len(e.Args) < 2 {
			return nil, hcl.Diagnostics{exprDiag("Invalid to_last", "to_last() takes a stitch count followed by at least one stitch.", rng)}
		}
		last, diags := translateExpr(e.Args[0])
		body, bdiags := translateStitches(e.Args[1:])
		diags = append(diags, bdiags...)
		return &model.ExpandingRepeat{Stitches: body, ToLast: last, SrcRange: rng}, diags

	default:
		// SYMBOL(n) is shorthand for a stitch worked n times.
		if len(e.Args) != 1 {
			return nil, hcl.Diagnostics{exprDiag("Invalid stitch count", fmt.Sprintf("%s() takes exactly one count argument.", e.Name), rng)}
		}
		times, diags := translateExpr(e.Args[0])
		lit := &model.StitchLit{Symbol: e.Name, SrcRange: e.NameRange}
		return &model.FixedRepeat{Stitches: []model.StitchNode{lit}, Times: times, SrcRange: rng}, diags
	}
}
