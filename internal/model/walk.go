// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file provides a depth-first walk over a pattern body. Static checks
// such as "does every referenced stitch exist" are written against it instead
// of each re-implementing the recursion.
package model

// Visitor receives each node of a pattern body in source order. Returning an
// error stops the walk.
type Visitor struct {
	Stitch func(*StitchLit) error
	Expr   func(Expr) error
}

// Walk visits every stitch literal and expression reachable from items.
func Walk(items []Item, v Visitor) error {
	for _, it := range items {
		if err := walkItem(it, v); err != nil {
			return err
		}
	}
	return nil
}

func walkItem(it Item, v Visitor) error {
	switch it := it.(type) {
	case *Row:
		return walkStitches(it.Stitches, v)
	case *Block:
		for _, lane := range it.Lanes {
			if err := walkExpr(lane, v); err != nil {
				return err
			}
		}
	case *RowRepeat:
		if err := walkExpr(it.Times, v); err != nil {
			return err
		}
		return Walk(it.Items, v)
	}
	return nil
}

func walkStitches(nodes []StitchNode, v Visitor) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case *StitchLit:
			if v.Stitch != nil {
				if err := v.Stitch(n); err != nil {
					return err
				}
			}
		case *FixedRepeat:
			if err := walkExpr(n.Times, v); err != nil {
				return err
			}
			if err := walkStitches(n.Stitches, v); err != nil {
				return err
			}
		case *ExpandingRepeat:
			if n.ToLast != nil {
				if err := walkExpr(n.ToLast, v); err != nil {
					return err
				}
			}
			if err := walkStitches(n.Stitches, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func walkExpr(e Expr, v Visitor) error {
	if e == nil {
		return nil
	}
	if v.Expr != nil {
		if err := v.Expr(e); err != nil {
			return err
		}
	}
	switch e := e.(type) {
	case *Call:
		for _, a := range e.Args {
			if err := walkExpr(a, v); err != nil {
				return err
			}
		}
	case *Arith:
		if err := walkExpr(e.LHS, v); err != nil {
			return err
		}
		return walkExpr(e.RHS, v)
	}
	return nil
}
