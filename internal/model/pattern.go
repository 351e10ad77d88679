// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Pattern, the reusable definition at the heart of the
// model, together with the Item and StitchNode variants that make up its body.
//
// Why closed variants?
//
// The grammar fixes the set of item and stitch kinds. Sealing the interfaces
// with an unexported method means every switch over them can be checked by
// reading a single file, and adding a kind is a deliberate, compile-visible
// change rather than a new runtime lookup.
package model

import (
	"github.com/hashicorp/hcl/v2"
)

// Pattern is a named definition: a pure function from arguments to rows.
type Pattern struct {
	Name      string
	Params    []string
	Items     []Item
	DeclRange hcl.Range
	FSInfo    *FSInfo
}

// Item is one element of a pattern body.
type Item interface {
	Range() hcl.Range
	item()
}

// Row is a single pass across the work.
type Row struct {
	Side     Side
	Stitches []StitchNode
	SrcRange hcl.Range
}

// Block places lanes side by side over the same rows. Each lane evaluates to
// its own grid.
type Block struct {
	Lanes    []Expr
	SrcRange hcl.Range
}

// RowRepeat repeats its items Times times.
type RowRepeat struct {
	Times    Expr
	Items    []Item
	SrcRange hcl.Range
}

func (i *Row) Range() hcl.Range       { return i.SrcRange }
func (i *Block) Range() hcl.Range     { return i.SrcRange }
func (i *RowRepeat) Range() hcl.Range { return i.SrcRange }

func (*Row) item()       {}
func (*Block) item()     {}
func (*RowRepeat) item() {}

// StitchNode is one element of a row's stitch list.
type StitchNode interface {
	Range() hcl.Range
	stitchNode()
}

// StitchLit is a single stitch, referenced by catalog symbol.
type StitchLit struct {
	Symbol   string
	SrcRange hcl.Range
}

// FixedRepeat works Stitches Times times in a row.
type FixedRepeat struct {
	Stitches []StitchNode
	Times    Expr
	SrcRange hcl.Range
}

// ExpandingRepeat works Stitches as many times as fit, leaving ToLast
// stitches for the rest of the row. A nil ToLast means "to end".
type ExpandingRepeat struct {
	Stitches []StitchNode
	ToLast   Expr
	SrcRange hcl.Range
}

func (s *StitchLit) Range() hcl.Range       { return s.SrcRange }
func (s *FixedRepeat) Range() hcl.Range     { return s.SrcRange }
func (s *ExpandingRepeat) Range() hcl.Range { return s.SrcRange }

func (*StitchLit) stitchNode()       {}
func (*FixedRepeat) stitchNode()     {}
func (*ExpandingRepeat) stitchNode() {}
