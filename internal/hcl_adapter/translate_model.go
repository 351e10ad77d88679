// This file contains the logic for translating HCL blocks into the
// format-agnostic pattern model.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/knitgrid/internal/config"
	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/vk/knitgrid/internal/model"
)

// translatePattern converts a `pattern "name" { ... }` block.
func translatePattern(ctx context.Context, block *hcl.Block, fs *model.FSInfo) (*model.Pattern, hcl.Diagnostics) {
	name := block.Labels[0]
	logger := ctxlog.FromContext(ctx).With("pattern", name)
	logger.Debug("Translating HCL pattern to internal model.")

	content, diags := block.Body.Content(patternSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	p := &model.Pattern{
		Name:      name,
		DeclRange: block.DefRange,
		FSInfo:    fs,
	}

	if attr, ok := content.Attributes["params"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &p.Params)...)
		seen := make(map[string]bool, len(p.Params))
		for _, param := range p.Params {
			if seen[param] {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate parameter",
					Detail:   fmt.Sprintf("Pattern '%s' declares parameter '%s' more than once.", name, param),
					Subject:  attr.Expr.Range().Ptr(),
				})
			}
			seen[param] = true
		}
	}

	items, itemDiags := translateItems(content.Blocks)
	diags = append(diags, itemDiags...)
	p.Items = items

	logger.Debug("Pattern translated.", "params", len(p.Params), "items", len(p.Items))
	return p, diags
}

func translateItems(blocks hcl.Blocks) ([]model.Item, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	items := make([]model.Item, 0, len(blocks))
	for _, b := range blocks {
		var it model.Item
		var d hcl.Diagnostics
		switch b.Type {
		case "row":
			it, d = translateRow(b)
		case "block":
			it, d = translateBlock(b)
		case "repeat":
			it, d = translateRepeat(b)
		}
		diags = append(diags, d...)
		if it != nil {
			items = append(items, it)
		}
	}
	return items, diags
}

func translateRow(block *hcl.Block) (model.Item, hcl.Diagnostics) {
	content, diags := block.Body.Content(rowSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	row := &model.Row{SrcRange: block.DefRange}
	if attr, ok := content.Attributes["side"]; ok {
		var side string
		if d := gohcl.DecodeExpression(attr.Expr, nil, &side); d.HasErrors() {
			return nil, append(diags, d...)
		}
		s, err := model.ParseSide(side)
		if err != nil {
			return nil, append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid side",
				Detail:   err.Error(),
				Subject:  attr.Expr.Range().Ptr(),
			})
		}
		row.Side = s
	}

	stitches, d := translateStitchList(content.Attributes["stitches"].Expr)
	diags = append(diags, d...)
	row.Stitches = stitches
	return row, diags
}

func translateBlock(block *hcl.Block) (model.Item, hcl.Diagnostics) {
	content, diags := block.Body.Content(blockSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	expr := content.Attributes["lanes"].Expr
	exprs, d := hcl.ExprList(expr)
	if d.HasErrors() {
		return nil, append(diags, d...)
	}
	if len(exprs) == 0 {
		return nil, append(diags, exprDiag("Empty block", "A block needs at least one lane.", expr.Range()))
	}

	b := &model.Block{SrcRange: block.DefRange}
	for _, e := range exprs {
		lane, d := translateExpr(e)
		diags = append(diags, d...)
		b.Lanes = append(b.Lanes, lane)
	}
	return b, diags
}

func translateRepeat(block *hcl.Block) (model.Item, hcl.Diagnostics) {
	content, diags := block.Body.Content(repeatSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	times, d := translateExpr(content.Attributes["times"].Expr)
	diags = append(diags, d...)
	items, d := translateItems(content.Blocks)
	diags = append(diags, d...)

	return &model.RowRepeat{Times: times, Items: items, SrcRange: block.DefRange}, diags
}

// translateShow converts a `show "label" { pattern = ... }` block.
func translateShow(block *hcl.Block) (*config.Show, hcl.Diagnostics) {
	var body showBody
	diags := gohcl.DecodeBody(block.Body, nil, &body)
	if diags.HasErrors() {
		return nil, diags
	}
	expr, d := translateExpr(body.Pattern)
	diags = append(diags, d...)
	return &config.Show{Label: block.Labels[0], Expr: expr, DeclRange: block.DefRange}, diags
}
