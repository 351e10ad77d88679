// This file contains the HCL schemas for pattern files. Bodies are read with
// the low-level Content API so that row, block and repeat blocks keep their
// source order, which is the order they are knitted in.

package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "pattern", LabelNames: []string{"name"}},
		{Type: "using", LabelNames: []string{"path"}},
		{Type: "show", LabelNames: []string{"label"}},
	},
}

var itemBlocks = []hcl.BlockHeaderSchema{
	{Type: "row"},
	{Type: "block"},
	{Type: "repeat"},
}

var patternSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "params"},
	},
	Blocks: itemBlocks,
}

var repeatSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "times", Required: true},
	},
	Blocks: itemBlocks,
}

var rowSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "side"},
		{Name: "stitches", Required: true},
	},
}

var blockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "lanes", Required: true},
	},
}

// usingBody is decoded with gohcl; it has no nested blocks.
type usingBody struct {
	Patterns []string `hcl:"patterns,optional"`
}

// showBody is decoded with gohcl and translated by hand afterwards.
type showBody struct {
	Pattern hcl.Expression `hcl:"pattern"`
}
