package grid

import (
	"github.com/vk/knitgrid/internal/model"
	"github.com/vk/knitgrid/internal/stitch"
)

// Run returns op worked n times: a bare stitch for n == 1, a repeat otherwise.
func Run(op stitch.Operation, n int) Instruction {
	if n == 1 {
		return &Stitch{Op: op}
	}
	return &Repeat{Body: []Instruction{&Stitch{Op: op}}, Times: n}
}

// NewRow builds an undeclared-side row.
func NewRow(ins ...Instruction) *Row {
	return &Row{Instructions: ins}
}

// NewSidedRow builds a row with a declared side.
func NewSidedRow(side model.Side, ins ...Instruction) *Row {
	return &Row{Instructions: ins, Side: side}
}

// FromRows wraps rows as a flat grid.
func FromRows(rows ...*Row) *Grid {
	segs := make([]Segment, len(rows))
	for i, r := range rows {
		segs[i] = r
	}
	return &Grid{Segments: segs}
}
