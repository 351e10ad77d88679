package builtins

import (
	"context"
	"fmt"

	"github.com/vk/knitgrid/internal/align"
	"github.com/vk/knitgrid/internal/diag"
	"github.com/vk/knitgrid/internal/grid"
	"github.com/vk/knitgrid/internal/registry"
	"github.com/vk/knitgrid/internal/stitch"
	"github.com/vk/knitgrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Fill tiles a pattern to an exact size. The tile width is what the first
// fixed row consumes; rows that expand already fit any width and are kept
// as they are.
func Fill(_ context.Context, _ registry.Env, args []cty.Value) (cty.Value, error) {
	g, w, h := gridArg(args[0]), natArg(args[1]), natArg(args[2])
	if w == 0 || h == 0 {
		return cty.NilVal, diag.Errorf(diag.InvalidArgument, "fill needs a positive size, got %dx%d", w, h)
	}
	th := g.Height()
	if th == 0 {
		return cty.NilVal, diag.Errorf(diag.InvalidArgument, "fill needs a pattern with at least one row")
	}
	tw := tileWidth(g)
	if w%tw != 0 {
		return cty.NilVal, diag.Errorf(diag.StitchCountMismatch,
			"%d stitches is not a multiple of the %d-stitch tile", w, tw).Counts(w, tw)
	}
	if h%th != 0 {
		return cty.NilVal, diag.Errorf(diag.IrreconcilableBlock,
			"%d rows is not a multiple of the %d-row tile", h, th).Counts(h, th)
	}

	segs := repeatAcross(g.Segments, w/tw)
	return value.Grid(&grid.Grid{
		Segments:      []grid.Segment{&grid.RepeatSegment{Times: h / th, Body: segs}},
		ExpectedWidth: w,
	}), nil
}

// Tile repeats a pattern n times across and m times up.
func Tile(_ context.Context, _ registry.Env, args []cty.Value) (cty.Value, error) {
	g, n, m := gridArg(args[0]), natArg(args[1]), natArg(args[2])
	if n == 0 || m == 0 {
		return cty.NilVal, diag.Errorf(diag.InvalidArgument, "tile needs positive counts, got %dx%d", n, m)
	}
	if n > 1 {
		for _, r := range g.Rows() {
			if grid.ExpandIndex(r.Instructions) >= 0 {
				return cty.NilVal, diag.Errorf(diag.AmbiguousExpansion,
					"a row that repeats to the end cannot be tiled across").At(r.Source)
			}
		}
	}

	out := &grid.Grid{Segments: []grid.Segment{&grid.RepeatSegment{Times: m, Body: repeatAcross(g.Segments, n)}}}
	if w, ok := g.FinalWidth(); ok {
		out.ExpectedWidth = w * n
	}
	return value.Grid(out), nil
}

// Pad adds plain knit rows below the pattern across the width it starts
// from, and above it across the width it ends with.
func Pad(_ context.Context, env registry.Env, args []cty.Value) (cty.Value, error) {
	g, before, after := gridArg(args[0]), natArg(args[1]), natArg(args[2])
	in, out, err := measureBoth(g, "pad")
	if err != nil {
		return cty.NilVal, err
	}
	k, err := lookup(env, stitch.Knit)
	if err != nil {
		return cty.NilVal, err
	}

	var segs []grid.Segment
	segs = append(segs, plainRows(k, in, before)...)
	segs = append(segs, g.Segments...)
	segs = append(segs, plainRows(k, out, after)...)
	return value.Grid(&grid.Grid{Segments: segs, ExpectedWidth: g.ExpectedWidth}), nil
}

// Width measures a pattern without verifying it.
func Width(_ context.Context, _ registry.Env, args []cty.Value) (cty.Value, error) {
	w, err := measure(gridArg(args[0]), "width")
	if err != nil {
		return cty.NilVal, err
	}
	return value.Nat(w), nil
}

// Height counts a pattern's physical rows.
func Height(_ context.Context, _ registry.Env, args []cty.Value) (cty.Value, error) {
	return value.Nat(gridArg(args[0]).Height()), nil
}

// Standalone turns a fragment into a finished piece: cast on its width, work
// it, and bind off every stitch that is left.
func Standalone(_ context.Context, env registry.Env, args []cty.Value) (cty.Value, error) {
	g := gridArg(args[0])
	w, err := measure(g, "standalone")
	if err != nil {
		return cty.NilVal, err
	}
	if w == 0 {
		return cty.NilVal, diag.Errorf(diag.InvalidArgument, "standalone needs a pattern at least one stitch wide")
	}
	co, err := lookup(env, stitch.CastOn)
	if err != nil {
		return cty.NilVal, err
	}
	bo, err := lookup(env, stitch.BindOff)
	if err != nil {
		return cty.NilVal, err
	}

	segs := make([]grid.Segment, 0, len(g.Segments)+2)
	segs = append(segs, grid.NewRow(grid.Run(co, w)))
	segs = append(segs, g.Segments...)
	segs = append(segs, grid.NewRow(&grid.Expand{
		Body:  []grid.Instruction{&grid.Stitch{Op: bo}},
		Times: grid.Unresolved,
	}))
	return value.Grid(&grid.Grid{Segments: segs}), nil
}

// GarterBorder knits top and bottom garter rows across the full width and
// garter margins beside every row of the pattern.
func GarterBorder(_ context.Context, env registry.Env, args []cty.Value) (cty.Value, error) {
	g := gridArg(args[0])
	top, bottom, left, right := natArg(args[1]), natArg(args[2]), natArg(args[3]), natArg(args[4])

	in, out, err := measureBoth(g, "garterBorder")
	if err != nil {
		return cty.NilVal, err
	}
	k, err := lookup(env, stitch.Knit)
	if err != nil {
		return cty.NilVal, err
	}
	h := g.Height()

	var lanes []*grid.Grid
	if left > 0 {
		lanes = append(lanes, margin(k, left, h))
	}
	lanes = append(lanes, g)
	if right > 0 {
		lanes = append(lanes, margin(k, right, h))
	}
	middle, err := align.Align(lanes)
	if err != nil {
		return cty.NilVal, err
	}

	var segs []grid.Segment
	segs = append(segs, plainRows(k, left+in+right, top)...)
	segs = append(segs, middle.Segments...)
	segs = append(segs, plainRows(k, left+out+right, bottom)...)
	return value.Grid(&grid.Grid{Segments: segs, ExpectedWidth: left + out + right}), nil
}

// Reflect mirrors every row, so the pattern reads right to left.
func Reflect(_ context.Context, _ registry.Env, args []cty.Value) (cty.Value, error) {
	g := gridArg(args[0])
	segs := grid.MapRows(g.Segments, func(r *grid.Row) *grid.Row {
		return &grid.Row{Instructions: grid.Mirror(r.Instructions), Side: r.Side, Source: r.Source}
	})
	return value.Grid(&grid.Grid{Segments: segs, ExpectedWidth: g.ExpectedWidth}), nil
}

func gridArg(v cty.Value) *grid.Grid {
	g, ok := value.AsGrid(v)
	if !ok {
		panic(fmt.Sprintf("builtin called with %s where a grid was expected", value.TypeName(v.Type())))
	}
	return g
}

func natArg(v cty.Value) int {
	n, err := value.AsNat(v)
	if err != nil {
		panic(fmt.Sprintf("builtin called with a bad count: %v", err))
	}
	return n
}

func lookup(env registry.Env, symbol string) (stitch.Operation, error) {
	op, ok := env.Catalog().Lookup(symbol)
	if !ok {
		return stitch.Operation{}, diag.Errorf(diag.UnknownStitch, "the catalog has no '%s' stitch", symbol)
	}
	return op, nil
}

func measure(g *grid.Grid, fn string) (int, error) {
	w, ok := g.Width()
	if !ok {
		return 0, diag.Errorf(diag.AmbiguousExpansion,
			"%s cannot work out how many stitches the pattern starts from", fn)
	}
	return w, nil
}

// measureBoth returns the width g starts from and the width it ends with.
func measureBoth(g *grid.Grid, fn string) (int, int, error) {
	in, err := measure(g, fn)
	if err != nil {
		return 0, 0, err
	}
	out, ok := g.FinalWidth()
	if !ok {
		return 0, 0, diag.Errorf(diag.AmbiguousExpansion,
			"%s cannot work out how many stitches the pattern ends with", fn)
	}
	return in, out, nil
}

// tileWidth is the width of the first fixed row, or 1 when every row expands.
func tileWidth(g *grid.Grid) int {
	for _, r := range g.Rows() {
		if grid.ExpandIndex(r.Instructions) >= 0 {
			continue
		}
		c, p, _ := grid.Counts(r.Instructions)
		if c == 0 {
			c = p
		}
		if c > 0 {
			return c
		}
	}
	return 1
}

// repeatAcross wraps every fixed row in a repeat of n.
func repeatAcross(segs []grid.Segment, n int) []grid.Segment {
	if n == 1 {
		return segs
	}
	return grid.MapRows(segs, func(r *grid.Row) *grid.Row {
		if grid.ExpandIndex(r.Instructions) >= 0 {
			return r
		}
		return &grid.Row{
			Instructions: []grid.Instruction{&grid.Repeat{Body: r.Instructions, Times: n}},
			Side:         r.Side,
			Source:       r.Source,
		}
	})
}

func plainRows(k stitch.Operation, w, n int) []grid.Segment {
	if n == 0 {
		return nil
	}
	return []grid.Segment{&grid.RepeatSegment{Times: n, Body: []grid.Segment{grid.NewRow(grid.Run(k, w))}}}
}

func margin(k stitch.Operation, w, h int) *grid.Grid {
	return &grid.Grid{
		Segments:      []grid.Segment{&grid.RepeatSegment{Times: h, Body: []grid.Segment{grid.NewRow(grid.Run(k, w))}}},
		ExpectedWidth: w,
	}
}
