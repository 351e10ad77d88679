// Package verify proves that a row grid is knittable. It walks the rows in
// physical order tracking the live stitches on the needle, solves the
// multiplicity of every expanding repeat, infers row sides, and returns a
// resolved copy of the grid.
//
// Sides follow strict alternation. A cast-on row has no side and the row after
// it is WS; without a cast-on the first row is RS. A row that declares a side
// keeps it and restarts the alternation from there, but two consecutive
// declared rows may not declare the same side. Only declarations are compared:
// a row inferred as WS may be followed by a row declared WS, which restarts the
// alternation.
//
// A repeated group stays one segment in the result even when its iterations
// land on alternating sides or change the stitch count; the body rows record
// which of the two happened.
package verify

import (
	"slices"

	"github.com/vk/knitgrid/internal/diag"
	"github.com/vk/knitgrid/internal/grid"
	"github.com/vk/knitgrid/internal/model"
)

// Result is a verified grid.
type Result struct {
	// Grid is the input with every expansion solved, sides inferred and
	// In/Out set on every row.
	Grid *grid.Grid
	// Trace is the live stitch count after each physical row.
	Trace []int
	// CastOn is the number of stitches cast on by the first cast-on row.
	CastOn int
	// Width is the live stitch count after the last row.
	Width int
}

type options struct {
	initial int
}

// Option configures Verify.
type Option func(*options)

// WithInitial starts verification with n live stitches instead of zero, for
// fragments that are worked onto existing stitches.
func WithInitial(n int) Option {
	return func(o *options) {
		o.initial = n
	}
}

type verifier struct {
	live         int
	row          int
	prevSide     model.Side
	prevDeclared bool
	trace        []int
	castOn       int
}

// Verify checks g and returns its resolved form. g itself is not modified.
func Verify(g *grid.Grid, opts ...Option) (*Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	v := &verifier{live: o.initial}
	segs, err := v.walk(g.Segments)
	if err != nil {
		return nil, err
	}

	if g.ExpectedWidth > 0 && v.live != g.ExpectedWidth {
		return nil, diag.Errorf(diag.StitchCountMismatch,
			"the last row leaves %d stitches but the pattern was sized to %d", v.live, g.ExpectedWidth).
			InRow(v.row).
			Counts(g.ExpectedWidth, v.live)
	}

	return &Result{
		Grid:   &grid.Grid{Segments: segs, ExpectedWidth: g.ExpectedWidth},
		Trace:  v.trace,
		CastOn: v.castOn,
		Width:  v.live,
	}, nil
}

func (v *verifier) walk(segs []grid.Segment) ([]grid.Segment, *diag.Error) {
	var out []grid.Segment
	for _, s := range segs {
		switch s := s.(type) {
		case *grid.Row:
			r, err := v.verifyRow(s)
			if err != nil {
				return nil, err
			}
			out = append(out, r)

		case *grid.RepeatSegment:
			if s.Times == 0 {
				continue
			}
			var iters [][]*grid.Row
			var first []grid.Segment
			for i := 0; i < s.Times; i++ {
				iter, err := v.walk(s.Body)
				if err != nil {
					return nil, err
				}
				if i == 0 {
					first = iter
				}
				iters = append(iters, grid.Rows(iter))
			}
			switch {
			case s.Times == 1:
				out = append(out, first...)
			case len(iters[0]) > 0:
				out = append(out, foldIterations(iters, v.live))
			}
		}
	}
	return out, nil
}

// foldIterations keeps a repeat as one segment whose body is the first
// iteration. Body rows are marked where later iterations work on the other
// side or on a different number of stitches.
func foldIterations(iters [][]*grid.Row, live int) *grid.RepeatSegment {
	body := make([]grid.Segment, len(iters[0]))
	varies := false
	for j, r := range iters[0] {
		c := *r
		for _, it := range iters[1:] {
			if it[j].Side != r.Side {
				c.Alternates = true
			}
			if it[j].In != r.In || it[j].Out != r.Out {
				c.Shaped = true
			}
		}
		varies = varies || c.Alternates || c.Shaped
		body[j] = &c
	}

	seg := &grid.RepeatSegment{Times: len(iters), Body: body, Out: live}
	if varies {
		seg.Played = slices.Concat(iters...)
	}
	return seg
}

func (v *verifier) verifyRow(r *grid.Row) (*grid.Row, *diag.Error) {
	v.row++
	live := v.live

	ins, err := v.resolve(r, live)
	if err != nil {
		return nil, err.InRow(v.row).At(r.Source)
	}
	consumed, produced, _ := grid.Counts(ins)
	if consumed != live {
		return nil, v.mismatch(r, ins, live, consumed)
	}

	side, err := v.side(r, live)
	if err != nil {
		return nil, err.InRow(v.row).At(r.Source)
	}

	v.live = produced
	v.trace = append(v.trace, produced)

	return &grid.Row{
		Instructions: ins,
		Side:         side,
		In:           live,
		Out:          produced,
		Lanes:        r.Lanes,
		Source:       r.Source,
	}, nil
}

// resolve solves the row's expanding repeat, if any, against live.
func (v *verifier) resolve(r *grid.Row, live int) ([]grid.Instruction, *diag.Error) {
	idx := grid.ExpandIndex(r.Instructions)
	if idx < 0 {
		return r.Instructions, nil
	}

	before, _, _ := grid.Counts(r.Instructions[:idx])
	after, _, _ := grid.Counts(r.Instructions[idx+1:])
	e := r.Instructions[idx].(*grid.Expand)
	unit, _ := e.Unit()

	if unit == 0 {
		return nil, diag.Errorf(diag.AmbiguousExpansion,
			"the repeat consumes no stitches, so the number of repeats cannot be solved")
	}
	if before > live {
		return nil, diag.Errorf(diag.NotEnoughStitches,
			"the stitches before the repeat need %d but only %d are live", before, live).
			Counts(live, before)
	}

	available := live - before
	reserved := max(e.ToLast, after)
	if available < reserved {
		return nil, diag.Errorf(diag.NotEnoughStitches,
			"the repeat must leave %d stitches but only %d remain", reserved, available).
			Counts(available, reserved)
	}
	if (available-reserved)%unit != 0 {
		return nil, diag.Errorf(diag.StitchCountMismatch,
			"%d stitches do not divide into repeats of %d", available-reserved, unit).
			Counts(available-reserved, unit)
	}

	ins := make([]grid.Instruction, len(r.Instructions))
	copy(ins, r.Instructions)
	ins[idx] = &grid.Expand{Body: e.Body, ToLast: e.ToLast, Times: (available - reserved) / unit}
	return ins, nil
}

// mismatch explains why a row did not consume exactly the live stitches.
func (v *verifier) mismatch(r *grid.Row, ins []grid.Instruction, live, consumed int) *diag.Error {
	var err *diag.Error
	switch {
	case len(r.Lanes) > 1:
		lanes := make([]int, len(r.Lanes))
		for i, span := range r.Lanes {
			lanes[i], _, _ = grid.Counts(ins[span.Start:span.End])
		}
		err = diag.Errorf(diag.StitchCountMismatch,
			"block lanes consume %v stitches, %d in total, but %d are live", lanes, consumed, live)
		err.Lanes = lanes
	case consumed > live:
		err = diag.Errorf(diag.NotEnoughStitches,
			"the row needs %d stitches but only %d are live", consumed, live)
	case r.IsBindOff():
		err = diag.Errorf(diag.IncompleteBindOff,
			"the bind-off leaves %d stitches on the needle", live-consumed)
	default:
		err = diag.Errorf(diag.StitchCountMismatch,
			"the row works %d stitches but %d are live", consumed, live)
	}
	return err.InRow(v.row).Counts(live, consumed).At(r.Source)
}

func (v *verifier) side(r *grid.Row, live int) (model.Side, *diag.Error) {
	if live == 0 && r.IsCastOn() {
		if v.castOn == 0 {
			_, v.castOn, _ = grid.Counts(r.Instructions)
		}
		v.prevSide = model.RightSide
		v.prevDeclared = false
		return model.SideUnset, nil
	}

	side := r.Side
	if side != model.SideUnset {
		if v.prevDeclared && v.prevSide == side {
			return model.SideUnset, diag.Errorf(diag.SideConflict,
				"rows %d and %d are both declared %s", v.row-1, v.row, side)
		}
		v.prevDeclared = true
	} else {
		side = v.prevSide.Flip()
		if side == model.SideUnset {
			side = model.RightSide
		}
		v.prevDeclared = false
	}
	v.prevSide = side
	return side, nil
}
