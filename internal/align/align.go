// Package align merges the lanes of a block into one row-synchronized grid.
//
// Lanes can repeat with different periods. Each lane is reduced to its
// elementary cycle, every lane is replayed until the tallest one is covered,
// and rows at the same index are concatenated left to right. The merged
// block repeats with the least common multiple of the cycle lengths.
package align

import (
	"github.com/vk/knitgrid/internal/diag"
	"github.com/vk/knitgrid/internal/grid"
	"github.com/vk/knitgrid/internal/model"
)

// Result is a merged block.
type Result struct {
	Segments []grid.Segment
	// Period is the length of the merged cycle, the lcm of the lane cycles.
	Period int
	// Height is the number of physical rows in the block.
	Height int
	// ExpectedWidth is the sum of the lanes' declared widths, or zero if any
	// lane declared none.
	ExpectedWidth int
}

// lane is a grid reduced to "play cycle count times".
type lane struct {
	cycle    []*grid.Row
	count    int
	declared bool
}

func (l lane) height() int {
	return len(l.cycle) * l.count
}

// decompose peels single repeat segments off g, multiplying their counts.
func decompose(g *grid.Grid) lane {
	segs := g.Segments
	count := 1
	declared := false
	for len(segs) == 1 {
		rs, ok := segs[0].(*grid.RepeatSegment)
		if !ok {
			break
		}
		count *= rs.Times
		segs = rs.Body
		declared = true
	}
	return lane{cycle: grid.Rows(segs), count: count, declared: declared}
}

// Align merges lanes into one block.
func Align(lanes []*grid.Grid) (*Result, error) {
	res, err := align(lanes)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func align(grids []*grid.Grid) (*Result, *diag.Error) {
	if len(grids) == 0 {
		return &Result{}, nil
	}

	lanes := make([]lane, len(grids))
	height := 0
	anyDeclared := false
	for i, g := range grids {
		lanes[i] = decompose(g)
		if h := lanes[i].height(); h > height {
			height = h
		}
		anyDeclared = anyDeclared || lanes[i].declared
	}
	if height == 0 {
		return &Result{}, nil
	}

	period := 1
	for i, l := range lanes {
		if l.height() != height {
			if !l.declared || l.height() == 0 {
				return nil, diag.Errorf(diag.IrreconcilableBlock,
					"lane %d has %d rows but the block has %d; only repeating lanes are replayed, use pad to add rows",
					i+1, l.height(), height).Counts(height, l.height())
			}
			if len(l.cycle) == 0 || height%len(l.cycle) != 0 {
				return nil, diag.Errorf(diag.IrreconcilableBlock,
					"lane %d repeats every %d rows, which does not divide the block height of %d",
					i+1, len(l.cycle), height).Counts(height, l.height())
			}
		}
		period = lcm(period, len(l.cycle))
	}

	merged := make([]grid.Segment, period)
	for j := 0; j < period; j++ {
		row, err := mergeRow(lanes, j)
		if err != nil {
			return nil, err
		}
		merged[j] = row
	}

	res := &Result{Period: period, Height: height, ExpectedWidth: expectedWidth(grids)}
	if anyDeclared {
		res.Segments = []grid.Segment{&grid.RepeatSegment{Times: height / period, Body: merged}}
	} else {
		res.Segments = merged
	}
	return res, nil
}

// mergeRow concatenates row j of every lane's replayed cycle.
func mergeRow(lanes []lane, j int) (*grid.Row, *diag.Error) {
	out := &grid.Row{}
	sideLane := -1
	expandLane := -1
	for i, l := range lanes {
		r := l.cycle[j%len(l.cycle)]
		if i == 0 {
			out.Source = r.Source
		}

		if r.Side != model.SideUnset {
			switch {
			case sideLane < 0:
				out.Side = r.Side
				sideLane = i
			case out.Side != r.Side:
				return nil, diag.Errorf(diag.SideConflict,
					"block row %d: lane %d is %s but lane %d is %s",
					j+1, sideLane+1, out.Side, i+1, r.Side).At(r.Source)
			}
		}

		if grid.ExpandIndex(r.Instructions) >= 0 {
			if expandLane >= 0 {
				return nil, diag.Errorf(diag.AmbiguousExpansion,
					"block row %d: lanes %d and %d both expand, so neither repeat count can be solved",
					j+1, expandLane+1, i+1).At(r.Source)
			}
			expandLane = i
		}

		start := len(out.Instructions)
		out.Instructions = append(out.Instructions, r.Instructions...)
		out.Lanes = append(out.Lanes, grid.LaneSpan{Start: start, End: len(out.Instructions)})
	}

	if expandLane >= 0 && expandLane < len(lanes)-1 {
		reserveRight(out, expandLane)
	}
	return out, nil
}

// reserveRight makes the expanding instruction in lane i also leave room for
// every lane to its right.
func reserveRight(r *grid.Row, i int) {
	span := r.Lanes[i]
	right, _, _ := grid.Counts(r.Instructions[span.End:])
	ins := make([]grid.Instruction, len(r.Instructions))
	copy(ins, r.Instructions)
	idx := span.Start + grid.ExpandIndex(ins[span.Start:span.End])
	e := ins[idx].(*grid.Expand)
	ins[idx] = &grid.Expand{Body: e.Body, ToLast: e.ToLast + right, Times: e.Times}
	r.Instructions = ins
}

func expectedWidth(grids []*grid.Grid) int {
	sum := 0
	for _, g := range grids {
		if g.ExpectedWidth <= 0 {
			return 0
		}
		sum += g.ExpectedWidth
	}
	return sum
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return a + b
	}
	return a / gcd(a, b) * b
}
