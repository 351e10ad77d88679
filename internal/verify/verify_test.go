package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/knitgrid/internal/diag"
	"github.com/vk/knitgrid/internal/grid"
	"github.com/vk/knitgrid/internal/model"
	"github.com/vk/knitgrid/internal/stitch"
)

var catalog = stitch.Standard()

func op(t *testing.T, symbol string) stitch.Operation {
	t.Helper()
	o, ok := catalog.Lookup(symbol)
	require.True(t, ok, symbol)
	return o
}

func run(t *testing.T, symbol string, n int) grid.Instruction {
	t.Helper()
	return grid.Run(op(t, symbol), n)
}

func expand(t *testing.T, toLast int, symbols ...string) *grid.Expand {
	t.Helper()
	e := &grid.Expand{ToLast: toLast, Times: grid.Unresolved}
	for _, s := range symbols {
		e.Body = append(e.Body, &grid.Stitch{Op: op(t, s)})
	}
	return e
}

func TestVerify_CastOnAndKnit(t *testing.T) {
	g := grid.FromRows(
		grid.NewRow(run(t, "CO", 20)),
		grid.NewRow(run(t, "K", 20)),
	)
	res, err := Verify(g)
	require.NoError(t, err)
	assert.Equal(t, []int{20, 20}, res.Trace)
	assert.Equal(t, 20, res.CastOn)
	assert.Equal(t, 20, res.Width)

	rows := res.Grid.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, model.SideUnset, rows[0].Side)
	assert.Equal(t, model.WrongSide, rows[1].Side)
	assert.Equal(t, 20, rows[1].In)
	assert.Equal(t, 20, rows[1].Out)
}

func TestVerify_Decrease(t *testing.T) {
	g := grid.FromRows(
		grid.NewRow(run(t, "CO", 20)),
		grid.NewRow(run(t, "K2TOG", 10)),
	)
	res, err := Verify(g)
	require.NoError(t, err)
	assert.Equal(t, []int{20, 10}, res.Trace)
}

func TestVerify_SolvesExpansion(t *testing.T) {
	g := grid.FromRows(
		grid.NewRow(run(t, "CO", 20)),
		grid.NewRow(expand(t, 2, "K2TOG"), run(t, "K", 2)),
	)
	res, err := Verify(g)
	require.NoError(t, err)

	row := res.Grid.Rows()[1]
	e, ok := row.Instructions[0].(*grid.Expand)
	require.True(t, ok)
	assert.Equal(t, 9, e.Times)
	assert.Equal(t, 11, row.Out)

	// The input is left unresolved.
	orig := g.Rows()[1].Instructions[0].(*grid.Expand)
	assert.Equal(t, grid.Unresolved, orig.Times)
}

func TestVerify_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		rows     []*grid.Row
		kind     diag.Kind
		row      int
		expected int
		actual   int
	}{
		{
			name: "expansion consumes nothing",
			rows: []*grid.Row{
				grid.NewRow(run(t, "CO", 4)),
				grid.NewRow(expand(t, 0, "YO"), run(t, "K", 4)),
			},
			kind: diag.AmbiguousExpansion,
			row:  2,
		},
		{
			name: "expansion does not divide",
			rows: []*grid.Row{
				grid.NewRow(run(t, "CO", 5)),
				grid.NewRow(expand(t, 0, "K", "P")),
			},
			kind:     diag.StitchCountMismatch,
			row:      2,
			expected: 5,
			actual:   2,
		},
		{
			name: "too many stitches",
			rows: []*grid.Row{
				grid.NewRow(run(t, "CO", 4)),
				grid.NewRow(run(t, "K", 5)),
			},
			kind:     diag.NotEnoughStitches,
			row:      2,
			expected: 4,
			actual:   5,
		},
		{
			name: "leftover stitches",
			rows: []*grid.Row{
				grid.NewRow(run(t, "CO", 4)),
				grid.NewRow(run(t, "K", 3)),
			},
			kind:     diag.StitchCountMismatch,
			row:      2,
			expected: 4,
			actual:   3,
		},
		{
			name: "incomplete bind-off",
			rows: []*grid.Row{
				grid.NewRow(run(t, "CO", 4)),
				grid.NewRow(run(t, "BO", 3)),
			},
			kind:     diag.IncompleteBindOff,
			row:      2,
			expected: 4,
			actual:   3,
		},
		{
			name: "reserve exceeds live",
			rows: []*grid.Row{
				grid.NewRow(run(t, "CO", 2)),
				grid.NewRow(expand(t, 3, "K"), run(t, "K", 3)),
			},
			kind: diag.NotEnoughStitches,
			row:  2,
		},
		{
			name: "declared sides repeat",
			rows: []*grid.Row{
				grid.NewRow(run(t, "CO", 2)),
				grid.NewSidedRow(model.RightSide, run(t, "K", 2)),
				grid.NewSidedRow(model.RightSide, run(t, "K", 2)),
			},
			kind: diag.SideConflict,
			row:  3,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Verify(grid.FromRows(tc.rows...))
			require.Error(t, err)
			de, ok := diag.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, de.Kind, de.Error())
			assert.Equal(t, tc.row, de.Row)
			if tc.expected != 0 || tc.actual != 0 {
				assert.Equal(t, tc.expected, de.Expected)
				assert.Equal(t, tc.actual, de.Actual)
			}
		})
	}
}

func TestVerify_LaneMismatch(t *testing.T) {
	block := &grid.Row{
		Instructions: []grid.Instruction{run(t, "K", 18), run(t, "K", 20)},
		Lanes:        []grid.LaneSpan{{Start: 0, End: 1}, {Start: 1, End: 2}},
	}
	g := grid.FromRows(grid.NewRow(run(t, "CO", 20)), block)

	_, err := Verify(g)
	require.Error(t, err)
	de, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.StitchCountMismatch, de.Kind)
	assert.Equal(t, 2, de.Row)
	assert.Equal(t, 20, de.Expected)
	assert.Equal(t, 38, de.Actual)
	assert.Equal(t, []int{18, 20}, de.Lanes)
}

func TestVerify_SideInference(t *testing.T) {
	t.Run("no cast-on starts on RS", func(t *testing.T) {
		g := grid.FromRows(
			grid.NewRow(run(t, "K", 2)),
			grid.NewRow(run(t, "P", 2)),
			grid.NewRow(run(t, "K", 2)),
		)
		res, err := Verify(g, WithInitial(2))
		require.NoError(t, err)
		var sides []model.Side
		for _, r := range res.Grid.Rows() {
			sides = append(sides, r.Side)
		}
		assert.Equal(t, []model.Side{model.RightSide, model.WrongSide, model.RightSide}, sides)
	})

	t.Run("declared side restarts alternation", func(t *testing.T) {
		g := grid.FromRows(
			grid.NewRow(run(t, "CO", 2)),
			grid.NewSidedRow(model.RightSide, run(t, "K", 2)),
			grid.NewRow(run(t, "P", 2)),
			grid.NewSidedRow(model.WrongSide, run(t, "P", 2)),
			grid.NewRow(run(t, "K", 2)),
		)
		res, err := Verify(g)
		require.NoError(t, err)
		var sides []model.Side
		for _, r := range res.Grid.Rows() {
			sides = append(sides, r.Side)
		}
		// The inferred WS row may be followed by a declared WS row.
		assert.Equal(t, []model.Side{
			model.SideUnset, model.RightSide, model.WrongSide, model.WrongSide, model.RightSide,
		}, sides)
	})
}

func TestVerify_KeepsIdenticalRepeats(t *testing.T) {
	g := &grid.Grid{Segments: []grid.Segment{
		grid.NewRow(run(t, "CO", 4)),
		&grid.RepeatSegment{Times: 5, Body: []grid.Segment{
			grid.NewRow(run(t, "K", 4)),
			grid.NewRow(run(t, "P", 4)),
		}},
	}}
	res, err := Verify(g)
	require.NoError(t, err)
	require.Len(t, res.Grid.Segments, 2)
	rs, ok := res.Grid.Segments[1].(*grid.RepeatSegment)
	require.True(t, ok)
	assert.Equal(t, 5, rs.Times)
	assert.Nil(t, rs.Played)
	assert.Len(t, res.Trace, 11)
	assert.Len(t, res.Grid.Rows(), 11)
}

func TestVerify_KeepsVaryingRepeats(t *testing.T) {
	testCases := []struct {
		name           string
		segs           []grid.Segment
		trace          []int
		wantAlternates []bool
		wantShaped     []bool
		wantOut        int
	}{
		{
			// Each pass decreases, so no two iterations see the same live count.
			name: "decreasing",
			segs: []grid.Segment{
				grid.NewRow(run(t, "CO", 8)),
				&grid.RepeatSegment{Times: 2, Body: []grid.Segment{
					grid.NewRow(expand(t, 2, "K"), run(t, "K2TOG", 1)),
					grid.NewRow(expand(t, 0, "P")),
				}},
			},
			trace:          []int{8, 7, 7, 6, 6},
			wantAlternates: []bool{false, false},
			wantShaped:     []bool{true, true},
			wantOut:        6,
		},
		{
			name: "odd body",
			segs: []grid.Segment{
				grid.NewRow(run(t, "CO", 10)),
				&grid.RepeatSegment{Times: 5, Body: []grid.Segment{
					grid.NewRow(expand(t, 0, "K")),
				}},
			},
			trace:          []int{10, 10, 10, 10, 10, 10},
			wantAlternates: []bool{true},
			wantShaped:     []bool{false},
			wantOut:        10,
		},
		{
			name: "increasing with declared sides",
			segs: []grid.Segment{
				grid.NewRow(run(t, "CO", 4)),
				&grid.RepeatSegment{Times: 3, Body: []grid.Segment{
					grid.NewSidedRow(model.WrongSide, expand(t, 0, "P")),
					grid.NewSidedRow(model.RightSide, run(t, "K", 1), expand(t, 1, "KFB"), run(t, "K", 1)),
				}},
			},
			trace:          []int{4, 4, 6, 6, 10, 10, 18},
			wantAlternates: []bool{false, false},
			wantShaped:     []bool{true, true},
			wantOut:        18,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Verify(&grid.Grid{Segments: tc.segs})
			require.NoError(t, err)
			assert.Equal(t, tc.trace, res.Trace)

			require.Len(t, res.Grid.Segments, 2)
			rs, ok := res.Grid.Segments[1].(*grid.RepeatSegment)
			require.True(t, ok)
			assert.Equal(t, tc.wantOut, rs.Out)

			var alternates, shaped []bool
			for _, r := range grid.Rows(rs.Body) {
				alternates = append(alternates, r.Alternates)
				shaped = append(shaped, r.Shaped)
			}
			assert.Equal(t, tc.wantAlternates, alternates)
			assert.Equal(t, tc.wantShaped, shaped)

			rows := res.Grid.Rows()
			require.Len(t, rows, len(tc.trace))
			for i, r := range rows {
				assert.Equal(t, tc.trace[i], r.Out, "row %d", i+1)
			}
		})
	}
}

func TestVerify_ExpectedWidth(t *testing.T) {
	g := grid.FromRows(grid.NewRow(run(t, "CO", 4)))
	g.ExpectedWidth = 6
	_, err := Verify(g)
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.StitchCountMismatch))
}

func TestVerify_Deterministic(t *testing.T) {
	g := grid.FromRows(
		grid.NewRow(run(t, "CO", 12)),
		grid.NewRow(expand(t, 0, "K", "P")),
	)
	a, err := Verify(g)
	require.NoError(t, err)
	b, err := Verify(g)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
