package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/knitgrid/internal/grid"
	"github.com/vk/knitgrid/internal/model"
	"github.com/vk/knitgrid/internal/stitch"
	"github.com/vk/knitgrid/internal/verify"
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

func verified(t *testing.T, g *grid.Grid, opts ...verify.Option) *verify.Result {
	t.Helper()
	res, err := verify.Verify(g, opts...)
	require.NoError(t, err)
	return res
}

func TestRender_RowFormats(t *testing.T) {
	g := grid.FromRows(
		grid.NewRow(run(t, "CO", 20)),
		grid.NewRow(
			run(t, "K", 2),
			&grid.Repeat{Body: []grid.Instruction{run(t, "K", 2), run(t, "P", 2)}, Times: 4},
			run(t, "K", 2),
		),
		grid.NewRow(run(t, "K", 4), run(t, "K", 6), expand(t, 0, "K", "P")),
		grid.NewRow(expand(t, 2, "K2TOG"), run(t, "K", 2)),
		grid.NewRow(expand(t, 0, "BO")),
	)

	want := []string{
		"CO 20.",
		"WS: K 2, [K 2, P 2] 4, K 2. (20 sts)",
		"RS: K 10, *K, P; rep from * to end. (20 sts)",
		"WS: *K2TOG; rep from * to last 2, K 2. (11 sts)",
		"RS: *BO; rep from * to end. (11 sts bound off)",
	}
	got := Render(verified(t, g))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_TaggedRepeatRoundTrip(t *testing.T) {
	g := &grid.Grid{Segments: []grid.Segment{
		grid.NewRow(run(t, "CO", 10)),
		&grid.RepeatSegment{Times: 5, Body: []grid.Segment{
			grid.NewRow(run(t, "K", 10)),
			grid.NewRow(run(t, "P", 10)),
		}},
		grid.NewRow(run(t, "BO", 10)),
	}}

	got := Render(verified(t, g))
	want := []string{
		"CO 10.",
		"**",
		"WS: K 10. (10 sts)",
		"RS: P 10. (10 sts)",
		"rep from ** 5 times",
		"WS: BO 10. (10 sts bound off)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, strings.Count(strings.Join(got, "\n"), "rep from ** 5 times"))
}

func TestRender_FoldsLiteralRows(t *testing.T) {
	var rows []*grid.Row
	for i := 0; i < 7; i++ {
		if i%2 == 0 {
			rows = append(rows, grid.NewRow(run(t, "K", 4)))
		} else {
			rows = append(rows, grid.NewRow(run(t, "P", 4)))
		}
	}

	got := Render(verified(t, grid.FromRows(rows...), verify.WithInitial(4)))
	want := []string{
		"**",
		"RS: K 4. (4 sts)",
		"WS: P 4. (4 sts)",
		"rep from ** 3 times",
		"RS: K 4. (4 sts)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestFoldSpans(t *testing.T) {
	testCases := []struct {
		name string
		in   []string
		want []span
	}{
		{name: "no repeats", in: []string{"a", "b", "c"}, want: []span{{0, 1, 1}, {1, 1, 1}, {2, 1, 1}}},
		{name: "single line run", in: []string{"a", "a", "a", "b"}, want: []span{{0, 1, 3}, {3, 1, 1}}},
		{name: "tie prefers shorter group", in: []string{"a", "a", "a", "a"}, want: []span{{0, 1, 4}}},
		{name: "prefix kept literal", in: []string{"x", "a", "b", "a", "b"}, want: []span{{0, 1, 1}, {1, 2, 2}}},
		{name: "empty", in: nil, want: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, foldSpans(tc.in), cmp.AllowUnexported(span{})); diff != "" {
				t.Errorf("foldSpans() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_VaryingRepeats(t *testing.T) {
	increase := func() []grid.Segment {
		return []grid.Segment{
			grid.NewSidedRow(model.WrongSide, expand(t, 0, "P")),
			grid.NewSidedRow(model.RightSide, run(t, "K", 1), expand(t, 1, "KFB"), run(t, "K", 1)),
		}
	}
	testCases := []struct {
		name string
		segs []grid.Segment
		want []string
	}{
		{
			name: "odd body alternates sides",
			segs: []grid.Segment{
				grid.NewRow(run(t, "CO", 10)),
				&grid.RepeatSegment{Times: 5, Body: []grid.Segment{grid.NewRow(expand(t, 0, "K"))}},
				grid.NewRow(expand(t, 0, "BO")),
			},
			want: []string{
				"CO 10.",
				"**",
				"WS/RS: *K; rep from * to end. (10 sts)",
				"rep from ** 5 times",
				"RS: *BO; rep from * to end. (10 sts bound off)",
			},
		},
		{
			name: "one row body with an even count",
			segs: []grid.Segment{
				grid.NewRow(run(t, "CO", 6)),
				&grid.RepeatSegment{Times: 4, Body: []grid.Segment{grid.NewRow(run(t, "K", 6))}},
			},
			want: []string{
				"CO 6.",
				"**",
				"WS/RS: K 6. (6 sts)",
				"rep from ** 4 times",
			},
		},
		{
			name: "increases every iteration",
			segs: []grid.Segment{
				grid.NewRow(run(t, "CO", 4)),
				&grid.RepeatSegment{Times: 3, Body: increase()},
			},
			want: []string{
				"CO 4.",
				"**",
				"WS: *P; rep from * to end.",
				"RS: K, *KFB; rep from * to last 1, K.",
				"rep from ** 3 times (18 sts)",
			},
		},
		{
			name: "literal rows that increase",
			segs: append(append([]grid.Segment{grid.NewRow(run(t, "CO", 4))}, increase()...), increase()...),
			want: []string{
				"CO 4.",
				"**",
				"WS: *P; rep from * to end.",
				"RS: K, *KFB; rep from * to last 1, K.",
				"rep from ** 2 times (10 sts)",
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Render(verified(t, &grid.Grid{Segments: tc.segs}))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Render() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 1, strings.Count(strings.Join(got, "\n"), "rep from **"))
		})
	}
}

func TestRender_SingleIterationInline(t *testing.T) {
	g := &grid.Grid{Segments: []grid.Segment{
		&grid.RepeatSegment{Times: 1, Body: []grid.Segment{
			grid.NewRow(run(t, "K", 3)),
		}},
	}}
	got := Render(verified(t, g, verify.WithInitial(3)))
	assert.Equal(t, []string{"RS: K 3. (3 sts)"}, got)
}

func TestRender_Idempotent(t *testing.T) {
	g := grid.FromRows(
		grid.NewRow(run(t, "CO", 6)),
		grid.NewRow(expand(t, 0, "K", "P")),
		grid.NewRow(expand(t, 0, "P", "K")),
		grid.NewRow(expand(t, 0, "K", "P")),
		grid.NewRow(expand(t, 0, "P", "K")),
	)
	res := verified(t, g)
	first := Render(res)
	second := Render(res)
	assert.Equal(t, first, second)

	again := verified(t, g)
	assert.Equal(t, res.Trace, again.Trace)
}
