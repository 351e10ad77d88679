package grid

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/knitgrid/internal/model"
	"github.com/vk/knitgrid/internal/stitch"
)

// LaneSpan is the half-open range of a row's instructions contributed by one
// block lane.
type LaneSpan struct {
	Start, End int
}

// Row is one resolved row. Side is the declared side until verification,
// which returns copies carrying the inferred side and the In/Out counts.
type Row struct {
	Instructions []Instruction
	Side         model.Side
	In, Out      int
	Lanes        []LaneSpan
	// Source is where the row was declared; zero for generated rows.
	Source hcl.Range

	// Alternates and Shaped are set on the body rows of a verified
	// RepeatSegment: the row's side flips between iterations, or its stitch
	// counts change. Side, In and Out then describe the first iteration.
	Alternates bool
	Shaped     bool
}

// Segment is a *Row or a *RepeatSegment.
type Segment interface {
	segment()
}

// RepeatSegment plays Body Times times in sequence.
type RepeatSegment struct {
	Times int
	Body  []Segment

	// Out is the live count after the last iteration. Set by verification.
	Out int
	// Played holds every physical row of a verified repeat whose iterations
	// differ. Rows replays it instead of Body.
	Played []*Row
}

func (*Row) segment()           {}
func (*RepeatSegment) segment() {}

// Grid is the evaluated form of a pattern instantiation.
type Grid struct {
	Segments []Segment
	// ExpectedWidth is the stitch count the last row must leave on the
	// needle. Zero means no expectation was declared.
	ExpectedWidth int
}

// IsCastOn reports whether the row only casts on.
func (r *Row) IsCastOn() bool {
	return r.only(stitch.CastOn)
}

// IsBindOff reports whether the row only binds off.
func (r *Row) IsBindOff() bool {
	return r.only(stitch.BindOff)
}

func (r *Row) only(symbol string) bool {
	seen := false
	all := true
	Ops(r.Instructions, func(op stitch.Operation) {
		seen = true
		if op.Symbol != symbol {
			all = false
		}
	})
	return seen && all
}

// Rows returns the rows of segs in physical order, replaying repeats.
func Rows(segs []Segment) []*Row {
	var out []*Row
	for _, s := range segs {
		switch s := s.(type) {
		case *Row:
			out = append(out, s)
		case *RepeatSegment:
			if s.Played != nil {
				out = append(out, s.Played...)
				continue
			}
			body := Rows(s.Body)
			for i := 0; i < s.Times; i++ {
				out = append(out, body...)
			}
		}
	}
	return out
}

// Height returns the number of physical rows in segs. It saturates at
// math.MaxInt instead of overflowing.
func Height(segs []Segment) int {
	n := 0
	for _, s := range segs {
		switch s := s.(type) {
		case *Row:
			n++
		case *RepeatSegment:
			n = satAdd(n, satMul(s.Times, Height(s.Body)))
		}
	}
	return n
}

// Height returns the number of physical rows.
func (g *Grid) Height() int {
	return Height(g.Segments)
}

// Rows returns every physical row in order.
func (g *Grid) Rows() []*Row {
	return Rows(g.Segments)
}

// MapRows rebuilds segs with fn applied to every row, keeping the repeat
// structure.
func MapRows(segs []Segment, fn func(*Row) *Row) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		switch s := s.(type) {
		case *Row:
			out = append(out, fn(s))
		case *RepeatSegment:
			out = append(out, &RepeatSegment{Times: s.Times, Body: MapRows(s.Body, fn)})
		}
	}
	return out
}
