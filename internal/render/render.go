// Package render prints a verified grid as written knitting instructions.
//
// Tagged repeat segments print as a "**" marker, their rows, then
// "rep from ** N times". Runs of literal rows that repeat are folded the same
// way. A repeated row whose side flips between iterations prints both sides,
// as in "WS/RS:". When a repeated row's stitch count changes between
// iterations its count is left out and the repeat line gives the count after
// the last iteration instead. Rendering is purely presentational: it reads the
// verified grid and never changes it.
package render

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/knitgrid/internal/grid"
	"github.com/vk/knitgrid/internal/model"
	"github.com/vk/knitgrid/internal/verify"
)

// RepeatMarker opens a folded group of rows.
const RepeatMarker = "**"

// Render returns the instruction lines for a verified grid.
func Render(res *verify.Result) []string {
	return Segments(res.Grid.Segments)
}

// Segments renders resolved segments, folding repeated literal rows.
func Segments(segs []grid.Segment) []string {
	return renderSegments(segs, true)
}

func renderSegments(segs []grid.Segment, fold bool) []string {
	var out []string
	var run []*grid.Row
	flush := func() {
		out = append(out, foldRows(run, fold)...)
		run = nil
	}

	for _, s := range segs {
		switch s := s.(type) {
		case *grid.Row:
			run = append(run, s)
		case *grid.RepeatSegment:
			flush()
			switch {
			case s.Times == 1:
				out = append(out, renderSegments(s.Body, fold)...)
			case s.Times > 1:
				out = append(out, RepeatMarker)
				out = append(out, renderSegments(s.Body, false)...)
				out = append(out, repeatLine(s.Times, shaped(s.Body), s.Out))
			}
		}
	}
	flush()
	return out
}

func shaped(segs []grid.Segment) bool {
	return slices.ContainsFunc(grid.Rows(segs), func(r *grid.Row) bool { return r.Shaped })
}

// span is a group of size lines repeated count times from start.
type span struct {
	start, size, count int
}

// foldSpans groups repeated runs of consecutive keys. At each position it
// picks the group covering the most keys, preferring the shorter group on a
// tie. Unrepeated keys come back as spans of count 1.
func foldSpans(keys []string) []span {
	var out []span
	for i := 0; i < len(keys); {
		best := span{start: i, size: 1, count: 1}
		for l := 1; l <= (len(keys)-i)/2; l++ {
			c := 1
			for i+(c+1)*l <= len(keys) && slices.Equal(keys[i:i+l], keys[i+c*l:i+(c+1)*l]) {
				c++
			}
			if c >= 2 && l*c > best.size*best.count {
				best = span{start: i, size: l, count: c}
			}
		}
		out = append(out, best)
		i += best.size * best.count
	}
	return out
}

// foldRows renders literal rows, folding repeated groups by their
// instructions and side. Counts that differ between repeats of a group are
// replaced by the count after the group.
func foldRows(rows []*grid.Row, fold bool) []string {
	if !fold {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = Row(r)
		}
		return out
	}

	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = rowText(r)
	}

	var out []string
	for _, sp := range foldSpans(keys) {
		if sp.count == 1 {
			out = append(out, Row(rows[sp.start]))
			continue
		}
		out = append(out, RepeatMarker)
		varies := false
		for j := 0; j < sp.size; j++ {
			r := rows[sp.start+j]
			same := true
			for c := 1; c < sp.count; c++ {
				if rowCount(rows[sp.start+c*sp.size+j]) != rowCount(r) {
					same = false
				}
			}
			if same {
				out = append(out, Row(r))
			} else {
				out = append(out, keys[sp.start+j])
				varies = true
			}
		}
		last := rows[sp.start+sp.size*sp.count-1]
		out = append(out, repeatLine(sp.count, varies, last.Out))
	}
	return out
}

func repeatLine(n int, withCount bool, count int) string {
	line := fmt.Sprintf("rep from %s %d times", RepeatMarker, n)
	if withCount {
		line += fmt.Sprintf(" (%d sts)", count)
	}
	return line
}

// Row renders a single resolved row.
func Row(r *grid.Row) string {
	if r.Shaped {
		return rowText(r)
	}
	return rowText(r) + rowCount(r)
}

// rowText is the row without its trailing stitch count.
func rowText(r *grid.Row) string {
	if r.IsCastOn() {
		_, produced, _ := grid.Counts(r.Instructions)
		return fmt.Sprintf("CO %d.", produced)
	}

	var b strings.Builder
	if r.Side != model.SideUnset {
		b.WriteString(r.Side.String())
		if r.Alternates {
			b.WriteString("/")
			b.WriteString(r.Side.Flip().String())
		}
		b.WriteString(": ")
	}
	b.WriteString(Instructions(r.Instructions))
	b.WriteString(".")
	return b.String()
}

func rowCount(r *grid.Row) string {
	switch {
	case r.IsCastOn():
		return ""
	case r.IsBindOff():
		return fmt.Sprintf(" (%d sts bound off)", r.In)
	default:
		return fmt.Sprintf(" (%d sts)", r.Out)
	}
}

// token is one comma-separated element of a row. Plain runs of a single
// stitch keep symbol and count so neighbours can merge; everything else is
// pre-rendered text.
type token struct {
	symbol string
	count  int
	text   string
}

func (t token) String() string {
	switch {
	case t.text != "":
		return t.text
	case t.count == 1:
		return t.symbol
	default:
		return t.symbol + " " + strconv.Itoa(t.count)
	}
}

// Instructions renders an instruction list, merging adjacent runs of the
// same stitch.
func Instructions(ins []grid.Instruction) string {
	var toks []token
	push := func(t token) {
		if n := len(toks); n > 0 && t.text == "" && toks[n-1].text == "" && toks[n-1].symbol == t.symbol {
			toks[n-1].count += t.count
			return
		}
		toks = append(toks, t)
	}

	for i, in := range ins {
		switch in := in.(type) {
		case *grid.Stitch:
			push(token{symbol: in.Op.Symbol, count: 1})

		case *grid.Repeat:
			if in.Times == 0 {
				continue
			}
			if s, n, ok := single(in.Body); ok {
				push(token{symbol: s, count: n * in.Times})
				continue
			}
			text := "[" + Instructions(in.Body) + "]"
			if in.Times > 1 {
				text += " " + strconv.Itoa(in.Times)
			}
			push(token{text: text})

		case *grid.Expand:
			after, _, _ := grid.Counts(ins[i+1:])
			reserved := max(in.ToLast, after)
			text := "*" + Instructions(in.Body) + "; rep from * to "
			if reserved > 0 {
				text += "last " + strconv.Itoa(reserved)
			} else {
				text += "end"
			}
			push(token{text: text})
		}
	}

	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// single reports whether body works one stitch some number of times, and
// which.
func single(body []grid.Instruction) (string, int, bool) {
	if len(body) != 1 {
		return "", 0, false
	}
	switch in := body[0].(type) {
	case *grid.Stitch:
		return in.Op.Symbol, 1, true
	case *grid.Repeat:
		s, n, ok := single(in.Body)
		return s, n * in.Times, ok
	}
	return "", 0, false
}
