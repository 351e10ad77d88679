package grid

import (
	"github.com/vk/knitgrid/internal/stitch"
)

// Unresolved marks an expanding repeat whose multiplicity has not been solved.
const Unresolved = -1

// Instruction is a resolved element of a row.
type Instruction interface {
	instruction()
}

// Stitch is one application of a catalog operation.
type Stitch struct {
	Op stitch.Operation
}

// Repeat works Body a literal number of times. Parenthesized groups are a
// Repeat with Times 1.
type Repeat struct {
	Body  []Instruction
	Times int
}

// Expand works Body as many times as the live stitches allow, leaving ToLast
// stitches for the rest of the row. Times is Unresolved until verification.
type Expand struct {
	Body   []Instruction
	ToLast int
	Times  int
}

func (*Stitch) instruction() {}
func (*Repeat) instruction() {}
func (*Expand) instruction() {}

// Counts returns the stitches consumed and produced by a run of fixed
// instructions. ok is false when an unresolved expansion is reachable.
func Counts(ins []Instruction) (consumes, produces int, ok bool) {
	ok = true
	for _, in := range ins {
		c, p, k := counts(in)
		consumes += c
		produces += p
		ok = ok && k
	}
	return consumes, produces, ok
}

func counts(in Instruction) (int, int, bool) {
	switch in := in.(type) {
	case *Stitch:
		return in.Op.Consumes, in.Op.Produces, true
	case *Repeat:
		c, p, ok := Counts(in.Body)
		return c * in.Times, p * in.Times, ok
	case *Expand:
		if in.Times == Unresolved {
			return 0, 0, false
		}
		c, p, ok := Counts(in.Body)
		return c * in.Times, p * in.Times, ok
	}
	return 0, 0, true
}

// Unit returns the stitches consumed and produced by one pass over an
// expanding repeat's body.
func (e *Expand) Unit() (consumes, produces int) {
	c, p, _ := Counts(e.Body)
	return c, p
}

// Ops calls fn for every stitch operation reachable from ins, in order.
func Ops(ins []Instruction, fn func(stitch.Operation)) {
	for _, in := range ins {
		switch in := in.(type) {
		case *Stitch:
			fn(in.Op)
		case *Repeat:
			Ops(in.Body, fn)
		case *Expand:
			Ops(in.Body, fn)
		}
	}
}

// ExpandIndex returns the index of the top-level expanding instruction, or -1.
func ExpandIndex(ins []Instruction) int {
	for i, in := range ins {
		if _, ok := in.(*Expand); ok {
			return i
		}
	}
	return -1
}

// Mirror returns ins in reverse order, recursively. An expanding instruction
// reserves whatever the fixed instructions now following it consume.
func Mirror(ins []Instruction) []Instruction {
	out := make([]Instruction, len(ins))
	for i, in := range ins {
		var m Instruction
		switch in := in.(type) {
		case *Stitch:
			m = in
		case *Repeat:
			m = &Repeat{Body: Mirror(in.Body), Times: in.Times}
		case *Expand:
			m = &Expand{Body: Mirror(in.Body), ToLast: in.ToLast, Times: in.Times}
		}
		out[len(ins)-1-i] = m
	}
	if idx := ExpandIndex(out); idx >= 0 {
		after, _, _ := Counts(out[idx+1:])
		e := out[idx].(*Expand)
		out[idx] = &Expand{Body: e.Body, ToLast: after, Times: e.Times}
	}
	return out
}
