package grid

import "math"

// Width measures the stitches the grid starts from, without verifying it: what
// the first row consumes, or produces when it is a cast-on. Leading rows that
// repeat to the end are solved backwards from the first fixed row, or from
// ExpectedWidth when no row is fixed. ok is false when that does not resolve.
func (g *Grid) Width() (int, bool) {
	rows := g.Rows()
	if len(rows) == 0 {
		return g.ExpectedWidth, true
	}
	if rows[0].IsCastOn() {
		_, p, _ := Counts(rows[0].Instructions)
		return p, true
	}

	fixed := len(rows)
	for i, r := range rows {
		if ExpandIndex(r.Instructions) < 0 {
			fixed = i
			break
		}
	}
	var live int
	switch {
	case fixed < len(rows):
		live, _, _ = Counts(rows[fixed].Instructions)
	case g.ExpectedWidth > 0:
		live = g.ExpectedWidth
	default:
		return 0, false
	}
	for i := fixed - 1; i >= 0; i-- {
		in, ok := solveIn(rows[i], live)
		if !ok {
			return 0, false
		}
		live = in
	}
	return live, true
}

// FinalWidth measures the stitches left after the last row: ExpectedWidth if
// one is declared, otherwise the rows are worked forward from Width.
func (g *Grid) FinalWidth() (int, bool) {
	if g.ExpectedWidth > 0 {
		return g.ExpectedWidth, true
	}
	live, ok := g.Width()
	if !ok {
		return 0, false
	}
	for _, r := range g.Rows() {
		live, ok = solveOut(r, live)
		if !ok {
			return 0, false
		}
	}
	return live, true
}

// solveIn returns the live count a row must start from to leave out.
func solveIn(r *Row, out int) (int, bool) {
	idx := ExpandIndex(r.Instructions)
	if idx < 0 {
		c, _, _ := Counts(r.Instructions)
		return c, true
	}
	bc, bp, _ := Counts(r.Instructions[:idx])
	ac, ap, _ := Counts(r.Instructions[idx+1:])
	uc, up := r.Instructions[idx].(*Expand).Unit()
	rest := out - bp - ap
	if up == 0 || rest < 0 || rest%up != 0 {
		return 0, false
	}
	return bc + rest/up*uc + ac, true
}

// solveOut returns what a row leaves when worked on live stitches.
func solveOut(r *Row, live int) (int, bool) {
	idx := ExpandIndex(r.Instructions)
	if idx < 0 {
		_, p, _ := Counts(r.Instructions)
		return p, true
	}
	bc, bp, _ := Counts(r.Instructions[:idx])
	ac, ap, _ := Counts(r.Instructions[idx+1:])
	e := r.Instructions[idx].(*Expand)
	uc, up := e.Unit()
	rest := live - bc - max(e.ToLast, ac)
	if uc == 0 || rest < 0 || rest%uc != 0 {
		return 0, false
	}
	return bp + rest/uc*up + ap, true
}

func satAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func satMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}
