// Package value holds the runtime values passed between patterns. Numbers and
// strings are plain cty values; pattern references and evaluated grids travel
// as cty capsules so they can share one argument list with them.
package value

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/knitgrid/internal/grid"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// PatternRef names a pattern that has not been called yet.
type PatternRef struct {
	Name string
}

var (
	// PatternType is the capsule type of an uncalled pattern reference.
	PatternType = cty.Capsule("pattern", reflect.TypeOf(PatternRef{}))
	// GridType is the capsule type of an evaluated grid.
	GridType = cty.Capsule("grid", reflect.TypeOf(grid.Grid{}))
)

// Pattern wraps a pattern name.
func Pattern(name string) cty.Value {
	return cty.CapsuleVal(PatternType, &PatternRef{Name: name})
}

// Grid wraps an evaluated grid.
func Grid(g *grid.Grid) cty.Value {
	return cty.CapsuleVal(GridType, g)
}

// Nat wraps a natural number.
func Nat(n int) cty.Value {
	return cty.NumberIntVal(int64(n))
}

// AsPattern unwraps a pattern reference.
func AsPattern(v cty.Value) (*PatternRef, bool) {
	if !v.Type().Equals(PatternType) || v.IsNull() {
		return nil, false
	}
	return v.EncapsulatedValue().(*PatternRef), true
}

// AsGrid unwraps an evaluated grid.
func AsGrid(v cty.Value) (*grid.Grid, bool) {
	if !v.Type().Equals(GridType) || v.IsNull() {
		return nil, false
	}
	return v.EncapsulatedValue().(*grid.Grid), true
}

// IsPatternLike reports whether v can stand where a pattern is expected.
func IsPatternLike(v cty.Value) bool {
	t := v.Type()
	return t.Equals(PatternType) || t.Equals(GridType)
}

// AsNat converts v to a non-negative whole number. Strings holding digits are
// accepted, following cty's usual conversions.
func AsNat(v cty.Value) (int, error) {
	if IsPatternLike(v) {
		return 0, fmt.Errorf("expected a number, got a pattern")
	}
	num, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("expected a number: %w", err)
	}
	if num.IsNull() || !num.IsKnown() {
		return 0, fmt.Errorf("expected a number, got null")
	}
	var n int
	if err := gocty.FromCtyValue(num, &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("expected a natural number, got %d", n)
	}
	return n, nil
}

// Describe renders v for diagnostics.
func Describe(v cty.Value) string {
	if ref, ok := AsPattern(v); ok {
		return ref.Name
	}
	if g, ok := AsGrid(v); ok {
		w, _ := g.Width()
		return fmt.Sprintf("<grid %dx%d>", w, g.Height())
	}
	if !v.IsKnown() {
		return "(unknown)"
	}
	return strings.TrimSpace(string(hclwrite.TokensForValue(v).Bytes()))
}

// TypeName is a short name for v's kind, used in argument errors.
func TypeName(t cty.Type) string {
	switch {
	case t.Equals(PatternType), t.Equals(GridType):
		return "pattern"
	default:
		return t.FriendlyName()
	}
}
