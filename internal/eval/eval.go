// Package eval turns pattern calls into row grids. It is a pure interpreter
// over the definitions held in a sealed registry: it never checks stitch
// counts, that is the verifier's job, but it does reject anything that cannot
// even be laid out as rows.
package eval

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/vk/knitgrid/internal/diag"
	"github.com/vk/knitgrid/internal/grid"
	"github.com/vk/knitgrid/internal/model"
	"github.com/vk/knitgrid/internal/registry"
	"github.com/vk/knitgrid/internal/stitch"
	"github.com/vk/knitgrid/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// DefaultMaxDepth bounds pattern call nesting. Patterns cannot recurse
// usefully, so hitting it almost always means a pattern calls itself.
const DefaultMaxDepth = 64

// DefaultMaxRows bounds the physical rows one evaluation may lay out.
// Verification and rendering walk every row, so a huge repeat count would
// otherwise keep them busy indefinitely.
const DefaultMaxRows = 100000

// Evaluator evaluates pattern calls against one registry and catalog. It is
// safe for concurrent use once the registry is sealed.
type Evaluator struct {
	reg      *registry.Registry
	catalog  *stitch.Catalog
	workers  int
	maxDepth int
	maxRows  int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithWorkers caps how many block lanes are evaluated at once, per block.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithMaxRows overrides DefaultMaxRows.
func WithMaxRows(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxRows = n
		}
	}
}

// New creates an evaluator.
func New(reg *registry.Registry, catalog *stitch.Catalog, opts ...Option) *Evaluator {
	e := &Evaluator{
		reg:      reg,
		catalog:  catalog,
		workers:  4,
		maxDepth: DefaultMaxDepth,
		maxRows:  DefaultMaxRows,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog implements registry.Env.
func (e *Evaluator) Catalog() *stitch.Catalog {
	return e.catalog
}

// Evaluate calls the named pattern or builtin with args.
func (e *Evaluator) Evaluate(ctx context.Context, name string, args ...cty.Value) (*grid.Grid, error) {
	ctxlog.FromContext(ctx).Debug("Evaluating pattern.", "pattern", name, "args", len(args))
	v, err := e.call(ctx, 0, name, args, hcl.Range{})
	if err != nil {
		return nil, err
	}
	return e.toGrid(ctx, 0, v, hcl.Range{})
}

// EvaluateExpr evaluates a top-level expression, such as the body of a show
// block. A bare pattern reference is called with no arguments.
func (e *Evaluator) EvaluateExpr(ctx context.Context, expr model.Expr) (*grid.Grid, error) {
	v, err := e.evalExpr(ctx, &scope{}, expr)
	if err != nil {
		return nil, err
	}
	return e.toGrid(ctx, 0, v, expr.Range())
}

// scope is the environment of one pattern activation.
type scope struct {
	vars  map[string]cty.Value
	depth int
}

func (e *Evaluator) evalExpr(ctx context.Context, sc *scope, ex model.Expr) (cty.Value, error) {
	switch ex := ex.(type) {
	case *model.NatLit:
		return value.Nat(ex.Value), nil

	case *model.StringLit:
		return cty.StringVal(ex.Value), nil

	case *model.Ref:
		if v, ok := sc.vars[ex.Name]; ok {
			return v, nil
		}
		if _, ok := e.reg.Pattern(ex.Name); ok {
			return value.Pattern(ex.Name), nil
		}
		return cty.NilVal, diag.Errorf(diag.UnknownPattern,
			"'%s' is neither a parameter nor a pattern", ex.Name).At(ex.SrcRange)

	case *model.Call:
		args := make([]cty.Value, len(ex.Args))
		for i, a := range ex.Args {
			v, err := e.evalExpr(ctx, sc, a)
			if err != nil {
				return cty.NilVal, err
			}
			args[i] = v
		}
		return e.call(ctx, sc.depth, ex.Name, args, ex.SrcRange)

	case *model.Arith:
		return e.evalArith(ctx, sc, ex)
	}
	return cty.NilVal, fmt.Errorf("unsupported expression %T", ex)
}

func (e *Evaluator) evalArith(ctx context.Context, sc *scope, ex *model.Arith) (cty.Value, error) {
	l, err := e.evalNat(ctx, sc, ex.LHS)
	if err != nil {
		return cty.NilVal, err
	}
	r, err := e.evalNat(ctx, sc, ex.RHS)
	if err != nil {
		return cty.NilVal, err
	}

	var n int
	switch ex.Op {
	case model.OpAdd:
		n = l + r
	case model.OpSub:
		n = l - r
	case model.OpMul:
		n = l * r
	case model.OpDiv, model.OpMod:
		if r == 0 {
			return cty.NilVal, diag.Errorf(diag.InvalidArgument, "%d %s 0 is undefined", l, ex.Op).At(ex.SrcRange)
		}
		if ex.Op == model.OpDiv {
			n = l / r
		} else {
			n = l % r
		}
	}
	if n < 0 {
		return cty.NilVal, diag.Errorf(diag.InvalidArgument,
			"%d %s %d is negative; counts must be natural numbers", l, ex.Op, r).At(ex.SrcRange)
	}
	return value.Nat(n), nil
}

func (e *Evaluator) evalNat(ctx context.Context, sc *scope, ex model.Expr) (int, error) {
	v, err := e.evalExpr(ctx, sc, ex)
	if err != nil {
		return 0, err
	}
	n, err := value.AsNat(v)
	if err != nil {
		return 0, diag.Errorf(diag.InvalidArgument, "%v", err).At(ex.Range())
	}
	return n, nil
}

// call applies a pattern or builtin. depth is the caller's nesting level.
func (e *Evaluator) call(ctx context.Context, depth int, name string, args []cty.Value, rng hcl.Range) (cty.Value, error) {
	if err := ctx.Err(); err != nil {
		return cty.NilVal, err
	}
	if depth >= e.maxDepth {
		return cty.NilVal, diag.Errorf(diag.RecursionLimit,
			"calling '%s' exceeds the nesting limit of %d", name, e.maxDepth).At(rng)
	}
	frame := diag.Frame{Pattern: name, Args: describeAll(args)}

	if p, ok := e.reg.Pattern(name); ok {
		if len(p.Params) != len(args) {
			return cty.NilVal, arityError(name, len(p.Params), len(args), rng)
		}
		vars := make(map[string]cty.Value, len(args))
		for i, param := range p.Params {
			vars[param] = args[i]
		}
		g, err := e.evalPattern(ctx, p, &scope{vars: vars, depth: depth + 1})
		if err != nil {
			return cty.NilVal, pushFrame(err, frame)
		}
		return value.Grid(g), nil
	}

	if n, ok := e.reg.Native(name); ok {
		if len(n.Params) != len(args) {
			return cty.NilVal, arityError(name, len(n.Params), len(args), rng)
		}
		conv, err := e.convertArgs(ctx, depth+1, n, args, rng)
		if err != nil {
			return cty.NilVal, pushFrame(err, frame)
		}
		out, err := n.Fn(ctx, e, conv)
		if err == nil {
			if g, ok := value.AsGrid(out); ok {
				if de := e.checkRows(g.Segments); de != nil {
					err = de
				}
			}
		}
		if err != nil {
			if _, isDiag := diag.As(err); !isDiag && !errors.Is(err, context.Canceled) {
				err = diag.Errorf(diag.InvalidArgument, "%s: %v", name, err)
			}
			if de, ok := diag.As(err); ok {
				de.At(rng)
			}
			return cty.NilVal, pushFrame(err, frame)
		}
		return out, nil
	}

	return cty.NilVal, diag.Errorf(diag.UnknownPattern, "no pattern or builtin named '%s'", name).At(rng)
}

// convertArgs coerces arguments to a builtin's declared parameter types.
// Pattern references passed where a grid is expected are called with no
// arguments.
func (e *Evaluator) convertArgs(ctx context.Context, depth int, n *registry.Native, args []cty.Value, rng hcl.Range) ([]cty.Value, error) {
	out := make([]cty.Value, len(args))
	for i, p := range n.Params {
		switch {
		case p.Type.Equals(value.GridType):
			g, err := e.toGrid(ctx, depth, args[i], rng)
			if err != nil {
				return nil, err
			}
			out[i] = value.Grid(g)

		case p.Type.Equals(cty.Number):
			v, err := value.AsNat(args[i])
			if err != nil {
				return nil, diag.Errorf(diag.InvalidArgument,
					"argument '%s' of %s: %v", p.Name, n.Name, err).At(rng)
			}
			out[i] = value.Nat(v)

		case p.Type == cty.DynamicPseudoType:
			out[i] = args[i]

		default:
			v, err := convert.Convert(args[i], p.Type)
			if err != nil {
				return nil, diag.Errorf(diag.InvalidArgument,
					"argument '%s' of %s must be %s, got %s", p.Name, n.Name,
					value.TypeName(p.Type), value.TypeName(args[i].Type())).At(rng)
			}
			out[i] = v
		}
	}
	return out, nil
}

func (e *Evaluator) toGrid(ctx context.Context, depth int, v cty.Value, rng hcl.Range) (*grid.Grid, error) {
	if g, ok := value.AsGrid(v); ok {
		return g, nil
	}
	if ref, ok := value.AsPattern(v); ok {
		out, err := e.call(ctx, depth, ref.Name, nil, rng)
		if err != nil {
			return nil, err
		}
		return e.toGrid(ctx, depth, out, rng)
	}
	return nil, diag.Errorf(diag.InvalidArgument,
		"expected a pattern, got %s %s", value.TypeName(v.Type()), value.Describe(v)).At(rng)
}

func (e *Evaluator) evalPattern(ctx context.Context, p *model.Pattern, sc *scope) (*grid.Grid, error) {
	segs, width, err := e.evalItems(ctx, p.Items, sc)
	if err != nil {
		return nil, err
	}
	return &grid.Grid{Segments: segs, ExpectedWidth: width}, nil
}

// evalItems returns the segments of items and the declared width of the last
// item, which is only known for blocks.
func (e *Evaluator) evalItems(ctx context.Context, items []model.Item, sc *scope) ([]grid.Segment, int, error) {
	var segs []grid.Segment
	width := 0
	for _, it := range items {
		switch it := it.(type) {
		case *model.Row:
			r, err := e.evalRow(ctx, it, sc)
			if err != nil {
				return nil, 0, err
			}
			segs = append(segs, r)
			width = 0

		case *model.Block:
			res, err := e.evalBlock(ctx, it, sc)
			if err != nil {
				return nil, 0, err
			}
			segs = append(segs, res.Segments...)
			width = res.ExpectedWidth

		case *model.RowRepeat:
			n, err := e.evalNat(ctx, sc, it.Times)
			if err != nil {
				return nil, 0, err
			}
			body, w, err := e.evalItems(ctx, it.Items, sc)
			if err != nil {
				return nil, 0, err
			}
			width = 0
			if n > 0 && len(body) > 0 {
				segs = append(segs, &grid.RepeatSegment{Times: n, Body: body})
				width = w
				if err := e.checkRows(segs); err != nil {
					return nil, 0, err.At(it.SrcRange)
				}
			}
		}
	}
	return segs, width, nil
}

func (e *Evaluator) checkRows(segs []grid.Segment) *diag.Error {
	if h := grid.Height(segs); h > e.maxRows {
		return diag.Errorf(diag.RowLimit,
			"the pattern lays out more than %d rows", e.maxRows).Counts(e.maxRows, h)
	}
	return nil
}

func (e *Evaluator) evalRow(ctx context.Context, r *model.Row, sc *scope) (*grid.Row, error) {
	ins, err := e.evalStitches(ctx, r.Stitches, sc, false)
	if err != nil {
		return nil, err
	}
	expanding := 0
	for _, in := range ins {
		if _, ok := in.(*grid.Expand); ok {
			expanding++
		}
	}
	if expanding > 1 {
		return nil, diag.Errorf(diag.AmbiguousExpansion,
			"the row has %d expanding repeats; at most one can be solved", expanding).At(r.SrcRange)
	}
	return &grid.Row{Instructions: ins, Side: r.Side, Source: r.SrcRange}, nil
}

// evalStitches resolves a stitch list. nested is true inside any repeat,
// where an expanding repeat would have no single solution.
func (e *Evaluator) evalStitches(ctx context.Context, nodes []model.StitchNode, sc *scope, nested bool) ([]grid.Instruction, error) {
	var out []grid.Instruction
	for _, node := range nodes {
		switch node := node.(type) {
		case *model.StitchLit:
			op, ok := e.catalog.Lookup(node.Symbol)
			if !ok {
				return nil, diag.Errorf(diag.UnknownStitch, "unknown stitch '%s'", node.Symbol).At(node.SrcRange)
			}
			out = append(out, &grid.Stitch{Op: op})

		case *model.FixedRepeat:
			n, err := e.evalNat(ctx, sc, node.Times)
			if err != nil {
				return nil, err
			}
			body, err := e.evalStitches(ctx, node.Stitches, sc, true)
			if err != nil {
				return nil, err
			}
			switch {
			case n == 0 || len(body) == 0:
			case n == 1:
				out = append(out, body...)
			default:
				out = append(out, &grid.Repeat{Body: body, Times: n})
			}

		case *model.ExpandingRepeat:
			if nested {
				return nil, diag.Errorf(diag.AmbiguousExpansion,
					"an expanding repeat cannot be nested inside another repeat").At(node.SrcRange)
			}
			toLast := 0
			if node.ToLast != nil {
				n, err := e.evalNat(ctx, sc, node.ToLast)
				if err != nil {
					return nil, err
				}
				toLast = n
			}
			body, err := e.evalStitches(ctx, node.Stitches, sc, true)
			if err != nil {
				return nil, err
			}
			out = append(out, &grid.Expand{Body: body, ToLast: toLast, Times: grid.Unresolved})
		}
	}
	return out, nil
}

func describeAll(args []cty.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = value.Describe(a)
	}
	return out
}

func pushFrame(err error, f diag.Frame) error {
	if de, ok := diag.As(err); ok {
		de.Push(f)
	}
	return err
}

func arityError(name string, want, got int, rng hcl.Range) *diag.Error {
	return diag.Errorf(diag.ArityMismatch, "'%s' takes %d argument(s), got %d", name, want, got).
		At(rng).
		Counts(want, got)
}
