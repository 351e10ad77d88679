// Package compiler runs one compilation target through the whole pipeline:
// evaluate it to a grid, verify the stitch counts, and render the
// instruction lines.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/knitgrid/internal/builtins"
	"github.com/vk/knitgrid/internal/config"
	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/vk/knitgrid/internal/eval"
	"github.com/vk/knitgrid/internal/model"
	"github.com/vk/knitgrid/internal/registry"
	"github.com/vk/knitgrid/internal/render"
	"github.com/vk/knitgrid/internal/stitch"
	"github.com/vk/knitgrid/internal/verify"
)

// DefaultPattern is compiled when a workspace has no show blocks.
const DefaultPattern = "main"

// ErrNothingToCompile is returned when a workspace names no target.
var ErrNothingToCompile = errors.New("nothing to compile: add a show block, define a 'main' pattern or name a pattern")

// Sheet is a compiled instruction sheet.
type Sheet struct {
	Title   string   `json:"title"`
	Pattern string   `json:"pattern,omitempty"`
	CastOn  int      `json:"cast_on"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Lines   []string `json:"lines"`
}

// Target is one thing to compile.
type Target struct {
	Title string
	Expr  model.Expr
}

// Compiler compiles targets against one sealed registry.
type Compiler struct {
	eval *eval.Evaluator
}

// New creates a compiler over a sealed registry.
func New(reg *registry.Registry, catalog *stitch.Catalog, opts ...eval.Option) *Compiler {
	return &Compiler{eval: eval.New(reg, catalog, opts...)}
}

// FromModel builds the registry for a loaded workspace, with the builtin
// library, seals and validates it, and returns a compiler over it.
func FromModel(ctx context.Context, m *config.Model, catalog *stitch.Catalog, opts ...eval.Option) (*Compiler, error) {
	reg, err := builtins.NewRegistry(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	reg.Seal()
	if err := reg.ValidateRegistry(ctx, catalog); err != nil {
		return nil, err
	}
	return New(reg, catalog, opts...), nil
}

// Targets picks what to compile from a workspace: the named pattern if one
// is given, otherwise every show block, otherwise DefaultPattern.
func Targets(m *config.Model, pattern string) ([]Target, error) {
	if pattern != "" {
		return []Target{PatternTarget(pattern)}, nil
	}
	if len(m.Shows) > 0 {
		out := make([]Target, len(m.Shows))
		for i, s := range m.Shows {
			out[i] = Target{Title: s.Label, Expr: s.Expr}
		}
		return out, nil
	}
	if slices.Contains(m.Order, DefaultPattern) {
		return []Target{PatternTarget(DefaultPattern)}, nil
	}
	return nil, ErrNothingToCompile
}

// PatternTarget compiles a parameterless pattern by name.
func PatternTarget(name string) Target {
	return Target{Title: name, Expr: &model.Call{Name: name}}
}

// Compile evaluates, verifies and renders one target.
func (c *Compiler) Compile(ctx context.Context, t Target) (*Sheet, error) {
	ctx = ctxlog.With(ctx, "target", t.Title)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Compiling target.")

	g, err := c.eval.EvaluateExpr(ctx, t.Expr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Title, err)
	}
	res, err := verify.Verify(g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Title, err)
	}

	sheet := &Sheet{
		Title:  t.Title,
		CastOn: res.CastOn,
		Width:  widest(res.Trace),
		Height: len(res.Trace),
		Lines:  render.Render(res),
	}
	switch e := t.Expr.(type) {
	case *model.Call:
		sheet.Pattern = e.Name
	case *model.Ref:
		sheet.Pattern = e.Name
	}
	logger.Info("Target compiled.", "rows", sheet.Height, "lines", len(sheet.Lines))
	return sheet, nil
}

// CompileAll compiles targets in order and stops at the first failure.
func (c *Compiler) CompileAll(ctx context.Context, targets []Target) ([]*Sheet, error) {
	sheets := make([]*Sheet, 0, len(targets))
	for _, t := range targets {
		s, err := c.Compile(ctx, t)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

func widest(trace []int) int {
	w := 0
	for _, n := range trace {
		w = max(w, n)
	}
	return w
}
