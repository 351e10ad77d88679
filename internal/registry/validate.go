package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/vk/knitgrid/internal/diag"
	"github.com/vk/knitgrid/internal/model"
	"github.com/vk/knitgrid/internal/stitch"
)

// ValidateRegistry performs the static checks that do not need argument
// values: every stitch symbol is in the catalog, every reference names a
// parameter or a pattern, and every call names a pattern or builtin with the
// right number of arguments. All problems are reported, not just the first.
func (r *Registry) ValidateRegistry(ctx context.Context, catalog *stitch.Catalog) error {
	logger := ctxlog.FromContext(ctx)
	var errs []error

	for _, name := range r.PatternNames() {
		p, _ := r.Pattern(name)
		params := make(map[string]bool, len(p.Params))
		for _, param := range p.Params {
			params[param] = true
			if _, clash := r.Pattern(param); clash {
				logger.Warn("Parameter shadows a pattern of the same name.", "pattern", name, "param", param)
			}
		}

		frame := diag.Frame{Pattern: name, Args: p.Params}
		_ = model.Walk(p.Items, model.Visitor{
			Stitch: func(s *model.StitchLit) error {
				if _, ok := catalog.Lookup(s.Symbol); !ok {
					errs = append(errs, diag.Errorf(diag.UnknownStitch, "unknown stitch '%s'", s.Symbol).At(s.SrcRange).Push(frame))
				}
				return nil
			},
			Expr: func(e model.Expr) error {
				if err := r.checkExpr(e, params); err != nil {
					errs = append(errs, err.Push(frame))
				}
				return nil
			},
		})
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed: %w", errors.Join(errs...))
	}
	logger.Debug("Registry validation passed.", "patterns", len(r.PatternNames()), "natives", len(r.NativeNames()))
	return nil
}

func (r *Registry) checkExpr(e model.Expr, params map[string]bool) *diag.Error {
	switch e := e.(type) {
	case *model.Ref:
		if params[e.Name] {
			return nil
		}
		if _, ok := r.Pattern(e.Name); ok {
			return nil
		}
		return diag.Errorf(diag.UnknownPattern, "'%s' is neither a parameter nor a pattern", e.Name).At(e.SrcRange)

	case *model.Call:
		if p, ok := r.Pattern(e.Name); ok {
			if len(p.Params) != len(e.Args) {
				return arity(e, len(p.Params))
			}
			return nil
		}
		if n, ok := r.Native(e.Name); ok {
			if len(n.Params) != len(e.Args) {
				return arity(e, len(n.Params))
			}
			return nil
		}
		return diag.Errorf(diag.UnknownPattern, "no pattern or builtin named '%s'", e.Name).At(e.SrcRange)
	}
	return nil
}

func arity(c *model.Call, want int) *diag.Error {
	return diag.Errorf(diag.ArityMismatch, "'%s' takes %d argument(s), got %d", c.Name, want, len(c.Args)).
		At(c.SrcRange).
		Counts(want, len(c.Args))
}
