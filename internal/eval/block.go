package eval

import (
	"context"

	"github.com/vk/knitgrid/internal/align"
	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/vk/knitgrid/internal/diag"
	"github.com/vk/knitgrid/internal/grid"
	"github.com/vk/knitgrid/internal/model"
	"golang.org/x/sync/errgroup"
)

// evalBlock evaluates the lanes of a block concurrently and aligns them.
// Every lane runs to completion so that, when several fail, the error
// reported is always the leftmost one.
func (e *Evaluator) evalBlock(ctx context.Context, b *model.Block, sc *scope) (*align.Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Evaluating block.", "lanes", len(b.Lanes), "workers", e.workers)

	grids := make([]*grid.Grid, len(b.Lanes))
	errs := make([]error, len(b.Lanes))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, lane := range b.Lanes {
		g.Go(func() error {
			v, err := e.evalExpr(ctx, sc, lane)
			if err == nil {
				grids[i], err = e.toGrid(ctx, sc.depth, v, lane.Range())
			}
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			logger.Debug("Block lane failed.", "lane", i+1, "error", err)
			return nil, err
		}
	}

	res, err := align.Align(grids)
	if err != nil {
		if de, ok := diag.As(err); ok {
			de.At(b.SrcRange)
		}
		return nil, err
	}
	// Merged rows are new; point them at the block so count errors do too.
	for _, r := range grid.Rows(res.Segments) {
		r.Source = b.SrcRange
	}
	return res, nil
}
