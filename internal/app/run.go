package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/knitgrid/internal/compiler"
	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/vk/knitgrid/internal/publish"
)

// ErrNoWorkspace is returned by Compile when the app was built without paths.
var ErrNoWorkspace = errors.New("no pattern files were loaded")

// Run compiles the loaded workspace, writes the sheets and publishes them if
// a publisher is configured. With an HTTP port set it then serves until ctx
// is done.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if a.config.HTTPPort > 0 {
		if err := a.startServer(); err != nil {
			return err
		}
		defer a.closeServer()
	}

	if a.compiler != nil {
		sheets, err := a.Compile(ctx)
		if err != nil {
			return err
		}
		if err := writeSheets(a.outW, a.config.Format, sheets); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if a.config.Publish.URL != "" {
			if err := a.publish(ctx, sheets); err != nil {
				return err
			}
		}
	}

	if a.httpServer != nil {
		a.logger.Info("Serving until interrupted.")
		<-ctx.Done()
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// Compile compiles the targets of the loaded workspace.
func (a *App) Compile(ctx context.Context) ([]*compiler.Sheet, error) {
	if a.compiler == nil {
		return nil, ErrNoWorkspace
	}
	targets, err := compiler.Targets(a.model, a.config.Pattern)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Compiling.", "targets", len(targets))
	sheets, err := a.compiler.CompileAll(ctx, targets)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Compilation finished.", "sheets", len(sheets))
	return sheets, nil
}

func (a *App) publish(ctx context.Context, sheets []*compiler.Sheet) error {
	p, err := publish.Connect(ctx, a.config.Publish)
	if err != nil {
		return fmt.Errorf("failed to connect publisher: %w", err)
	}
	defer p.Close()
	return p.PublishAll(ctx, sheets)
}
