package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/knitgrid/internal/compiler"
	"github.com/vk/knitgrid/internal/config"
	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/vk/knitgrid/internal/eval"
	"github.com/vk/knitgrid/internal/stitch"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	catalog    *stitch.Catalog
	model      *config.Model
	compiler   *compiler.Compiler
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the pattern
// files, builds and validates the registry, and returns an App ready to run.
// When cfg has no paths, only the HTTP server has anything to do.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		ctx:     ctx,
		outW:    outW,
		logger:  logger,
		config:  cfg,
		catalog: stitch.Standard(),
	}
	if len(cfg.Paths) == 0 {
		return a, nil
	}

	m, err := loader.Load(ctx, cfg.Paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	a.model = m
	logger.Debug("Patterns loaded.", "patterns", len(m.Patterns), "shows", len(m.Shows))

	c, err := compiler.FromModel(ctx, m, a.catalog, a.evalOptions()...)
	if err != nil {
		return nil, err
	}
	a.compiler = c
	logger.Debug("Registry validation passed.")
	return a, nil
}

// Model returns the loaded workspace, or nil when no paths were given.
func (a *App) Model() *config.Model {
	return a.model
}

// Files returns the parsed sources of the workspace, keyed by filename.
func (a *App) Files() map[string]*hcl.File {
	if a.model == nil {
		return nil
	}
	return a.model.Files
}

func (a *App) evalOptions() []eval.Option {
	return []eval.Option{
		eval.WithWorkers(a.config.WorkerCount),
		eval.WithMaxRows(a.config.MaxRows),
	}
}
