package app

import (
	"errors"
	"fmt"

	"github.com/vk/knitgrid/internal/eval"
	"github.com/vk/knitgrid/internal/publish"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultWorkerCount bounds concurrent block lane evaluation.
const DefaultWorkerCount = 4

// DefaultMaxRows caps the rows of one compilation.
const DefaultMaxRows = eval.DefaultMaxRows

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths   []string // .hcl files or directories
	Pattern string   // compile this pattern instead of the show blocks
	Format  string

	LogFormat   string
	LogLevel    string
	WorkerCount int
	// MaxRows caps the physical rows one compilation may lay out.
	MaxRows int
	// HTTPPort serves /health and /compile when positive. 0 is disabled.
	HTTPPort int

	// Publish is used when Publish.URL is set.
	Publish publish.Config
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 && cfg.HTTPPort <= 0 {
		return nil, errors.New("a pattern path is required unless the HTTP server is enabled")
	}
	switch cfg.Format {
	case "":
		cfg.Format = FormatText
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("invalid format '%s': must be '%s' or '%s'", cfg.Format, FormatText, FormatJSON)
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("worker count must not be negative, got %d", cfg.WorkerCount)
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.MaxRows < 0 {
		return nil, fmt.Errorf("max rows must not be negative, got %d", cfg.MaxRows)
	}
	if cfg.MaxRows == 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	if cfg.Publish.URL != "" {
		if err := cfg.Publish.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
