package config

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/knitgrid/internal/model"
)

// Loader is the interface for a format-specific pattern loader.
type Loader interface {
	// Load reads pattern files from the given paths (files or directories)
	// and translates them into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Model is the unified representation of a loaded workspace.
type Model struct {
	Patterns map[string]*model.Pattern
	// Order lists pattern names in the order they were declared.
	Order []string
	Shows []*Show
	// Files holds parsed sources by filename, for rendering diagnostics.
	Files map[string]*hcl.File
}

// Show is a named compile target.
type Show struct {
	Label     string
	Expr      model.Expr
	DeclRange hcl.Range
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		Patterns: make(map[string]*model.Pattern),
		Files:    make(map[string]*hcl.File),
	}
}

// AddPattern registers a definition. Redefining a name is an error that
// points at both declarations.
func (m *Model) AddPattern(p *model.Pattern) error {
	if prev, exists := m.Patterns[p.Name]; exists {
		return fmt.Errorf("pattern '%s' declared twice: %s and %s", p.Name, prev.DeclRange, p.DeclRange)
	}
	m.Patterns[p.Name] = p
	m.Order = append(m.Order, p.Name)
	return nil
}

// Merge copies other's patterns, shows and files into m.
func (m *Model) Merge(other *Model) error {
	for _, name := range other.Order {
		if err := m.AddPattern(other.Patterns[name]); err != nil {
			return err
		}
	}
	m.Shows = append(m.Shows, other.Shows...)
	for k, f := range other.Files {
		m.Files[k] = f
	}
	return nil
}
