// Package builtins provides the patterns and combinators available to every
// workspace: a small stitch library written in HCL and embedded in the
// binary, and native functions that reshape evaluated grids.
package builtins

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/vk/knitgrid/internal/config"
	"github.com/vk/knitgrid/internal/hcl_adapter"
	"github.com/vk/knitgrid/internal/registry"
	"github.com/vk/knitgrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// LibraryFilename is the name library definitions report in diagnostics.
const LibraryFilename = "builtin/library.hcl"

//go:embed library.hcl
var librarySource []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds every native combinator to r.
func (m *Module) Register(r *registry.Registry) {
	p := func(name string) registry.Param { return registry.Param{Name: name, Type: value.GridType} }
	n := func(name string) registry.Param { return registry.Param{Name: name, Type: cty.Number} }

	r.RegisterNative(&registry.Native{
		Name:        "fill",
		Description: "Tiles p to exactly w stitches by h rows.",
		Params:      []registry.Param{p("p"), n("w"), n("h")},
		Fn:          Fill,
	})
	r.RegisterNative(&registry.Native{
		Name:        "tile",
		Description: "Repeats p n times across and m times up.",
		Params:      []registry.Param{p("p"), n("n"), n("m")},
		Fn:          Tile,
	})
	r.RegisterNative(&registry.Native{
		Name:        "pad",
		Description: "Adds plain knit rows before and after p.",
		Params:      []registry.Param{p("p"), n("before"), n("after")},
		Fn:          Pad,
	})
	r.RegisterNative(&registry.Native{
		Name:        "width",
		Description: "The stitch width of p.",
		Params:      []registry.Param{p("p")},
		Fn:          Width,
	})
	r.RegisterNative(&registry.Native{
		Name:        "height",
		Description: "The number of rows in p.",
		Params:      []registry.Param{p("p")},
		Fn:          Height,
	})
	r.RegisterNative(&registry.Native{
		Name:        "standalone",
		Description: "Casts on p's width, works p, then binds off.",
		Params:      []registry.Param{p("p")},
		Fn:          Standalone,
	})
	r.RegisterNative(&registry.Native{
		Name:        "garterBorder",
		Description: "Surrounds p with garter stitch margins.",
		Params:      []registry.Param{p("p"), n("top"), n("bottom"), n("left"), n("right")},
		Fn:          GarterBorder,
	})
	r.RegisterNative(&registry.Native{
		Name:        "reflect",
		Description: "Mirrors every row of p.",
		Params:      []registry.Param{p("p")},
		Fn:          Reflect,
	})
}

// Library parses the embedded pattern library.
func Library(ctx context.Context) (*config.Model, error) {
	m, err := hcl_adapter.NewLoader().LoadSource(ctx, LibraryFilename, librarySource)
	if err != nil {
		return nil, fmt.Errorf("failed to load builtin library: %w", err)
	}
	return m, nil
}

// NewRegistry returns a registry holding the builtin natives and library
// patterns followed by the patterns of each model. It is not sealed.
func NewRegistry(ctx context.Context, models ...*config.Model) (*registry.Registry, error) {
	r := registry.New()
	(&Module{}).Register(r)

	lib, err := Library(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.PopulateDefinitionsFromModel(lib); err != nil {
		return nil, err
	}
	for _, m := range models {
		if err := r.PopulateDefinitionsFromModel(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}
