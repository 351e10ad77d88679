package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/knitgrid/internal/stitch"
	"github.com/zclconf/go-cty/cty"
)

// Env is what a native builtin may use from the evaluator.
type Env interface {
	Catalog() *stitch.Catalog
}

// NativeFunc implements a builtin. Arguments have already been checked
// against the declared parameters and converted to their types.
type NativeFunc func(ctx context.Context, env Env, args []cty.Value) (cty.Value, error)

// Param is one typed parameter of a builtin.
type Param struct {
	Name string
	Type cty.Type
}

// Native is a builtin implemented in Go.
type Native struct {
	Name        string
	Description string
	Params      []Param
	Fn          NativeFunc
}

// RegisterNative registers a Go builtin. Registering a name twice is a
// programmer error.
func (r *Registry) RegisterNative(n *Native) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic(fmt.Sprintf("native '%s' registered after the registry was sealed", n.Name))
	}
	if _, exists := r.natives[n.Name]; exists {
		panic(fmt.Sprintf("native with name '%s' already registered", n.Name))
	}
	slog.Debug("Registering native builtin.", "name", n.Name, "params", len(n.Params))
	r.natives[n.Name] = n
}
