package stitch

import (
	"fmt"
	"sort"
	"sync"
)

// Operation is a single knitting technique and its stitch-count signature.
type Operation struct {
	Symbol   string
	Name     string
	Consumes int
	Produces int
}

// Delta is the net change in live stitches after one application.
func (o Operation) Delta() int {
	return o.Produces - o.Consumes
}

func (o Operation) String() string {
	return o.Symbol
}

// Well-known symbols the compiler treats specially.
const (
	CastOn  = "CO"
	BindOff = "BO"
	Knit    = "K"
	Purl    = "P"
)

// Catalog is a lookup table of stitch operations keyed by symbol. It is safe
// for concurrent reads once populated.
type Catalog struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{ops: make(map[string]Operation)}
}

// Register adds an operation. Symbols are unique and counts non-negative.
func (c *Catalog) Register(op Operation) error {
	if op.Symbol == "" {
		return fmt.Errorf("stitch operation has an empty symbol")
	}
	if op.Consumes < 0 || op.Produces < 0 {
		return fmt.Errorf("stitch '%s': consumes and produces must be non-negative", op.Symbol)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.ops[op.Symbol]; exists {
		return fmt.Errorf("stitch '%s' already registered", op.Symbol)
	}
	c.ops[op.Symbol] = op
	return nil
}

// Lookup returns the operation registered under symbol.
func (c *Catalog) Lookup(symbol string) (Operation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	op, ok := c.ops[symbol]
	return op, ok
}

// Symbols returns all registered symbols in sorted order.
func (c *Catalog) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.ops))
	for s := range c.ops {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

var standardOps = []Operation{
	{Symbol: CastOn, Name: "cast on", Consumes: 0, Produces: 1},
	{Symbol: BindOff, Name: "bind off", Consumes: 1, Produces: 0},
	{Symbol: Knit, Name: "knit", Consumes: 1, Produces: 1},
	{Symbol: Purl, Name: "purl", Consumes: 1, Produces: 1},
	{Symbol: "SL", Name: "slip", Consumes: 1, Produces: 1},
	{Symbol: "YO", Name: "yarn over", Consumes: 0, Produces: 1},
	{Symbol: "M1", Name: "make one", Consumes: 0, Produces: 1},
	{Symbol: "KFB", Name: "knit front and back", Consumes: 1, Produces: 2},
	{Symbol: "PFB", Name: "purl front and back", Consumes: 1, Produces: 2},
	{Symbol: "K2TOG", Name: "knit two together", Consumes: 2, Produces: 1},
	{Symbol: "P2TOG", Name: "purl two together", Consumes: 2, Produces: 1},
	{Symbol: "SSK", Name: "slip slip knit", Consumes: 2, Produces: 1},
	{Symbol: "SSP", Name: "slip slip purl", Consumes: 2, Produces: 1},
	{Symbol: "SK2P", Name: "slip one, knit two together, pass over", Consumes: 3, Produces: 1},
}

// Standard returns a fresh catalog holding the standard stitch set.
func Standard() *Catalog {
	c := NewCatalog()
	for _, op := range standardOps {
		if err := c.Register(op); err != nil {
			panic(err)
		}
	}
	return c
}
