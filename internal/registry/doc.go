// Package registry provides the central "glue" between pattern definitions
// and the evaluator.
//
// The Registry stores every Pattern Definition by name, together with the
// native builtins implemented in Go (fill, tile, pad, ...). Modules populate
// it at startup; it is then sealed, which makes it read-only, and validated,
// so that unknown stitches, unknown patterns and wrong argument counts that
// can be seen statically are reported before any pattern is evaluated.
//
// A Registry is an ordinary value. Independent compilations build their own
// and never observe each other's definitions.
package registry
