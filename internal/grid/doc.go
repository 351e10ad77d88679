// Package grid holds the row grid produced by evaluating a pattern: resolved
// stitch instructions, rows, and the repeat segments that produced them.
//
// Grids are treated as immutable once built. Passes such as verification and
// alignment return new rows rather than editing existing ones, so one row may
// safely appear several times in the same grid.
package grid
