// Package stitch defines the catalog of knitting operations and how many
// live stitches each one consumes from the needle and produces for the next
// row. A catalog is an ordinary value; callers build one and pass it to the
// evaluator instead of relying on process-wide state.
package stitch
