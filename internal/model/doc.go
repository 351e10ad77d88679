// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go representation of a knitting pattern as it was
// written by the user. Its purpose is to give the evaluator a strongly-typed,
// in-memory tree of definitions that no longer depends on the source syntax.
//
// # Core Concepts
//
// The model is built around a few key structures:
//
//   - Pattern: a named, parameterized definition. Its body is an ordered list
//     of Items and it behaves like a pure function from arguments to rows.
//
//   - Item: one of Row, Block or RowRepeat. The set is closed; code that walks
//     items uses an exhaustive type switch.
//
//   - StitchNode: one of StitchLit, FixedRepeat or ExpandingRepeat, the
//     elements of a row's stitch list.
//
//   - Expr: the argument language. Natural and string literals, parameter
//     references, nested calls and integer arithmetic.
//
//   - FSInfo: metadata that links a Pattern back to the file it came from so
//     diagnostics can point at the source.
//
// Why a separate model package?
//
// The loader and the evaluator change for different reasons. Keeping the tree
// here means the HCL adapter only has to produce these types, and the evaluator
// never has to look at HCL syntax nodes. Source ranges are kept on every node
// so a compile error raised deep in evaluation can still be rendered against
// the original text.
package model
