// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the FSInfo struct, which stores file system metadata.
//
// Why store the file path?
//
// Patterns can be split across files and pulled in with `using` blocks. The
// file path connects a definition back to its physical source, which is needed
// for two things:
//
//  1. **Error Reporting**: a diagnostic names the file a failing pattern was
//     declared in, even when the failure is only discovered while evaluating a
//     caller in another file.
//
//  2. **Import Resolution**: `using` paths are resolved relative to the
//     directory of the file that declares them.
package model

import "path/filepath"

type FSInfo struct {
	FilePath string
}

func NewFSInfo(filePath string) *FSInfo {
	return &FSInfo{
		FilePath: filePath,
	}
}

// Dir returns the directory the file lives in, or "." for in-memory sources.
func (f *FSInfo) Dir() string {
	if f == nil || f.FilePath == "" {
		return "."
	}
	return filepath.Dir(f.FilePath)
}
