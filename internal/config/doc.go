// Package config defines the format-agnostic model of a loaded pattern
// workspace: every pattern definition that was found, the `show` targets to
// compile, and the source files for diagnostics. It also declares the Loader
// interface that concrete front-ends implement.
//
// The HCL implementation lives in the hcl_adapter package.
package config
