package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/knitgrid/internal/config"
	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/vk/knitgrid/internal/fsutil"
	"github.com/vk/knitgrid/internal/model"
)

// ErrImportsDisabled is returned when a source uses `using` while imports are
// turned off, e.g. for sources received over the network.
var ErrImportsDisabled = errors.New("using blocks are not allowed for this source")

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// DisableImports rejects `using` blocks instead of reading files.
	DisableImports bool
}

// NewLoader creates a new HCL pattern loader.
func NewLoader() *Loader {
	return &Loader{}
}

// loadState is the per-call state of one Load.
type loadState struct {
	ctx    context.Context
	loader *Loader
	parser *hclparse.Parser
	model  *config.Model
	loaded map[string]bool
}

func (l *Loader) newState(ctx context.Context) *loadState {
	return &loadState{
		ctx:    ctx,
		loader: l,
		parser: hclparse.NewParser(),
		model:  config.NewModel(),
		loaded: make(map[string]bool),
	}
}

// Load parses every .hcl file under paths. `show` blocks are only taken from
// these root files; files pulled in through `using` contribute patterns only.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	st := l.newState(ctx)
	for _, file := range hclFiles {
		if err := st.loadFile(file, true); err != nil {
			return nil, err
		}
	}
	return st.finish(), nil
}

// LoadSource parses a single in-memory source.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	st := l.newState(ctx)
	hclFile, diags := st.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	if err := st.loadBody(hclFile, filename, true); err != nil {
		return nil, err
	}
	return st.finish(), nil
}

func (st *loadState) finish() *config.Model {
	for name, f := range st.parser.Files() {
		st.model.Files[name] = f
	}
	ctxlog.FromContext(st.ctx).Debug("HCL loading complete.", "patterns", len(st.model.Patterns), "shows", len(st.model.Shows))
	return st.model
}

func (st *loadState) loadFile(path string, root bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("error resolving path %s: %w", path, err)
	}
	if st.loaded[abs] {
		return nil
	}
	st.loaded[abs] = true

	hclFile, diags := st.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return st.loadBody(hclFile, path, root)
}

func (st *loadState) loadBody(file *hcl.File, path string, root bool) error {
	logger := ctxlog.FromContext(st.ctx).With("file", path)

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	fs := model.NewFSInfo(path)
	for _, block := range content.Blocks {
		switch block.Type {
		case "pattern":
			p, d := translatePattern(st.ctx, block, fs)
			diags = append(diags, d...)
			if d.HasErrors() {
				continue
			}
			if err := st.model.AddPattern(p); err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate pattern definition",
					Detail:   err.Error(),
					Subject:  block.DefRange.Ptr(),
				})
			}

		case "using":
			if err := st.resolveUsing(block, fs); err != nil {
				return err
			}

		case "show":
			if !root {
				logger.Debug("Ignoring show block in imported file.", "label", block.Labels[0])
				continue
			}
			s, d := translateShow(block)
			diags = append(diags, d...)
			if !d.HasErrors() {
				st.model.Shows = append(st.model.Shows, s)
			}
		}
	}

	if diags.HasErrors() {
		return fmt.Errorf("invalid pattern file %s: %w", path, diags)
	}
	return nil
}

// resolveUsing loads the file or directory named by a `using` block,
// relative to the declaring file. Imported patterns share one namespace; the
// optional `patterns` list only asserts that the named ones exist.
func (st *loadState) resolveUsing(block *hcl.Block, fs *model.FSInfo) error {
	if st.loader.DisableImports {
		return fmt.Errorf("%s: %w", block.DefRange, ErrImportsDisabled)
	}

	var body usingBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return fmt.Errorf("invalid using block: %w", diags)
	}

	target := block.Labels[0]
	if !filepath.IsAbs(target) {
		target = filepath.Join(fs.Dir(), target)
	}
	files, err := resolveImportPath(target)
	if err != nil {
		return fmt.Errorf("%s: %w", block.DefRange, err)
	}

	ctxlog.FromContext(st.ctx).Debug("Resolving using block.", "target", target, "files", len(files))
	for _, f := range files {
		if err := st.loadFile(f, false); err != nil {
			return err
		}
	}

	var diags hcl.Diagnostics
	for _, name := range body.Patterns {
		if _, ok := st.model.Patterns[name]; !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown imported pattern",
				Detail:   fmt.Sprintf("%q does not define a pattern named '%s'.", block.Labels[0], name),
				Subject:  block.DefRange.Ptr(),
			})
		}
	}
	if diags.HasErrors() {
		return diags
	}
	return nil
}

// resolveImportPath maps a using target to files: a directory yields all of
// its .hcl files, a bare name gets the .hcl extension appended.
func resolveImportPath(target string) ([]string, error) {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return fsutil.FindFilesByExtension(target, ".hcl")
	}
	if filepath.Ext(target) != ".hcl" {
		target += ".hcl"
	}
	if _, err := os.Stat(target); err != nil {
		return nil, fmt.Errorf("cannot import %s: %w", target, err)
	}
	return []string{target}, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			files, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		} else if filepath.Ext(path) == ".hcl" {
			add(path)
		}
	}
	return allFiles, nil
}
