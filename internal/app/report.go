package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/knitgrid/internal/compiler"
	"github.com/vk/knitgrid/internal/diag"
)

// diagnosticWidth is the wrap width of rendered diagnostics.
const diagnosticWidth = 78

type sheetsResponse struct {
	Sheets []*compiler.Sheet `json:"sheets"`
}

type errorResponse struct {
	Error      *diag.Error `json:"error,omitempty"`
	Message    string      `json:"message"`
	Subject    string      `json:"subject,omitempty"`
	Diagnostic string      `json:"diagnostic,omitempty"`
}

func writeSheets(w io.Writer, format string, sheets []*compiler.Sheet) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sheetsResponse{Sheets: sheets})
	}
	for i, s := range sheets {
		if len(sheets) > 1 {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "== %s ==\n", s.Title); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(s.Lines, "\n")); err != nil {
			return err
		}
	}
	return nil
}

// diagnostics converts err into HCL diagnostics. Compile errors keep their
// source range; parse errors are already diagnostics.
func diagnostics(err error) hcl.Diagnostics {
	if de, ok := diag.As(err); ok {
		d := de.Diagnostic()
		d.Detail = err.Error()
		return hcl.Diagnostics{d}
	}
	var diags hcl.Diagnostics
	if errors.As(err, &diags) {
		return diags
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Error",
		Detail:   err.Error(),
	}}
}

// WriteDiagnostics renders err for a human, with a source snippet when the
// file it points into is among files.
func WriteDiagnostics(w io.Writer, files map[string]*hcl.File, err error) error {
	wr := hcl.NewDiagnosticTextWriter(w, files, diagnosticWidth, false)
	return wr.WriteDiagnostics(diagnostics(err))
}

func newErrorResponse(files map[string]*hcl.File, err error) errorResponse {
	resp := errorResponse{Message: err.Error()}
	if de, ok := diag.As(err); ok {
		resp.Error = de
		if de.Subject != nil {
			resp.Subject = de.Subject.String()
		}
	}
	var b strings.Builder
	if werr := WriteDiagnostics(&b, files, err); werr == nil {
		resp.Diagnostic = b.String()
	}
	return resp
}
