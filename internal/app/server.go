package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/knitgrid/internal/compiler"
	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/vk/knitgrid/internal/hcl_adapter"
)

// maxSourceBytes caps the size of a POST /compile body.
const maxSourceBytes = 1 << 20

// requestFilename names request bodies in diagnostics.
const requestFilename = "request.hcl"

// Handler returns the HTTP routes served by the app.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/compile", a.compileHandler)
	return mux
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// compileHandler compiles the HCL source in the request body. Each request
// gets its own model and registry; `using` blocks are refused.
func (a *App) compileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := ctxlog.WithLogger(r.Context(), a.logger)
	logger := a.logger.With("remote_addr", r.RemoteAddr)

	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSourceBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	sheets, files, err := a.compileSource(ctx, src, r.URL.Query().Get("pattern"))
	if err != nil {
		logger.Info("Compile request failed.", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, newErrorResponse(files, err))
		return
	}
	logger.Debug("Compile request served.", "sheets", len(sheets))
	writeJSON(w, http.StatusOK, sheetsResponse{Sheets: sheets})
}

func (a *App) compileSource(ctx context.Context, src []byte, pattern string) ([]*compiler.Sheet, map[string]*hcl.File, error) {
	loader := &hcl_adapter.Loader{DisableImports: true}
	m, err := loader.LoadSource(ctx, requestFilename, src)
	if err != nil {
		return nil, nil, err
	}
	c, err := compiler.FromModel(ctx, m, a.catalog, a.evalOptions()...)
	if err != nil {
		return nil, m.Files, err
	}
	targets, err := compiler.Targets(m, pattern)
	if err != nil {
		return nil, m.Files, err
	}
	sheets, err := c.CompileAll(ctx, targets)
	return sheets, m.Files, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// startServer binds the configured port and serves in the background.
func (a *App) startServer() error {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Configuring HTTP server.")

	addr := fmt.Sprintf(":%d", a.config.HTTPPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	a.httpServer = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", "address", fmt.Sprintf("http://localhost%s", addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeServer() error {
	logger := ctxlog.FromContext(a.ctx)
	if a.httpServer == nil {
		logger.Debug("HTTP server was not running.")
		return nil
	}

	// a.ctx is usually already done here, so the deadline is fresh.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	logger.Debug("HTTP server shut down gracefully.")
	return nil
}
