package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/knitgrid/internal/app"
	"github.com/vk/knitgrid/internal/cli"
	"github.com/vk/knitgrid/internal/hcl_adapter"
)

// main is the entrypoint for the knitgrid compiler.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Compile failures are rendered to errW as diagnostics and
// reported as exit code 1.
func run(ctx context.Context, outW, errW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	knitApp, err := app.NewApp(outW, errW, appConfig, hcl_adapter.NewLoader())
	if err != nil {
		_ = app.WriteDiagnostics(errW, nil, err)
		return &cli.ExitError{Code: 1}
	}

	if err := knitApp.Run(ctx); err != nil {
		_ = app.WriteDiagnostics(errW, knitApp.Files(), err)
		return &cli.ExitError{Code: 1}
	}
	return nil
}
