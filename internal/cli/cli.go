package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/knitgrid/internal/app"
	"github.com/vk/knitgrid/internal/publish"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("knitgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
knitgrid - compiles knitting patterns into verified row-by-row instructions.

Usage:
  knitgrid [options] [PATH...]

Arguments:
  PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	patternFlag := flagSet.String("pattern", "", "Compile this parameterless pattern instead of the show blocks.")
	pFlag := flagSet.String("p", "", "Pattern to compile (shorthand).")
	formatFlag := flagSet.String("format", app.FormatText, "Output format. Options: 'text' or 'json'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", app.DefaultWorkerCount, "Number of concurrent workers for block lanes.")
	maxRowsFlag := flagSet.Int("max-rows", app.DefaultMaxRows, "Reject patterns that lay out more rows than this.")
	httpPortFlag := flagSet.Int("http-port", 0, "Serve /health and POST /compile on this port. 0 is disabled.")
	publishURLFlag := flagSet.String("publish-url", "", "socket.io server to publish compiled sheets to.")
	publishNamespaceFlag := flagSet.String("publish-namespace", "/", "socket.io namespace for publishing.")
	publishEventFlag := flagSet.String("publish-event", publish.DefaultEvent, "Event compiled sheets are emitted on.")
	publishAckFlag := flagSet.String("publish-ack-event", "", "Event to wait for after each sheet. Empty does not wait.")
	publishTimeoutFlag := flagSet.Duration("publish-timeout", publish.DefaultTimeout, "Timeout for connecting and for each acknowledgement.")
	insecureFlag := flagSet.Bool("publish-insecure", false, "Skip TLS certificate verification when publishing.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	paths := flagSet.Args()
	pattern := *patternFlag
	if pattern == "" {
		pattern = *pFlag
	}
	slog.Debug("Pattern paths determined.", "paths", paths, "pattern", pattern)

	if len(paths) == 0 && *httpPortFlag <= 0 {
		slog.Debug("No pattern path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	format := strings.ToLower(*formatFlag)
	if format != app.FormatText && format != app.FormatJSON {
		return nil, false, &ExitError{Code: 2, Message: "invalid format: must be 'text' or 'json'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Paths:       paths,
		Pattern:     pattern,
		Format:      format,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		WorkerCount: *workersFlag,
		MaxRows:     *maxRowsFlag,
		HTTPPort:    *httpPortFlag,
		Publish: publish.Config{
			URL:                *publishURLFlag,
			Namespace:          *publishNamespaceFlag,
			Event:              *publishEventFlag,
			AckEvent:           *publishAckFlag,
			Timeout:            *publishTimeoutFlag,
			InsecureSkipVerify: *insecureFlag,
		},
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
