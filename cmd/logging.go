package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/chainguard-dev/clog"
)

// parseVerbosity maps a --verbosity value to a log level.
func parseVerbosity(s string) (slog.Level, error) {
	switch s {
	case "quiet":
		return slog.LevelWarn, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	default:
		return 0, fmt.Errorf("unknown verbosity %q (expected quiet, info or debug)", s)
	}
}

// setupLogging returns ctx carrying a clog logger that writes text records to w.
func setupLogging(ctx context.Context, w io.Writer, verbosity string) (context.Context, error) {
	level, err := parseVerbosity(verbosity)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return clog.WithLogger(ctx, clog.New(handler)), nil
}
