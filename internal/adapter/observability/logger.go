// Package observability provides logging, metrics, and tracing.
package observability

import (
	"log/slog"
	"os"

	"github.com/litscan/litscan/internal/config"
)

// SetupLogger configures a JSON slog logger with environment fields.
func SetupLogger(cfg config.Config, service string) *slog.Logger {
	opts := &slog.HandlerOptions{}
	// Local runs show debug level; production defaults to info.
	if cfg.IsLocal() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(h).With(
		slog.String("service", service),
		slog.String("env", cfg.Environment),
	)
	return logger
}
