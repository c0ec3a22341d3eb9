package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/majindogo/field-data-etl/internal/config"
)

// NewLogger builds the service logger from LOG_LEVEL and LOG_FORMAT.
// Level "none" disables logging entirely.
func NewLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	level := slog.LevelInfo

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "none":
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.LogFormat) == "text" {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}
