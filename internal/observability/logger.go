package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig contains logger configuration options.
type LoggingConfig struct {
	// Level is the minimum level: trace, debug, info, warn (or warning), error,
	// fatal or panic. Unknown values mean info.
	Level string

	// Format is json, or console / pretty for human-readable output.
	Format string

	// Output is stdout, stderr or a file path opened for append.
	Output string

	AddSource  bool
	TimeFormat string
}

// DefaultLoggingConfig returns JSON logging at info level to stdout.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// NewLogger builds the process logger. It also sets zerolog's global level and
// timestamp format, so it is meant to be called once at startup.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.TimeFormat
	if zerolog.TimeFieldFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	out := openOutput(cfg.Output)
	if human(cfg.Format) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFieldFormat}
	}

	lc := zerolog.New(out).With().Timestamp()
	if cfg.AddSource {
		lc = lc.Caller()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	return lc.Logger().Level(level)
}

func human(format string) bool {
	switch strings.ToLower(format) {
	case "console", "pretty":
		return true
	}
	return false
}

// openOutput falls back to stderr when a log file cannot be opened.
func openOutput(name string) io.Writer {
	switch strings.ToLower(name) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}

func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// WithComponent tags a sub-logger with the component that owns it.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithRequestContext adds request and correlation IDs, skipping empty ones.
func WithRequestContext(logger zerolog.Logger, requestID, correlationID string) zerolog.Logger {
	ctx := logger.With()
	if requestID != "" {
		ctx = ctx.Str("request_id", requestID)
	}
	if correlationID != "" {
		ctx = ctx.Str("correlation_id", correlationID)
	}
	return ctx.Logger()
}

// WithSearchContext adds the search query and, when the search is restricted
// to one platform, that platform.
func WithSearchContext(logger zerolog.Logger, query, platform string) zerolog.Logger {
	ctx := logger.With().Str("query", query)
	if platform != "" {
		ctx = ctx.Str("platform", platform)
	}
	return ctx.Logger()
}

func WithPaperContext(logger zerolog.Logger, paperID int64, doi string) zerolog.Logger {
	ctx := logger.With().Int64("paper_id", paperID)
	if doi != "" {
		ctx = ctx.Str("doi", doi)
	}
	return ctx.Logger()
}
