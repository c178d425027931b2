package catalog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // console or json
	// NoColor disables ANSI colors in console output.
	NoColor bool      `json:"-"`
	Output  io.Writer `json:"-"`
}

// NewLogger builds a zerolog logger from cfg.
func NewLogger(cfg LogConfig) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	var zl zerolog.Logger
	if strings.EqualFold(cfg.Format, "json") {
		zl = zerolog.New(out)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: cfg.NoColor})
	}
	return zl.Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
