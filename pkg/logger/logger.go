package logger

import (
	"io"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// Redacted replaces the value of sensitive fields.
const Redacted = "[REDACTED]"

// SensitiveFields are never written in clear, whoever logs them.
var SensitiveFields = []string{"api_key", "project_secret", "sign", "authorization", "jwt_secret"}

// New creates a configured zerolog.Logger.
// level: debug, info, warn, error. pretty: human-readable console output.
func New(level string, pretty bool) zerolog.Logger {
	var w io.Writer = os.Stdout

	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	lvl := parseLevel(level)

	return zerolog.New(NewRedactor(w)).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()
}

// NewWithWriter creates a logger writing to a custom writer (useful for testing).
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	lvl := parseLevel(level)
	return zerolog.New(NewRedactor(w)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

var sensitiveRe = buildSensitiveRe(SensitiveFields)

func buildSensitiveRe(fields []string) *regexp.Regexp {
	alt := ""
	for i, f := range fields {
		if i > 0 {
			alt += "|"
		}
		alt += regexp.QuoteMeta(f)
	}
	// "key":"string" or "key":number/literal
	return regexp.MustCompile(`("(?:` + alt + `)":)("(?:[^"\\]|\\.)*"|[^,}\]]+)`)
}

// Redactor masks sensitive fields in JSON log lines before passing them on.
type Redactor struct {
	next io.Writer
}

// NewRedactor wraps w.
func NewRedactor(w io.Writer) *Redactor {
	return &Redactor{next: w}
}

func (r *Redactor) Write(p []byte) (int, error) {
	masked := sensitiveRe.ReplaceAll(p, []byte(`${1}"`+Redacted+`"`))
	if _, err := r.next.Write(masked); err != nil {
		return 0, err
	}
	return len(p), nil
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
