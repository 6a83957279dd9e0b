// Package telemetry configures structured logging for the vault. Output is
// JSON on stderr so stdout stays free for CLI results and the MCP stream.
package telemetry

import (
	"io"
	"log/slog"
	"strings"
)

// secretAttrKeys never reach the log output with their real values.
var secretAttrKeys = map[string]bool{
	"token":      true,
	"passphrase": true,
	"api_key":    true,
	"secret":     true,
	"value":      true,
}

// NewLogger builds the process logger. Attribute values under secret-bearing
// keys are replaced before they are written anywhere.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSecrets,
	})
	return slog.New(handler)
}

func redactSecrets(groups []string, a slog.Attr) slog.Attr {
	if secretAttrKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
