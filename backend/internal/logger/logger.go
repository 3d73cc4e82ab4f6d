package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// EnvVarLogLevel overrides the configured level when set.
const EnvVarLogLevel = "LOG_LEVEL"

// New returns a JSON logger tagged with module and version.
// Source locations are only added at debug level.
func New(w io.Writer, module, version, level string) *slog.Logger {
	lev := ParseLevel(level)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lev,
		AddSource: lev <= slog.LevelDebug,
	})).With("module", module, "version", version)
}

// SetDefault installs a stderr logger as slog's default. LOG_LEVEL wins over level.
func SetDefault(module, version, level string) *slog.Logger {
	if env := os.Getenv(EnvVarLogLevel); env != "" {
		level = env
	}
	l := New(os.Stderr, module, version, level)
	slog.SetDefault(l)
	return l
}

// ErrorLog adapts l for http.Server.ErrorLog.
func ErrorLog(l *slog.Logger) *log.Logger {
	return slog.NewLogLogger(l.Handler(), slog.LevelError)
}

// ParseLevel maps debug, warn/warning and error to their slog levels;
// anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
