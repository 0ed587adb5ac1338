// Package applog is athro's leveled key/value logger.
//
// Records go to stderr as text. With debug enabled they go, as JSON lines,
// to DebugLogPath in the working directory instead.
package applog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Level is a log severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// DebugLogPath is the fixed path of the debug log file.
const DebugLogPath = "athro-debug.log"

var (
	mu      sync.Mutex
	logger  = newLogger(os.Stderr, LevelInfo, false)
	logFile *os.File
)

// ParseLevel parses a level name. Empty means info.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelInfo:
		return LevelInfo, nil
	case LevelDebug:
		return LevelDebug, nil
	case LevelError:
		return LevelError, nil
	}
	return "", fmt.Errorf("unknown log level %q", s)
}

// Init configures the global logger. With debug set, the level is forced
// to debug and records are appended to DebugLogPath as JSON lines.
func Init(level Level, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	if !debug {
		logger = newLogger(os.Stderr, level, false)
		return nil
	}

	f, err := os.OpenFile(DebugLogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating debug log: %w", err)
	}
	logFile = f
	logger = newLogger(f, LevelDebug, true)
	return nil
}

// SetOutput redirects records to w. Used by tests.
func SetOutput(w io.Writer, level Level) {
	mu.Lock()
	defer mu.Unlock()
	closeFile()
	logger = newLogger(w, level, false)
}

// Close flushes and closes the debug log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeFile()
	logger = newLogger(os.Stderr, LevelInfo, false)
}

func closeFile() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func newLogger(w io.Writer, level Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Debug logs at debug level.
func Debug(msg string, kv ...any) {
	current().Debug(msg, kv...)
}

// Info logs at info level.
func Info(msg string, kv ...any) {
	current().Info(msg, kv...)
}

// Error logs err at error level.
func Error(msg string, err error, kv ...any) {
	current().Error(msg, append([]any{"err", err}, kv...)...)
}
