// Package logger holds the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu            sync.RWMutex
	defaultLogger *zerolog.Logger
)

// Init configures the default logger. pretty selects the human-readable
// console writer (CLI); otherwise JSON lines go to stdout (server).
func Init(level string, pretty bool) {
	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	InitWithWriter(w, level)
}

// InitWithWriter configures the default logger to write to w.
func InitWithWriter(w io.Writer, level string) {
	l := zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
	mu.Lock()
	defaultLogger = &l
	mu.Unlock()
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Get returns the default logger, initializing it on first use.
func Get() *zerolog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init("info", false)
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Info logs an informational message with alternating key/value pairs.
func Info(msg string, args ...any) {
	Get().Info().Fields(args).Msg(msg)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Get().Warn().Fields(args).Msg(msg)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Get().Debug().Fields(args).Msg(msg)
}

// Error logs an error message. err may be nil.
func Error(msg string, err error, args ...any) {
	Get().Error().Err(err).Fields(args).Msg(msg)
}
