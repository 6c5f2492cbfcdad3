package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is a log severity threshold.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelPanic
)

var (
	mu      sync.RWMutex
	current = LevelInfo
	out     = log.New(os.Stderr, "", log.LstdFlags)
	logFile *os.File
)

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "panic":
		return LevelPanic, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// SetLevel sets the global log level.
func SetLevel(l Level) {
	mu.Lock()
	current = l
	mu.Unlock()
}

// SetFile mirrors log output to the given file in addition to stderr.
// Passing an empty path disables the mirror.
func SetFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	if path == "" {
		out = log.New(os.Stderr, "", log.LstdFlags)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	out = log.New(io.MultiWriter(os.Stderr, f), "", log.LstdFlags)
	return nil
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= current
}

func emit(l Level, tag, format string, args ...any) {
	if !enabled(l) {
		return
	}
	mu.RLock()
	w := out
	mu.RUnlock()
	w.Printf("["+tag+"] "+format, args...)
}

func Trace(format string, args ...any) { emit(LevelTrace, "TRACE", format, args...) }
func Debug(format string, args ...any) { emit(LevelDebug, "DEBUG", format, args...) }
func Info(format string, args ...any)  { emit(LevelInfo, "INFO", format, args...) }
func Warn(format string, args ...any)  { emit(LevelWarn, "WARN", format, args...) }
func Error(format string, args ...any) { emit(LevelError, "ERROR", format, args...) }
