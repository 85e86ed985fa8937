package logging

import (
	"io"
	"log"
	"os"
	"strings"
)

// Level represents logging verbosity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger provides leveled logging on top of the standard logger.
type Logger struct {
	level Level
	out   *log.Logger
}

// New creates a logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// ParseLevel maps a config string to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug", "trace":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger { return New(io.Discard, LevelError) }

func (l *Logger) Error(format string, args ...any) { l.logf(LevelError, "[ERROR] ", format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.logf(LevelWarn, "[WARN] ", format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.logf(LevelInfo, "[INFO] ", format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.logf(LevelDebug, "[DEBUG] ", format, args...) }

// Level returns the current level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelError
	}
	return l.level
}

func (l *Logger) logf(lvl Level, prefix, format string, args ...any) {
	if l == nil || l.level < lvl {
		return
	}
	l.out.Printf(prefix+format, args...)
}

// Default is used by packages that were not handed a logger explicitly.
var Default = New(os.Stderr, ParseLevel(os.Getenv("CCSDB_LOG_LEVEL")))
