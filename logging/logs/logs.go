// Package logs is a small leveled-logging backend in the style the teacher
// repo builds its subsystem loggers on top of (referenced there as
// "github.com/daglabs/btcd/logs", not retrieved in the pack — reconstructed
// here from its observed call sites in logger.go and util/panics/panics.go:
// Backend.Logger(tag), Logger.{Tracef,Debugf,Infof,Warnf,Errorf,Criticalf},
// Logger.SetLevel, Logger.Backend().Close()).
package logs

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Level is a logging severity, ordered least to most severe.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRC"
	case LevelDebug:
		return "DBG"
	case LevelInfo:
		return "INF"
	case LevelWarn:
		return "WRN"
	case LevelError:
		return "ERR"
	case LevelCritical:
		return "CRT"
	default:
		return "OFF"
	}
}

// LevelFromString parses a level name, defaulting to LevelInfo on failure
// (matching SetLogLevel's "defaults to info if the log level is invalid").
func LevelFromString(s string) (Level, bool) {
	switch s {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "critical":
		return LevelCritical, true
	case "off":
		return LevelOff, true
	default:
		return LevelInfo, false
	}
}

// BackendWriter receives formatted log lines at or above a minimum level.
type BackendWriter struct {
	w        io.Writer
	minLevel Level
}

// NewAllLevelsBackendWriter wires w to receive every level.
func NewAllLevelsBackendWriter(w io.Writer) *BackendWriter {
	return &BackendWriter{w: w, minLevel: LevelTrace}
}

// NewErrorBackendWriter wires w to receive only Error and Critical lines.
func NewErrorBackendWriter(w io.Writer) *BackendWriter {
	return &BackendWriter{w: w, minLevel: LevelError}
}

// Backend fans a formatted line out to every registered writer whose
// minimum level admits it.
type Backend struct {
	mu      sync.Mutex
	writers []*BackendWriter
}

// NewBackend constructs a Backend over the given writers.
func NewBackend(writers []*BackendWriter) *Backend {
	return &Backend{writers: writers}
}

func (b *Backend) write(level Level, line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.writers {
		if level >= w.minLevel {
			_, _ = io.WriteString(w.w, line)
		}
	}
}

// Close is a no-op hook kept for symmetry with Logger.Backend().Close(),
// since BackendWriters here wrap already-owned io.Writers (stdout, a
// rotator) whose lifecycle is managed by their owner.
func (b *Backend) Close() {}

// Logger is a single named logger sharing a Backend with its siblings.
type Logger struct {
	tag     string
	backend *Backend
	level   Level
}

// Logger returns a new named logger value bound to this backend at
// LevelInfo; each call builds a separate value with its own level.
func (b *Backend) Logger(tag string) Logger {
	return Logger{tag: tag, backend: b, level: LevelInfo}
}

// SetLevel changes the minimum level this logger emits at.
func (l *Logger) SetLevel(level Level) { l.level = level }

// Backend returns the shared backend, matching log.Backend().Close() call
// sites seen in the teacher's panic handler.
func (l Logger) Backend() *Backend { return l.backend }

func (l Logger) logf(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] %s %s\n", time.Now().Format("2006-01-02 15:04:05.000"), level, l.tag, msg)
	l.backend.write(level, line)
}

func (l Logger) Tracef(format string, args ...interface{})    { l.logf(LevelTrace, format, args...) }
func (l Logger) Debugf(format string, args ...interface{})    { l.logf(LevelDebug, format, args...) }
func (l Logger) Infof(format string, args ...interface{})     { l.logf(LevelInfo, format, args...) }
func (l Logger) Warnf(format string, args ...interface{})     { l.logf(LevelWarn, format, args...) }
func (l Logger) Errorf(format string, args ...interface{})    { l.logf(LevelError, format, args...) }
func (l Logger) Criticalf(format string, args ...interface{}) { l.logf(LevelCritical, format, args...) }
