// Package logging implements the host API logger on top of charmbracelet/log.
// Hosts use it for their own diagnostics and hand scoped instances to remote
// controls through the context snapshot.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"remotehost/pkg/hostapi/common"
)

// Logger satisfies common.Logger. It never panics: any failure while
// rendering or writing a record is swallowed.
type Logger struct {
	base   *log.Logger
	fields []any
}

var _ common.Logger = (*Logger)(nil)

// New returns a logger writing to w at the given level (debug, info, warn,
// error). An empty or unknown level means info.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	base := log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
	})
	return &Logger{base: base}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return New(io.Discard, "error")
}

// ParseLevel converts a level name to a charmbracelet level.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// With returns a logger that attaches keyvals to every record.
func (l *Logger) With(keyvals ...any) *Logger {
	fields := make([]any, 0, len(l.fields)+len(keyvals))
	fields = append(fields, l.fields...)
	fields = append(fields, keyvals...)
	return &Logger{base: l.base, fields: fields}
}

// SetLevel changes the minimum level of l and every logger derived from it.
func (l *Logger) SetLevel(level string) {
	defer absorb()
	l.base.SetLevel(ParseLevel(level))
}

// Error logs at error level with an optional error attached.
func (l *Logger) Error(err error, template string, args ...any) {
	defer absorb()
	msg, kv := l.record(template, args)
	if err != nil {
		kv = append(kv, "err", err)
	}
	l.base.Error(msg, kv...)
}

// Warning logs at warn level.
func (l *Logger) Warning(template string, args ...any) {
	defer absorb()
	msg, kv := l.record(template, args)
	l.base.Warn(msg, kv...)
}

// Info logs at info level.
func (l *Logger) Info(template string, args ...any) {
	defer absorb()
	msg, kv := l.record(template, args)
	l.base.Info(msg, kv...)
}

// Debug logs at debug level.
func (l *Logger) Debug(template string, args ...any) {
	defer absorb()
	msg, kv := l.record(template, args)
	l.base.Debug(msg, kv...)
}

func (l *Logger) record(template string, args []any) (string, []any) {
	msg, extra := Render(template, args...)
	kv := make([]any, 0, len(l.fields)+2)
	kv = append(kv, l.fields...)
	if len(extra) > 0 {
		kv = append(kv, "args", extra)
	}
	return msg, kv
}

// absorb stops a failing writer or a misbehaving argument from reaching the
// caller.
func absorb() {
	_ = recover()
}
