// Package logging writes one JSON object per line, the format used by the
// request logger, migrations and tracing bootstrap.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger emits JSON log lines with "ts", "level", "component" and "event" keys.
// It is safe for concurrent use.
type Logger struct {
	mu        *sync.Mutex
	w         io.Writer
	loc       *time.Location
	component string
}

// New returns a Logger writing to w with timestamps rendered in loc.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{mu: &sync.Mutex{}, w: w, loc: loc}
}

// Default logs to stdout in UTC.
func Default() *Logger {
	return New(os.Stdout, time.UTC)
}

// Nop discards everything.
func Nop() *Logger {
	return New(io.Discard, time.UTC)
}

// With returns a child logger tagging each line with component.
func (l *Logger) With(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

// Location is the zone timestamps are written in.
func (l *Logger) Location() *time.Location {
	return l.loc
}

func (l *Logger) Info(event string, fields map[string]any) {
	l.write("info", event, nil, fields)
}

func (l *Logger) Warn(event string, fields map[string]any) {
	l.write("warn", event, nil, fields)
}

func (l *Logger) Error(event string, err error, fields map[string]any) {
	l.write("error", event, err, fields)
}

// Raw writes data as-is, adding only "ts" when missing.
func (l *Logger) Raw(data map[string]any) {
	if _, ok := data["ts"]; !ok {
		data["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	}
	l.encode(data)
}

func (l *Logger) write(level, event string, err error, fields map[string]any) {
	entry := make(map[string]any, len(fields)+5)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	entry["level"] = level
	entry["event"] = event
	if l.component != "" {
		entry["component"] = l.component
	}
	if err != nil {
		entry["error_message"] = err.Error()
	}
	l.encode(entry)
}

func (l *Logger) encode(entry map[string]any) {
	b, err := json.Marshal(entry)
	if err != nil {
		b, _ = json.Marshal(map[string]any{
			"level": "error",
			"event": "log_marshal_failed",
			"error": err.Error(),
		})
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(b)
}
