// Package log provides testing utilities for structured logging.
//
// This file contains a logger implementation that captures log output in
// memory so tests can verify what a fit pass logged without touching the
// process-wide sinks.

package log

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
)

type testSink struct {
	mu     sync.Mutex
	buffer *bytes.Buffer
}

// TestLogger is a logger implementation designed for testing.
// It captures all log messages in memory for later inspection. Loggers
// derived with With share the same buffer; writes are synchronized.
type TestLogger struct {
	sink   *testSink
	level  Level
	fields []any
}

// NewTestLogger creates a new TestLogger with the specified minimum level.
//
// Example:
//
//	logger, buffer := log.NewTestLogger(log.LevelDebug)
//	logger.Info("test message", "key", "value")
//	if !strings.Contains(buffer.String(), "test message") { ... }
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		sink:  &testSink{buffer: buffer},
		level: level,
	}, buffer
}

func (t *TestLogger) writeLog(level, msg string, fields ...any) {
	var sb strings.Builder
	sb.WriteString(level)
	sb.WriteString(" ")
	sb.WriteString(msg)
	all := append(append([]any{}, t.fields...), fields...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", all[i], all[i+1])
	}
	if len(all)%2 == 1 {
		fmt.Fprintf(&sb, " %v", all[len(all)-1])
	}
	sb.WriteString("\n")

	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.sink.buffer.WriteString(sb.String())
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) {
	if t.level <= LevelDebug {
		t.writeLog("DEBUG", msg, fields...)
	}
}

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) {
	if t.level <= LevelInfo {
		t.writeLog("INFO", msg, fields...)
	}
}

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) {
	if t.level <= LevelWarn {
		t.writeLog("WARN", msg, fields...)
	}
}

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) {
	if t.level <= LevelError {
		t.writeLog("ERROR", msg, fields...)
	}
}

// With implements Logger.With. The returned logger shares the buffer.
func (t *TestLogger) With(fields ...any) Logger {
	return &TestLogger{
		sink:   t.sink,
		level:  t.level,
		fields: append(append([]any{}, t.fields...), fields...),
	}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}
