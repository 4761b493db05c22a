package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	scierr "github.com/YuminosukeSato/stackgo/pkg/errors"
)

func TestZerologLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	logger.Info("fit pass started", LayerKey, "layer-0", RowsKey, 100)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record["message"] != "fit pass started" {
		t.Errorf("message = %v", record["message"])
	}
	if record[LayerKey] != "layer-0" {
		t.Errorf("%s = %v, want layer-0", LayerKey, record[LayerKey])
	}
	if record[RowsKey] != float64(100) {
		t.Errorf("%s = %v, want 100", RowsKey, record[RowsKey])
	}
}

func TestZerologLoggerLeadingError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	logger.Error("phase failed", scierr.New("boom"), PhaseKey, "estimator-fit")

	out := buf.String()
	if !strings.Contains(out, "boom") {
		t.Errorf("error not recorded: %s", out)
	}
	if !strings.Contains(out, "estimator-fit") {
		t.Errorf("fields after the error were dropped: %s", out)
	}
}

func TestZerologLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug).With(LayerKey, "layer-1")

	logger.Debug("task done")
	if !strings.Contains(buf.String(), "layer-1") {
		t.Errorf("With fields missing: %s", buf.String())
	}
}

func TestZerologLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden too")
	if buf.Len() != 0 {
		t.Errorf("low-severity records leaked: %s", buf.String())
	}
	logger.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("warn record missing")
	}

	ctx := context.Background()
	if logger.Enabled(ctx, LevelDebug) {
		t.Error("Enabled(debug) should be false at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("Enabled(error) should be true at warn level")
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, LevelInfo)

	logger.Info("assembled", CaseKey, "ols.0")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record["msg"] != "assembled" || record[CaseKey] != "ols.0" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestSlogLoggerStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, LevelInfo)

	logger.Error("phase failed", scierr.New("boom"))

	if !strings.Contains(buf.String(), StacktraceAttrKey) {
		t.Errorf("stacktrace attribute missing: %s", buf.String())
	}
}

func TestTestLoggerSharedBuffer(t *testing.T) {
	logger, buf := NewTestLogger(LevelDebug)
	child := logger.With(LayerKey, "layer-0")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			child.Info("parallel write")
		}()
	}
	wg.Wait()

	lines := strings.Count(buf.String(), "\n")
	if lines != 8 {
		t.Errorf("got %d lines, want 8", lines)
	}
	if !strings.Contains(buf.String(), "layer-0") {
		t.Error("derived logger lost its With fields")
	}
}

func TestDefaultLoggerWarnRouting(t *testing.T) {
	logger, buf := NewTestLogger(LevelDebug)
	old := GetLogger()
	SetDefault(logger)
	defer SetDefault(old)

	scierr.Warn(scierr.NewScoringError("layer-0", "ols", scierr.New("bad targets")))

	out := buf.String()
	if !strings.Contains(out, "could not score") {
		t.Errorf("warning not routed to default logger: %q", out)
	}
	if !strings.Contains(out, "ScoringError") {
		t.Errorf("warning type missing: %q", out)
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ToLogLevel(tt.in); got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
