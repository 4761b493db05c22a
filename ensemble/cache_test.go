package ensemble

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"transformer key", TransformerKey("case-1"), "case-1__t"},
		{"null case transformer key", TransformerKey(""), "__t"},
		{"estimator key", EstimatorKey("case-1", "ols.0"), "case-1__ols.0__e"},
		{"null case estimator key", EstimatorKey("", "ols"), "__ols__e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestCacheTransformersRoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir())

	in := []NamedTransformer{{Name: "shift", Transformer: &shiftTransformer{Shift: 2.5, Fitted: true}}}
	if err := cache.PutTransformers("case-1", in); err != nil {
		t.Fatalf("PutTransformers failed: %v", err)
	}

	out, err := cache.GetTransformers("case-1")
	if err != nil {
		t.Fatalf("GetTransformers failed: %v", err)
	}
	if len(out) != 1 || out[0].Name != "shift" {
		t.Fatalf("unexpected transformer list: %+v", out)
	}
	tr, ok := out[0].Transformer.(*shiftTransformer)
	if !ok || tr.Shift != 2.5 || !tr.Fitted {
		t.Errorf("fitted state lost in round trip: %+v", out[0].Transformer)
	}
}

func TestCacheEstimatorRoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir())
	test := RowRange(0, 5)

	in := EstimatorBundle{
		Name:      "mean.0",
		Estimator: &meanModel{Mean: 4.5, Fitted: true},
		Test:      &test,
		Column:    3,
		Score:     Score{Value: 0.9, Valid: true},
	}
	if err := cache.PutEstimator("case-1", in); err != nil {
		t.Fatalf("PutEstimator failed: %v", err)
	}

	out, err := cache.GetEstimator("case-1", "mean.0")
	if err != nil {
		t.Fatalf("GetEstimator failed: %v", err)
	}
	if out.Column != 3 || !out.Score.Valid || out.Score.Value != 0.9 {
		t.Errorf("bundle metadata lost: %+v", out)
	}
	if out.Test == nil || out.Test.Intervals[0].End != 5 {
		t.Errorf("held-out fold lost: %+v", out.Test)
	}
	m, ok := out.Estimator.(*meanModel)
	if !ok || m.Mean != 4.5 {
		t.Errorf("estimator state lost: %+v", out.Estimator)
	}
}

func TestCacheMiss(t *testing.T) {
	cache := NewCache(t.TempDir())

	_, err := cache.GetTransformers("absent")
	if !errors.IsCacheMiss(err) {
		t.Errorf("expected cache miss, got %v", err)
	}
	_, err = cache.GetEstimator("absent", "mean")
	if !errors.IsCacheMiss(err) {
		t.Errorf("expected cache miss, got %v", err)
	}
}

func TestWaitTransformersImmediate(t *testing.T) {
	cache := NewCache(t.TempDir())
	if err := cache.PutTransformers("c", []NamedTransformer{{Name: "s", Transformer: &shiftTransformer{Fitted: true}}}); err != nil {
		t.Fatalf("PutTransformers failed: %v", err)
	}

	got, err := cache.WaitTransformers("c", DefaultWaitConfig(), true)
	if err != nil {
		t.Fatalf("WaitTransformers failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d transformers, want 1", len(got))
	}
}

func TestWaitTransformersDelayedWriter(t *testing.T) {
	cache := NewCache(t.TempDir())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(30 * time.Millisecond)
		_ = cache.PutTransformers("c", []NamedTransformer{{Name: "s", Transformer: &shiftTransformer{Fitted: true}}})
	}()

	cfg := WaitConfig{Interval: 5 * time.Millisecond, Limit: 2 * time.Second}
	got, err := cache.WaitTransformers("c", cfg, true)
	wg.Wait()
	if err != nil {
		t.Fatalf("WaitTransformers failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d transformers, want 1", len(got))
	}
}

func TestWaitTransformersTimeout(t *testing.T) {
	cache := NewCache(t.TempDir())
	cfg := WaitConfig{Interval: 5 * time.Millisecond, Limit: 30 * time.Millisecond}

	start := time.Now()
	_, err := cache.WaitTransformers("never", cfg, true)
	elapsed := time.Since(start)

	var timeout *errors.CacheTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected CacheTimeoutError, got %v", err)
	}
	if timeout.Key != "never__t" {
		t.Errorf("timeout key = %q, want %q", timeout.Key, "never__t")
	}
	if elapsed < cfg.Limit {
		t.Errorf("returned after %v, before the %v limit", elapsed, cfg.Limit)
	}
}

func TestWaitTransformersGracePeriod(t *testing.T) {
	var warnings []error
	var mu sync.Mutex
	errors.SetWarningHandler(func(w error) {
		mu.Lock()
		warnings = append(warnings, w)
		mu.Unlock()
	})
	defer errors.SetWarningHandler(nil)

	cache := NewCache(t.TempDir())
	cfg := WaitConfig{Interval: 5 * time.Millisecond, Limit: 30 * time.Millisecond}

	start := time.Now()
	_, err := cache.WaitTransformers("never", cfg, false)
	elapsed := time.Since(start)

	var timeout *errors.CacheTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected CacheTimeoutError after grace period, got %v", err)
	}
	if elapsed < 2*cfg.Limit {
		t.Errorf("returned after %v, before both %v wait budgets", elapsed, cfg.Limit)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want exactly 1", len(warnings))
	}
	if !strings.Contains(warnings[0].Error(), `"never"`) {
		t.Errorf("warning does not name the case: %v", warnings[0])
	}
}
