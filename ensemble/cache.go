package ensemble

import (
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

const (
	transformerSuffix = "__t"
	estimatorSuffix   = "__e"
)

// NamedTransformer pairs a transformer with its name inside a pipeline.
type NamedTransformer struct {
	Name        string
	Transformer model.Transformer
}

// Score is an out-of-fold score that may be absent.
type Score struct {
	Value float64
	Valid bool
}

// EstimatorBundle is the per-instance fit result persisted to the cache:
// the fitted estimator, the fold used for its out-of-fold predictions
// (nil for a full-data fit), the prediction-buffer column it owns, and the
// score if one was computed.
type EstimatorBundle struct {
	Name      string
	Estimator model.Estimator
	Test      *FoldSpec
	Column    int
	Score     Score
}

// TransformerKey derives the cache key of a case's fitted transformer list.
// The null case (empty name) is allowed.
func TransformerKey(caseName string) string {
	return caseName + transformerSuffix
}

// EstimatorKey derives the cache key of an estimator bundle.
func EstimatorKey(caseName, instName string) string {
	return caseName + "__" + instName + estimatorSuffix
}

// Cache persists fitted components under deterministic keys in one directory.
// It is the only channel of communication between tasks of a pass, so it must
// stay visible across whatever isolation boundary the execution backend uses.
// Values are gob encoded; concrete transformer and estimator types must be
// registered with gob.Register before the first Put.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir. The directory's lifetime is owned
// by the caller.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// EntryPath returns the file path a key maps to.
func (c *Cache) EntryPath(key string) string {
	return filepath.Join(c.dir, key)
}

// PutTransformers writes a case's fitted transformer list.
func (c *Cache) PutTransformers(caseName string, trs []NamedTransformer) error {
	key := TransformerKey(caseName)
	if err := model.SaveModel(&trs, c.EntryPath(key)); err != nil {
		return errors.Wrapf(err, "cache: write %s", key)
	}
	return nil
}

// GetTransformers reads a case's fitted transformer list. A missing entry is
// reported as a CacheMissError, an expected condition when a reader races a
// writer.
func (c *Cache) GetTransformers(caseName string) ([]NamedTransformer, error) {
	key := TransformerKey(caseName)
	path := c.EntryPath(key)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewCacheMissError(key, path)
	}
	var trs []NamedTransformer
	if err := model.LoadModel(&trs, path); err != nil {
		return nil, errors.Wrapf(err, "cache: read %s", key)
	}
	return trs, nil
}

// PutEstimator writes an estimator bundle under the case it belongs to.
// Entries are write-once per key within a pass; later passes overwrite.
func (c *Cache) PutEstimator(caseName string, b EstimatorBundle) error {
	key := EstimatorKey(caseName, b.Name)
	if err := model.SaveModel(&b, c.EntryPath(key)); err != nil {
		return errors.Wrapf(err, "cache: write %s", key)
	}
	return nil
}

// GetEstimator reads an estimator bundle.
func (c *Cache) GetEstimator(caseName, instName string) (EstimatorBundle, error) {
	key := EstimatorKey(caseName, instName)
	path := c.EntryPath(key)
	var b EstimatorBundle
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return b, errors.NewCacheMissError(key, path)
	}
	if err := model.LoadModel(&b, path); err != nil {
		return b, errors.Wrapf(err, "cache: read %s", key)
	}
	return b, nil
}

// WaitConfig bounds the retry loop estimator tasks use while waiting for
// transformer cache entries to become visible.
type WaitConfig struct {
	// Interval is the sleep between polls.
	Interval time.Duration
	// Limit is the elapsed-time ceiling before a timeout is declared.
	Limit time.Duration
}

// DefaultWaitConfig returns the default 10ms poll interval and 120s ceiling.
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{Interval: 10 * time.Millisecond, Limit: 120 * time.Second}
}

func (w WaitConfig) withDefaults() WaitConfig {
	d := DefaultWaitConfig()
	if w.Interval <= 0 {
		w.Interval = d.Interval
	}
	if w.Limit <= 0 {
		w.Limit = d.Limit
	}
	return w
}

// WaitTransformers reads a case's fitted transformer list, polling until the
// entry becomes visible or the wait budget is exhausted.
//
// Under a correctly functioning backend the preprocessing phase has already
// completed when estimator tasks start, so this resolves almost immediately;
// the bounded retry tolerates filesystem visibility lag across workers. On
// the first breach of the limit in raise mode the wait fails with a
// CacheTimeoutError. In warn mode the breach is downgraded to a warning once,
// the clock is reset, and a second breach is fatal.
func (c *Cache) WaitTransformers(caseName string, cfg WaitConfig, raiseOnTimeout bool) ([]NamedTransformer, error) {
	cfg = cfg.withDefaults()
	key := TransformerKey(caseName)
	path := c.EntryPath(key)

	trs, err := c.GetTransformers(caseName)
	if err == nil {
		return trs, nil
	}
	if !errors.IsCacheMiss(err) {
		return nil, err
	}

	start := time.Now()
	for {
		time.Sleep(cfg.Interval)

		trs, err = c.GetTransformers(caseName)
		if err == nil {
			return trs, nil
		}
		if !errors.IsCacheMiss(err) {
			return nil, err
		}

		if elapsed := time.Since(start); elapsed > cfg.Limit {
			if raiseOnTimeout {
				return nil, errors.NewCacheTimeoutError(key, path, elapsed, cfg.Limit)
			}
			errors.Warn(errors.Newf(
				"transformers for case %q not found in cache (%s). Will check every %v for %v before aborting",
				caseName, path, cfg.Interval, cfg.Limit))
			// One grace period only. A second breach is fatal.
			raiseOnTimeout = true
			start = time.Now()
		}
	}
}
