// Package log defines standard attribute keys for ensemble operations.
//
// Using these standard keys enables consistent log analysis and debugging of
// parallel fit passes. The keys follow a hierarchical naming convention
// (e.g., "layer.name", "fold.train") so structured sinks can filter on them.

package log

// Layer and pass context.
const (
	// LayerKey identifies the ensemble layer an operation belongs to.
	LayerKey = "layer.name"

	// PassIDKey carries the unique ULID assigned to one fit/predict/transform
	// pass. All tasks of a pass share it.
	PassIDKey = "layer.pass_id"

	// CaseKey identifies the preprocessing case of a task.
	// The null case is logged as an empty string.
	CaseKey = "case.name"

	// InstanceKey identifies the estimator instance of a task.
	InstanceKey = "instance.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform"
	OperationKey = "ml.operation"

	// PhaseKey indicates the dispatch phase.
	// Standard values: "preprocess-fit", "estimator-fit", "predict", "transform"
	PhaseKey = "ml.phase"
)

// Data shape and addressing.
const (
	// RowsKey indicates the number of rows of the full input.
	RowsKey = "data.rows"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// FoldTrainKey describes the training fold specification of a task.
	FoldTrainKey = "fold.train"

	// FoldTestKey describes the held-out fold specification of a task.
	FoldTestKey = "fold.test"

	// ColumnKey indicates the first prediction-buffer column a task writes.
	ColumnKey = "pred.column"

	// WidthKey indicates the number of prediction-buffer columns a task writes.
	WidthKey = "pred.width"
)

// Cache context.
const (
	// CacheKeyKey identifies the cache entry a task reads or writes.
	CacheKeyKey = "cache.key"

	// CacheDirKey identifies the cache directory of a pass.
	CacheDirKey = "cache.dir"

	// WaitElapsedKey records how long a task waited on a cache entry.
	WaitElapsedKey = "cache.wait_elapsed"
)

// Performance and error context.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// TasksKey records the number of tasks submitted in a phase.
	TasksKey = "perf.tasks"

	// WorkersKey records the number of workers a backend used.
	WorkersKey = "perf.workers"

	// ScoreKey records an out-of-fold score.
	ScoreKey = "metrics.score"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Standard attribute value constants for common operations.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"

	PhasePreprocessFit = "preprocess-fit"
	PhaseEstimatorFit  = "estimator-fit"
	PhasePredict       = "predict"
	PhaseTransform     = "transform"
)
