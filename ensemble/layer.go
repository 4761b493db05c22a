package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
)

// ScorerFunc scores held-out predictions against the true targets.
type ScorerFunc func(yTrue, yPred mat.Matrix) (float64, error)

// Instance is a named estimator together with the prediction-buffer columns
// it owns. (case, name) pairs must be unique within a layer, and the column
// ranges of instances writing overlapping rows must be disjoint; ExpandCases
// produces both properties by construction.
type Instance struct {
	Name      string
	Estimator model.Estimator
	// Column is the first prediction-buffer column the instance writes.
	Column int
	// Width is the number of columns the instance writes. Zero means one.
	Width int
}

func (in Instance) width() int {
	if in.Width <= 0 {
		return 1
	}
	return in.Width
}

// EstimationJob is one (train fold, held-out fold, instances) tuple of a case.
// A nil Test marks a full-data job: the instances are fitted but produce no
// held-out predictions, and later serve the Predict phase.
type EstimationJob struct {
	Train     FoldSpec
	Test      *FoldSpec
	Instances []Instance
}

// Case is a named group of estimation jobs sharing one preprocessing
// pipeline. An empty Transformers list disables preprocessing for the case.
// The case name keys the pipeline's cache entry, so every distinct pipeline
// fit needs a distinct case name; the null case (empty string) is allowed.
type Case struct {
	Name string
	// Train selects the rows the pipeline is fitted on.
	Train        FoldSpec
	Transformers []NamedTransformer
	Estimation   []EstimationJob
}

// FittedEstimator is one reassembled estimator of a fitted layer.
type FittedEstimator struct {
	Case      string
	Name      string
	Estimator model.Estimator
	Test      *FoldSpec
	Column    int
}

// Layer is the execution engine for one stacked-ensemble layer. It is fitted
// at most once at a time; the fitted state is replaced wholesale by each fit
// pass.
type Layer struct {
	state  *model.StateManager
	name   string
	cases  []Case
	logger log.Logger

	scorer         ScorerFunc
	backend        Backend
	wait           WaitConfig
	raiseOnTimeout bool
	cacheDir       string
	proba          bool

	// Preprocessing maps each case to its fitted transformer list.
	// Installed by the assembler, exactly once per fit pass.
	Preprocessing map[string][]NamedTransformer
	// Estimators holds the fitted estimators in case/instance order.
	Estimators []FittedEstimator
	// Scores maps "<case>___<name>" labels to out-of-fold scores.
	Scores map[string]Score
}

// Option configures a Layer.
type Option func(*Layer)

// WithScorer sets the function used to score out-of-fold predictions.
// Without a scorer no scores are recorded.
func WithScorer(s ScorerFunc) Option {
	return func(l *Layer) { l.scorer = s }
}

// WithBackend sets the execution backend. Default is PoolBackend.
func WithBackend(b Backend) Option {
	return func(l *Layer) { l.backend = b }
}

// WithWaitConfig sets the cache wait budget for estimator tasks.
func WithWaitConfig(cfg WaitConfig) Option {
	return func(l *Layer) { l.wait = cfg }
}

// WithTimeoutWarning downgrades the first cache-wait timeout of each task to
// a warning, granting one grace period before a second timeout is fatal.
func WithTimeoutWarning() Option {
	return func(l *Layer) { l.raiseOnTimeout = false }
}

// WithCacheDir roots the pass cache at dir instead of a temporary directory.
// The directory's lifetime is owned by the caller.
func WithCacheDir(dir string) Option {
	return func(l *Layer) { l.cacheDir = dir }
}

// WithProba makes the layer call PredictProba instead of Predict. Every
// estimator must implement model.Probabilistic, and instance widths must
// match the number of classes.
func WithProba() Option {
	return func(l *Layer) { l.proba = true }
}

// WithLogger sets the structured logger used by dispatch.
func WithLogger(logger log.Logger) Option {
	return func(l *Layer) { l.logger = logger.With(log.LayerKey, l.name) }
}

// NewLayer creates a layer over the given cases.
func NewLayer(name string, cases []Case, opts ...Option) *Layer {
	l := &Layer{
		state:          model.NewStateManager(),
		name:           name,
		cases:          cases,
		logger:         log.GetLogger().With(log.LayerKey, name),
		backend:        PoolBackend{},
		wait:           DefaultWaitConfig(),
		raiseOnTimeout: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the layer name.
func (l *Layer) Name() string {
	return l.name
}

// IsFitted returns whether the layer has been fitted.
func (l *Layer) IsFitted() bool {
	return l.state.IsFitted()
}

// layerSnapshot is the gob payload of a fitted layer. The case configuration
// is not persisted; only the fitted state needed by Predict and Transform.
type layerSnapshot struct {
	Name          string
	NFeatures     int
	NSamples      int
	Preprocessing map[string][]NamedTransformer
	Estimators    []FittedEstimator
	Scores        map[string]Score
}

// Save persists the fitted state to a file. Concrete transformer and
// estimator types must be registered with gob.Register.
func (l *Layer) Save(path string) error {
	if !l.state.IsFitted() {
		return errors.NewNotFittedError("Layer", "Save")
	}
	nf, ns := l.state.GetDimensions()
	snap := layerSnapshot{
		Name:          l.name,
		NFeatures:     nf,
		NSamples:      ns,
		Preprocessing: l.Preprocessing,
		Estimators:    l.Estimators,
		Scores:        l.Scores,
	}
	return model.SaveModel(&snap, path)
}

// Load restores the fitted state from a file written by Save.
func (l *Layer) Load(path string) error {
	var snap layerSnapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return err
	}
	l.name = snap.Name
	l.Preprocessing = snap.Preprocessing
	l.Estimators = snap.Estimators
	l.Scores = snap.Scores
	l.state.SetDimensions(snap.NFeatures, snap.NSamples)
	l.state.SetFitted()
	return nil
}
