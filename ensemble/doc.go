// Package ensemble implements the fit/predict/transform execution engine for
// one layer of an out-of-core stacked ensemble.
//
// A layer owns a set of cases. Each case couples one preprocessing pipeline
// with the cross-validation folds that share it and the estimator instances
// fitted on those folds. Fitting a layer dispatches two back-to-back parallel
// phases to an execution backend: transformer fits, then estimator fits. The
// phases communicate exclusively through an on-disk cache so the backend may
// isolate workers in separate processes. Out-of-fold predictions are written
// into a shared prediction buffer; each task targets a row/column region
// disjoint from every other task's region, which is what makes the lock-free
// concurrent writes safe. After the estimator phase completes, the assembler
// reads the cache back into the layer's fitted state.
//
// The concrete transformers and estimators are supplied by the caller through
// the capability contracts in core/model. Fitted components are persisted
// with encoding/gob, so callers must gob.Register their concrete types once
// at startup.
package ensemble
