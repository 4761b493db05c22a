// Package stackgo implements the execution engine for stacked (cross
// validated) ensembles in Go.
//
// The central abstraction is the ensemble.Layer: a set of estimators, each
// optionally preceded by a preprocessing pipeline, fitted per fold and
// combined into an out-of-fold prediction matrix that feeds the next layer
// of a stack. Fitted components travel between workers through a file backed
// cache, so execution backends can range from an in-process goroutine pool
// to separate processes sharing a directory.
//
// # Quick Start
//
//	specs := []ensemble.CaseSpec{{
//	    Name: "ols",
//	    Pipeline: func() []ensemble.NamedTransformer {
//	        return []ensemble.NamedTransformer{
//	            {Name: "scale", Transformer: preprocessing.NewStandardScaler()},
//	        }
//	    },
//	    Estimators: []ensemble.EstimatorSpec{
//	        {Name: "lr", New: func() model.Estimator { return linear.NewLinearRegression() }},
//	    },
//	}}
//
//	folds := []ensemble.Fold{
//	    {Train: ensemble.RowRange(50, 100), Test: ensemble.RowRange(0, 50)},
//	    {Train: ensemble.RowRange(0, 50), Test: ensemble.RowRange(50, 100)},
//	}
//
//	cases, cols, err := ensemble.ExpandCases(specs, folds)
//	layer := ensemble.NewLayer("layer-0", cases, ensemble.WithScorer(metrics.MSE))
//
//	pred := mat.NewDense(100, cols, nil)
//	err = layer.Fit(X, y, pred)
//
// After Fit, pred holds out-of-fold predictions for every row, Layer.Predict
// produces predictions for new data with the full-data estimators, and
// Layer.Transform reproduces the out-of-fold matrix for the training data.
//
// # Packages
//
//   - ensemble: fold addressing, cache, backends, and the layer engine
//   - core/model: estimator and transformer contracts, gob persistence
//   - linear: ordinary least squares regression
//   - preprocessing: standard and min-max scalers
//   - metrics: regression metrics usable as layer scorers
//   - pkg/errors, pkg/log: error taxonomy and structured logging
package stackgo
