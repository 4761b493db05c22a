package ensemble

import (
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
)

// writeRegion is one (rows, columns) block of the prediction buffer claimed by
// a fold estimator during Fit.
type writeRegion struct {
	caseName string
	instName string
	cols     Interval
	rows     []Interval
}

// validateWrites rejects a case configuration whose fold estimators would
// write overlapping (rows, columns) regions of the prediction buffer. The
// check runs before any task is dispatched so a bad configuration fails fast
// instead of corrupting the buffer mid-pass.
func (l *Layer) validateWrites(nRows, nCols int) error {
	var regions []writeRegion
	for _, c := range l.cases {
		for _, job := range c.Estimation {
			if job.Test == nil {
				continue
			}
			rows := job.Test.rowIntervals(nRows)
			for _, in := range job.Instances {
				hi := in.Column + in.width()
				if in.Column < 0 || hi > nCols {
					return errors.NewDimensionError("Fit", nCols, hi, 1)
				}
				regions = append(regions, writeRegion{
					caseName: c.Name,
					instName: in.Name,
					cols:     Interval{Start: in.Column, End: hi},
					rows:     rows,
				})
			}
		}
	}

	for i := 0; i < len(regions); i++ {
		for j := i + 1; j < len(regions); j++ {
			a, b := regions[i], regions[j]
			if intervalsOverlap([]Interval{a.cols}, []Interval{b.cols}) &&
				intervalsOverlap(a.rows, b.rows) {
				return errors.NewValueError("Fit", fmt.Sprintf(
					"estimators %s/%s and %s/%s write overlapping buffer regions",
					a.caseName, a.instName, b.caseName, b.instName))
			}
		}
	}
	return nil
}

// runPhase executes one batch of tasks on the backend and logs its outcome.
func (l *Layer) runPhase(logger log.Logger, phase string, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	start := time.Now()
	err := l.backend.Run(tasks)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("phase failed", err,
			log.PhaseKey, phase,
			log.TasksKey, len(tasks),
			log.DurationMsKey, elapsed.Milliseconds())
		return err
	}
	logger.Debug("phase completed",
		log.PhaseKey, phase,
		log.TasksKey, len(tasks),
		log.DurationMsKey, elapsed.Milliseconds())
	return nil
}

// Fit runs one complete fit pass over the layer's cases.
//
// The pass fits every preprocessing pipeline on its training fold, then fits
// every estimator instance, writing each fold instance's held-out predictions
// into pred, and finally reassembles the fitted components from the cache into
// the layer. pred may be nil only when no job declares a held-out fold. A
// buffer smaller than X is aligned to its trailing rows.
//
// The pass is atomic with respect to the layer's fitted state: on any task
// failure the layer is left unfitted and the previous fitted state, if any, is
// untouched.
func (l *Layer) Fit(X, y mat.Matrix, pred *mat.Dense) error {
	if X == nil {
		return errors.Wrap(errors.ErrEmptyData, "Fit")
	}
	n, d := X.Dims()
	if n == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Fit")
	}
	if pred != nil {
		pr, pc := pred.Dims()
		if pr > n {
			return errors.NewDimensionError("Fit", n, pr, 0)
		}
		if err := l.validateWrites(n, pc); err != nil {
			return err
		}
	}
	for _, c := range l.cases {
		for _, job := range c.Estimation {
			if job.Test != nil && pred == nil {
				return errors.NewValueError("Fit", fmt.Sprintf(
					"case %q declares a held-out fold but no prediction buffer was given", c.Name))
			}
		}
	}

	passID := ulid.Make().String()
	logger := l.logger.With(log.PassIDKey, passID, log.OperationKey, log.OperationFit)

	dir := l.cacheDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "stackgo-"+passID)
		if err != nil {
			return errors.Wrap(err, "Fit: create cache directory")
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "Fit: create cache directory")
	}
	cache := NewCache(dir)
	logger.Info("fit pass started",
		log.CacheDirKey, dir, log.RowsKey, n, log.FeaturesKey, d)

	var preTasks []Task
	for _, c := range l.cases {
		if len(c.Transformers) == 0 {
			continue
		}
		t := &fitTransformersTask{
			cache:        cache,
			caseName:     c.Name,
			train:        c.Train,
			transformers: c.Transformers,
			x:            X,
			y:            y,
			logger:       logger,
		}
		preTasks = append(preTasks, t.run)
	}
	if err := l.runPhase(logger, log.PhasePreprocessFit, preTasks); err != nil {
		return err
	}

	var estTasks []Task
	for _, c := range l.cases {
		for _, job := range c.Estimation {
			for _, in := range job.Instances {
				t := &fitEstimatorTask{
					cache:          cache,
					layerName:      l.name,
					caseName:       c.Name,
					instName:       in.Name,
					est:            in.Estimator,
					x:              X,
					y:              y,
					pred:           pred,
					train:          job.Train,
					test:           job.Test,
					column:         in.Column,
					width:          in.width(),
					preprocess:     len(c.Transformers) > 0,
					wait:           l.wait,
					raiseOnTimeout: l.raiseOnTimeout,
					scorer:         l.scorer,
					proba:          l.proba,
					logger:         logger,
				}
				estTasks = append(estTasks, t.run)
			}
		}
	}
	if err := l.runPhase(logger, log.PhaseEstimatorFit, estTasks); err != nil {
		return err
	}

	if err := l.assemble(cache); err != nil {
		return err
	}
	l.state.SetDimensions(d, n)
	l.state.SetFitted()
	logger.Info("fit pass completed", log.TasksKey, len(preTasks)+len(estTasks))
	return nil
}

// Predict predicts the entire input with the layer's full-data estimators and
// writes the results into pred, which must have one row per input row.
func (l *Layer) Predict(X mat.Matrix, pred *mat.Dense) error {
	if !l.state.IsFitted() {
		return errors.NewNotFittedError("Layer", "Predict")
	}
	if X == nil {
		return errors.Wrap(errors.ErrEmptyData, "Predict")
	}
	if pred == nil {
		return errors.NewValueError("Predict", "nil prediction buffer")
	}
	n, _ := X.Dims()
	if pr, _ := pred.Dims(); pr != n {
		return errors.NewDimensionError("Predict", n, pr, 0)
	}

	logger := l.logger.With(log.OperationKey, log.OperationPredict)
	var tasks []Task
	for _, fe := range l.Estimators {
		if fe.Test != nil {
			continue
		}
		t := &predictTask{
			layerName:    l.name,
			caseName:     fe.Case,
			instName:     fe.Name,
			transformers: l.Preprocessing[fe.Case],
			est:          fe.Estimator,
			x:            X,
			pred:         pred,
			column:       fe.Column,
			proba:        l.proba,
		}
		tasks = append(tasks, t.run)
	}
	return l.runPhase(logger, log.PhasePredict, tasks)
}

// Transform replays the fit pass on the fitting data: each fold estimator
// predicts only its held-out rows, reproducing the out-of-fold prediction
// matrix. X must be the data the layer was fitted on; pred may cover only the
// trailing rows, matching the buffer used during Fit.
func (l *Layer) Transform(X mat.Matrix, pred *mat.Dense) error {
	if !l.state.IsFitted() {
		return errors.NewNotFittedError("Layer", "Transform")
	}
	if X == nil {
		return errors.Wrap(errors.ErrEmptyData, "Transform")
	}
	if pred == nil {
		return errors.NewValueError("Transform", "nil prediction buffer")
	}
	n, _ := X.Dims()
	if pr, _ := pred.Dims(); pr > n {
		return errors.NewDimensionError("Transform", n, pr, 0)
	}

	logger := l.logger.With(log.OperationKey, log.OperationTransform)
	var tasks []Task
	for _, fe := range l.Estimators {
		if fe.Test == nil {
			continue
		}
		t := &transformTask{
			layerName:    l.name,
			caseName:     fe.Case,
			instName:     fe.Name,
			transformers: l.Preprocessing[fe.Case],
			est:          fe.Estimator,
			x:            X,
			pred:         pred,
			test:         *fe.Test,
			column:       fe.Column,
			proba:        l.proba,
		}
		tasks = append(tasks, t.run)
	}
	return l.runPhase(logger, log.PhaseTransform, tasks)
}
