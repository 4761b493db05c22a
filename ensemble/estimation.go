package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
)

// transformPair applies a transformer to X, rewriting y alongside when the
// transformer supports it.
func transformPair(tr model.Transformer, x, y mat.Matrix) (mat.Matrix, mat.Matrix, error) {
	if pt, ok := tr.(model.PairTransformer); ok {
		return pt.TransformPair(x, y)
	}
	x2, err := tr.Transform(x)
	return x2, y, err
}

// predictWith calls the layer's configured predict-like method.
func predictWith(est model.Estimator, x mat.Matrix, proba bool) (mat.Matrix, error) {
	if proba {
		p, ok := est.(model.Probabilistic)
		if !ok {
			return nil, errors.NewValueError("predict", "estimator does not implement PredictProba")
		}
		return p.PredictProba(x)
	}
	return est.Predict(x)
}

// scorePredictions scores held-out predictions. A scorer failure is always
// recovered locally: it is reported as a warning and the score is absent.
func scorePredictions(yTrue, yPred mat.Matrix, scorer ScorerFunc, layerName, instName string) Score {
	if scorer == nil || yTrue == nil {
		return Score{}
	}
	v, err := scorer(yTrue, yPred)
	if err != nil {
		errors.Warn(errors.NewScoringError(layerName, instName, err))
		return Score{}
	}
	return Score{Value: v, Valid: true}
}

// fitTransformersTask fits one case's transformer pipeline on its training
// fold and writes the fitted list to the cache. When the pipeline has more
// than one step, each step sees the output of the previous one.
type fitTransformersTask struct {
	cache        *Cache
	caseName     string
	train        FoldSpec
	transformers []NamedTransformer
	x, y         mat.Matrix
	logger       log.Logger
}

func (t *fitTransformersTask) run() error {
	x, y, err := sliceXY(t.x, t.y, t.train, 0)
	if err != nil {
		return err
	}

	for i, nt := range t.transformers {
		if err := nt.Transformer.Fit(x, y); err != nil {
			return errors.Wrapf(err, "case %q: fit transformer %q", t.caseName, nt.Name)
		}
		if i < len(t.transformers)-1 {
			x, y, err = transformPair(nt.Transformer, x, y)
			if err != nil {
				return errors.Wrapf(err, "case %q: transform with %q", t.caseName, nt.Name)
			}
		}
	}

	t.logger.Debug("transformers fitted",
		log.CaseKey, t.caseName, log.FoldTrainKey, t.train.String())
	return t.cache.PutTransformers(t.caseName, t.transformers)
}

// fitEstimatorTask fits one estimator instance on its training fold,
// optionally predicts its held-out fold into the shared prediction buffer,
// optionally scores those predictions, and writes the fitted bundle to the
// cache. When the case has preprocessing, the fitted transformers are
// obtained through the bounded cache wait first.
type fitEstimatorTask struct {
	cache     *Cache
	layerName string
	caseName  string
	instName  string
	est       model.Estimator

	x, y mat.Matrix
	pred *mat.Dense

	train  FoldSpec
	test   *FoldSpec
	column int
	width  int

	preprocess     bool
	wait           WaitConfig
	raiseOnTimeout bool
	scorer         ScorerFunc
	proba          bool
	logger         log.Logger
}

func (t *fitEstimatorTask) run() error {
	n, _ := t.x.Dims()

	x, y, err := sliceXY(t.x, t.y, t.train, 0)
	if err != nil {
		return err
	}

	var trs []NamedTransformer
	if t.preprocess {
		trs, err = t.cache.WaitTransformers(t.caseName, t.wait, t.raiseOnTimeout)
		if err != nil {
			return err
		}
	}
	for _, nt := range trs {
		x, y, err = transformPair(nt.Transformer, x, y)
		if err != nil {
			return errors.Wrapf(err, "case %q: transform with %q", t.caseName, nt.Name)
		}
	}

	if err := t.est.Fit(x, y); err != nil {
		return errors.Wrapf(err, "[%s] case %q: fit estimator %q", t.layerName, t.caseName, t.instName)
	}

	score := Score{}
	if t.test != nil {
		xte, yte, err := sliceXY(t.x, t.y, *t.test, 0)
		if err != nil {
			return err
		}
		for _, nt := range trs {
			xte, err = nt.Transformer.Transform(xte)
			if err != nil {
				return errors.Wrapf(err, "case %q: transform with %q", t.caseName, nt.Name)
			}
		}

		p, err := predictWith(t.est, xte, t.proba)
		if err != nil {
			return errors.Wrapf(err, "[%s] case %q: predict with %q", t.layerName, t.caseName, t.instName)
		}
		if _, pc := p.Dims(); pc != t.width {
			return errors.NewDimensionError("fit "+t.instName, t.width, pc, 1)
		}

		predRows, _ := t.pred.Dims()
		if err := WritePredictions(t.pred, p, *t.test, t.column, n-predRows); err != nil {
			return err
		}
		score = scorePredictions(yte, p, t.scorer, t.layerName, t.instName)
	}

	t.logger.Debug("estimator fitted",
		log.CaseKey, t.caseName,
		log.InstanceKey, t.instName,
		log.FoldTrainKey, t.train.String(),
		log.ColumnKey, t.column)
	return t.cache.PutEstimator(t.caseName, EstimatorBundle{
		Name:      t.instName,
		Estimator: t.est,
		Test:      t.test,
		Column:    t.column,
		Score:     score,
	})
}

// predictTask predicts the entire input with one full-data fitted estimator,
// applying the case's full-data fitted transformer list first.
type predictTask struct {
	layerName    string
	caseName     string
	instName     string
	transformers []NamedTransformer
	est          model.Estimator
	x            mat.Matrix
	pred         *mat.Dense
	column       int
	proba        bool
}

func (t *predictTask) run() error {
	x, err := SliceRows(t.x, AllRows(), 0)
	if err != nil {
		return err
	}
	for _, nt := range t.transformers {
		x, err = nt.Transformer.Transform(x)
		if err != nil {
			return errors.Wrapf(err, "case %q: transform with %q", t.caseName, nt.Name)
		}
	}
	p, err := predictWith(t.est, x, t.proba)
	if err != nil {
		return errors.Wrapf(err, "[%s] case %q: predict with %q", t.layerName, t.caseName, t.instName)
	}
	return WritePredictions(t.pred, p, AllRows(), t.column, 0)
}

// transformTask replays one fold estimator's fit-time predictions: it slices
// the held-out fold, applies the case's fold-fitted transformer list, and
// writes predictions for only those rows.
type transformTask struct {
	layerName    string
	caseName     string
	instName     string
	transformers []NamedTransformer
	est          model.Estimator
	x            mat.Matrix
	pred         *mat.Dense
	test         FoldSpec
	column       int
	proba        bool
}

func (t *transformTask) run() error {
	n, _ := t.x.Dims()
	x, err := SliceRows(t.x, t.test, 0)
	if err != nil {
		return err
	}
	for _, nt := range t.transformers {
		x, err = nt.Transformer.Transform(x)
		if err != nil {
			return errors.Wrapf(err, "case %q: transform with %q", t.caseName, nt.Name)
		}
	}
	p, err := predictWith(t.est, x, t.proba)
	if err != nil {
		return errors.Wrapf(err, "[%s] case %q: predict with %q", t.layerName, t.caseName, t.instName)
	}
	predRows, _ := t.pred.Dims()
	return WritePredictions(t.pred, p, t.test, t.column, n-predRows)
}
