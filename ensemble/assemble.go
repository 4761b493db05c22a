package ensemble

import (
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// scoreLabel builds the score map key of one estimator instance. The null
// case yields "___<name>".
func scoreLabel(caseName, instName string) string {
	return caseName + "___" + instName
}

// assemble reconstructs the layer's fitted state from the pass cache.
//
// The cache is the single source of truth for a pass: nothing is collected
// from task return values, so reassembly works identically whether tasks ran
// in-process or behind a process boundary. The fitted state is built into
// fresh containers and installed wholesale, so a failed pass never leaves the
// layer partially updated.
func (l *Layer) assemble(cache *Cache) error {
	pre := make(map[string][]NamedTransformer)
	var fitted []FittedEstimator
	scores := make(map[string]Score)

	for _, c := range l.cases {
		if len(c.Transformers) > 0 {
			trs, err := cache.GetTransformers(c.Name)
			if err != nil {
				key := TransformerKey(c.Name)
				return errors.NewAssemblyError(key, cache.EntryPath(key), err)
			}
			pre[c.Name] = trs
		}

		for _, job := range c.Estimation {
			for _, in := range job.Instances {
				b, err := cache.GetEstimator(c.Name, in.Name)
				if err != nil {
					key := EstimatorKey(c.Name, in.Name)
					return errors.NewAssemblyError(key, cache.EntryPath(key), err)
				}
				fitted = append(fitted, FittedEstimator{
					Case:      c.Name,
					Name:      b.Name,
					Estimator: b.Estimator,
					Test:      b.Test,
					Column:    b.Column,
				})
				if b.Score.Valid {
					scores[scoreLabel(c.Name, b.Name)] = b.Score
				}
			}
		}
	}

	l.Preprocessing = pre
	l.Estimators = fitted
	l.Scores = scores
	return nil
}
