package ensemble

import (
	"fmt"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// EstimatorSpec names an estimator and the factory that produces a fresh,
// unfitted instance for each fold.
type EstimatorSpec struct {
	Name string
	New  func() model.Estimator
	// Width is the number of prediction columns the estimator outputs.
	// Zero means one.
	Width int
}

func (s EstimatorSpec) width() int {
	if s.Width <= 0 {
		return 1
	}
	return s.Width
}

// CaseSpec is the compact description of one case: an optional preprocessing
// pipeline factory and the estimators fitted on the case's folds.
type CaseSpec struct {
	Name string
	// Pipeline returns a fresh, unfitted transformer pipeline. Nil disables
	// preprocessing for the case.
	Pipeline   func() []NamedTransformer
	Estimators []EstimatorSpec
}

// Fold is one train/held-out partition of the dataset rows.
type Fold struct {
	Train FoldSpec
	Test  FoldSpec
}

// ExpandCases expands compact case descriptions over a fold set into the
// per-fold cases a Layer consumes, and returns the total number of
// prediction-buffer columns the expanded cases write.
//
// The expansion establishes the two invariants the dispatcher relies on:
// (case, instance) names are unique within the layer, and every estimator
// owns one column range shared by all of its folds, so concurrent writes
// land in disjoint regions (same columns, disjoint held-out rows).
//
// For each case a full-data job is appended alongside the fold jobs: its
// instances are fitted on all rows, produce no held-out predictions, and
// later serve the Predict phase. Cases with a pipeline are split into one
// case per fold (named "<case>.<fold>") because the pipeline itself is
// refitted per fold and keyed by case name in the cache; caseless pipelines
// keep one case and fold-qualify the instance names instead.
func ExpandCases(specs []CaseSpec, folds []Fold) ([]Case, int, error) {
	if len(folds) == 0 {
		return nil, 0, errors.NewValueError("ExpandCases", "no folds")
	}
	seen := make(map[string]bool)
	for _, spec := range specs {
		if seen[spec.Name] {
			return nil, 0, errors.NewValueError("ExpandCases",
				fmt.Sprintf("duplicate case name %q", spec.Name))
		}
		seen[spec.Name] = true
		if len(spec.Estimators) == 0 {
			return nil, 0, errors.NewValueError("ExpandCases",
				fmt.Sprintf("case %q has no estimators", spec.Name))
		}
	}

	var cases []Case
	col := 0
	for _, spec := range specs {
		cols := make([]int, len(spec.Estimators))
		for i, est := range spec.Estimators {
			cols[i] = col
			col += est.width()
		}

		if spec.Pipeline != nil {
			for fi, fold := range folds {
				test := fold.Test
				cases = append(cases, Case{
					Name:         fmt.Sprintf("%s.%d", spec.Name, fi),
					Train:        fold.Train,
					Transformers: spec.Pipeline(),
					Estimation: []EstimationJob{{
						Train:     fold.Train,
						Test:      &test,
						Instances: newInstances(spec.Estimators, cols, ""),
					}},
				})
			}
			cases = append(cases, Case{
				Name:         spec.Name,
				Train:        AllRows(),
				Transformers: spec.Pipeline(),
				Estimation: []EstimationJob{{
					Train:     AllRows(),
					Instances: newInstances(spec.Estimators, cols, ""),
				}},
			})
			continue
		}

		c := Case{Name: spec.Name}
		for fi, fold := range folds {
			test := fold.Test
			c.Estimation = append(c.Estimation, EstimationJob{
				Train:     fold.Train,
				Test:      &test,
				Instances: newInstances(spec.Estimators, cols, fmt.Sprintf(".%d", fi)),
			})
		}
		c.Estimation = append(c.Estimation, EstimationJob{
			Train:     AllRows(),
			Instances: newInstances(spec.Estimators, cols, ""),
		})
		cases = append(cases, c)
	}
	return cases, col, nil
}

func newInstances(specs []EstimatorSpec, cols []int, suffix string) []Instance {
	instances := make([]Instance, len(specs))
	for i, est := range specs {
		instances[i] = Instance{
			Name:      est.Name + suffix,
			Estimator: est.New(),
			Column:    cols[i],
			Width:     est.width(),
		}
	}
	return instances
}
