package ensemble

import (
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

func init() {
	gob.Register(&meanModel{})
	gob.Register(&shiftTransformer{})
}

// meanModel predicts the mean of the targets it was fitted on, which makes
// fold provenance directly observable in the prediction buffer.
type meanModel struct {
	Mean   float64
	Fitted bool
}

func (m *meanModel) Fit(X, y mat.Matrix) error {
	n, _ := y.Dims()
	if n == 0 {
		return errors.ErrEmptyData
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += y.At(i, 0)
	}
	m.Mean = sum / float64(n)
	m.Fitted = true
	return nil
}

func (m *meanModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !m.Fitted {
		return nil, errors.NewNotFittedError("meanModel", "Predict")
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, m.Mean)
	}
	return out, nil
}

// shiftTransformer learns the mean of its first feature column and subtracts
// it on Transform.
type shiftTransformer struct {
	Shift  float64
	Fitted bool
}

func (t *shiftTransformer) Fit(X, y mat.Matrix) error {
	n, _ := X.Dims()
	if n == 0 {
		return errors.ErrEmptyData
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += X.At(i, 0)
	}
	t.Shift = sum / float64(n)
	t.Fitted = true
	return nil
}

func (t *shiftTransformer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !t.Fitted {
		return nil, errors.NewNotFittedError("shiftTransformer", "Transform")
	}
	n, c := X.Dims()
	out := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(i, j)-t.Shift)
		}
	}
	return out, nil
}

// sequentialData builds an n-row dataset whose feature and target values equal
// the row index, so slices and fold means are predictable.
func sequentialData(n, features int) (*mat.Dense, *mat.Dense) {
	x := mat.NewDense(n, features, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < features; j++ {
			x.Set(i, j, float64(i))
		}
		y.Set(i, 0, float64(i))
	}
	return x, y
}

func twoFolds(n int) []Fold {
	half := n / 2
	return []Fold{
		{Train: RowRange(half, n), Test: RowRange(0, half)},
		{Train: RowRange(0, half), Test: RowRange(half, n)},
	}
}
