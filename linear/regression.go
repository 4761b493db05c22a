// Package linear はアンサンブル層で使用できる線形モデルを提供します。
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/metrics"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// LinearRegression は最小二乗法による線形回帰モデルです。
// model.Estimator を実装しており、ensemble.EstimatorSpec のファクトリから
// 生成してそのまま層に組み込めます。フィールドはgobエンコードのため
// 公開されています。
type LinearRegression struct {
	State *model.StateManager

	// Weights は各特徴量の係数
	Weights []float64
	// Intercept は切片
	Intercept float64
}

// NewLinearRegression は新しい線形回帰モデルを作成します。
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{State: model.NewStateManager()}
}

// Fit はモデルを訓練データで学習させます。
// 正規方程式 w = (X^T * X)^(-1) * X^T * y を使用します。
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if lr.State == nil {
		lr.State = model.NewStateManager()
	}

	// 切片項のために X に 1 の列を追加
	XWithIntercept := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		XWithIntercept.Set(i, 0, 1.0)
		for j := 0; j < c; j++ {
			XWithIntercept.Set(i, j+1, X.At(i, j))
		}
	}

	var xt mat.Dense
	xt.CloneFrom(XWithIntercept.T())

	var xtx mat.Dense
	xtx.Mul(&xt, XWithIntercept)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var xty mat.VecDense
	xty.MulVec(&xt, yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&xtxInv, &xty)

	lr.Intercept = weights.AtVec(0)
	lr.Weights = make([]float64, c)
	for j := 0; j < c; j++ {
		lr.Weights[j] = weights.AtVec(j + 1)
	}

	lr.State.SetDimensions(c, r)
	lr.State.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行います。
// 学習後の呼び出しはゴルーチンセーフです。
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if lr.State == nil || !lr.State.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != len(lr.Weights) {
		return nil, errors.NewDimensionError("LinearRegression.Predict", len(lr.Weights), c, 1)
	}

	// y = X * weights + intercept
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		sum := lr.Intercept
		for j := 0; j < c; j++ {
			sum += X.At(i, j) * lr.Weights[j]
		}
		predictions.Set(i, 0, sum)
	}
	return predictions, nil
}

// Score は決定係数（R²）でモデルを評価します。
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, pred)
}
