// Package metrics は回帰モデルの評価指標を提供します。
// 行列ベースの関数はそのまま ensemble.ScorerFunc として使用できます。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// validatePair は2つの入力を検証し、行数を返す
func validatePair(op string, yTrue, yPred mat.Matrix) (int, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 {
		return 0, errors.NewValueError(op, "empty input")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 || cPred != 1 {
		return 0, errors.NewValueError(op, "inputs must be column vectors (n×1 matrices)")
	}
	return rTrue, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := validatePair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.At(i, 0) - yPred.At(i, 0)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Matrix) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := validatePair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.At(i, 0) - yPred.At(i, 0))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := validatePair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.At(i, 0)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.At(i, 0)
		yPredVal := yPred.At(i, 0)
		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を計算する。
// yTrueが0の要素はゼロ除算を避けるためスキップされる。
func MAPE(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := validatePair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	validCount := 0
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.At(i, 0)
		if yTrueVal == 0 {
			continue
		}
		sum += math.Abs(yTrueVal-yPred.At(i, 0)) / math.Abs(yTrueVal)
		validCount++
	}
	if validCount == 0 {
		return 0, errors.Newf("MAPE: all yTrue values are zero")
	}
	return (sum / float64(validCount)) * 100, nil
}

// MSEVec はベクトル形式の入力に対してMSEを計算する
func MSEVec(yTrue, yPred *mat.VecDense) (float64, error) {
	return MSE(asColumn(yTrue), asColumn(yPred))
}

// R2ScoreVec はベクトル形式の入力に対してR²を計算する
func R2ScoreVec(yTrue, yPred *mat.VecDense) (float64, error) {
	return R2Score(asColumn(yTrue), asColumn(yPred))
}

func asColumn(v *mat.VecDense) mat.Matrix {
	if v == nil {
		return &mat.Dense{}
	}
	return v
}
