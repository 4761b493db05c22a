// Package preprocessing はアンサンブル層のパイプラインで使用できる
// 前処理トランスフォーマーを提供します。
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// StandardScaler はデータを平均0、標準偏差1に変換するトランスフォーマーです。
// model.Transformer を実装しており、ensemble.NamedTransformer として
// パイプラインに組み込めます。フィールドはgobエンコードのため公開されています。
type StandardScaler struct {
	State *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64
	// Scale は各特徴量の標準偏差
	Scale []float64
	// WithMean は平均を引くかどうか
	WithMean bool
	// WithStd は標準偏差で割るかどうか
	WithStd bool
}

// NewStandardScaler はデフォルト設定（平均を引き、標準偏差で割る）の
// StandardScalerを作成します。
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{
		State:    model.NewStateManager(),
		WithMean: true,
		WithStd:  true,
	}
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算します。
// yは使用されません。
func (s *StandardScaler) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if s.State == nil {
		s.State = model.NewStateManager()
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	}

	for j := 0; j < c; j++ {
		s.Scale[j] = 1.0
	}
	if s.WithStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			scale := math.Sqrt(sumSquares / float64(r))
			// 定数特徴量はゼロ除算を避けるため1のまま
			if scale > 1e-8 {
				s.Scale[j] = scale
			}
		}
	}

	s.State.SetDimensions(c, r)
	s.State.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化します。
// 学習後の呼び出しはゴルーチンセーフです。
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if s.State == nil || !s.State.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.Transform", len(s.Mean), c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return result, nil
}

// InverseTransform は標準化されたデータを元のスケールに戻します。
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if s.State == nil || !s.State.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", len(s.Mean), c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return result, nil
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）に変換する
// トランスフォーマーです。model.Transformer を実装しています。
type MinMaxScaler struct {
	State *model.StateManager

	// DataMin は学習データの各特徴量の最小値
	DataMin []float64
	// Scale は各特徴量のスケール (max - min)
	Scale []float64
	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は[0,1]範囲のMinMaxScalerを作成します。
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{
		State:        model.NewStateManager(),
		FeatureRange: [2]float64{0, 1},
	}
}

// Fit は訓練データから各特徴量の最小値・最大値を計算します。
// yは使用されません。
func (m *MinMaxScaler) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if m.State == nil {
		m.State = model.NewStateManager()
	}

	m.DataMin = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		lo, hi := X.At(0, j), X.At(0, j)
		for i := 1; i < r; i++ {
			v := X.At(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		m.DataMin[j] = lo
		// 定数特徴量はゼロ除算を避けるためスケール1
		if hi-lo < 1e-8 {
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = hi - lo
		}
	}

	m.State.SetDimensions(c, r)
	m.State.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングします。
// 学習後の呼び出しはゴルーチンセーフです。
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if m.State == nil || !m.State.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != len(m.DataMin) {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", len(m.DataMin), c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			std := (X.At(i, j) - m.DataMin[j]) / m.Scale[j]
			result.Set(i, j, std*span+m.FeatureRange[0])
		}
	}
	return result, nil
}
