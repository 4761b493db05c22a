package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なコンポーネントのインターフェース
type Fitter interface {
	// Fit はコンポーネントを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator はアンサンブル層が消費する推定器の能力契約。
// サードパーティのアルゴリズムは境界で一度この契約に適合させる。
type Estimator interface {
	Fitter
	Predictor
}

// Probabilistic はクラス確率を出力できる推定器のインターフェース。
// 層が確率出力モードで動作する場合、Predict の代わりに呼び出される。
type Probabilistic interface {
	Estimator

	// PredictProba は各クラスの確率推定値を返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}
