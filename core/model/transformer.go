package model

import "gonum.org/v1/gonum/mat"

// Transformer はアンサンブル層が消費する前処理コンポーネントの能力契約。
// Transform は学習済みの状態を変更してはならず、並行呼び出しに対して安全で
// あること。
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する。y を使わない変換器は無視してよい
	Fit(X, y mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// PairTransformer は入力と同時にターゲットも書き換える変換器のインターフェース。
// 実装されている場合、層は Transform の代わりに TransformPair を呼び出す。
type PairTransformer interface {
	Transformer

	// TransformPair は X と y を変換して返す
	TransformPair(X, y mat.Matrix) (X2, y2 mat.Matrix, err error)
}
