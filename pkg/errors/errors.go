// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 並列なfitパスで発生する回復可能な警告と致命的エラーを型で区別し、
// 構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex sync.Mutex
	// ユーザー設定のハンドラ。nilの場合は構造化ログにフォールバックする
	warningHandler func(w error)
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// これにより、ScoringErrorなどの回復可能な警告の処理方法を制御できます。
// 設定されたハンドラは構造化ログより優先されます。nilを渡すと解除されます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// ユーザー設定のハンドラがあればそれを使用し、なければzerologの構造化ログ、
// それもなければ標準エラー出力に出力します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if warningHandler != nil {
		warningHandler(w)
		return
	}
	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	log.Printf("stackgo-Warning: %v\n", w)
}

// ===========================================================================
//
//	キャッシュ関連のエラー型
//
// ===========================================================================

// CacheMissError はキャッシュエントリがまだ存在しない場合のエラーです。
// 書き込み側とのレースでは正常な状態であり、呼び出し側はリトライしてよい。
type CacheMissError struct {
	Key  string
	Path string
}

func (e *CacheMissError) Error() string {
	return fmt.Sprintf("stackgo: cache entry %q not found at %s", e.Key, e.Path)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *CacheMissError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("cache_key", e.Key).
		Str("path", e.Path).
		Str("type", "CacheMissError")
}

// NewCacheMissError は新しいCacheMissErrorを作成します。
// リトライループのホットパスで使われるため、スタックトレースは付与しません。
func NewCacheMissError(key, path string) error {
	return &CacheMissError{Key: key, Path: path}
}

// IsCacheMiss はエラーがキャッシュミスかどうかを判定します。
func IsCacheMiss(err error) bool {
	var miss *CacheMissError
	return errors.As(err, &miss)
}

// CacheTimeoutError は必要なキャッシュエントリが待機上限内に可視化しなかった
// 場合のエラーです。猶予期間を使い切った後は常に致命的です。
type CacheTimeoutError struct {
	Key     string
	Path    string
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *CacheTimeoutError) Error() string {
	return fmt.Sprintf("stackgo: cache entry %q not found after %v of waiting (limit %v). "+
		"Check that transformers fit quickly enough to complete before estimators start. "+
		"Consider reducing preprocessing intensity or increasing the wait limit.",
		e.Key, e.Elapsed, e.Limit)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *CacheTimeoutError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("cache_key", e.Key).
		Str("path", e.Path).
		Dur("elapsed", e.Elapsed).
		Dur("limit", e.Limit).
		Str("type", "CacheTimeoutError")
}

// NewCacheTimeoutError は新しいCacheTimeoutErrorを作成し、スタックトレースを付与します。
func NewCacheTimeoutError(key, path string, elapsed, limit time.Duration) error {
	err := &CacheTimeoutError{Key: key, Path: path, Elapsed: elapsed, Limit: limit}
	return errors.WithStack(err)
}

// AssemblyError はフェーズバリア通過後に期待されるキャッシュエントリが
// 存在しない場合のエラーです。フェーズ同期の欠陥を示し、常に致命的です。
type AssemblyError struct {
	Key  string
	Path string
	Err  error
}

func (e *AssemblyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stackgo: assembly: cache entry %q missing or unreadable at %s "+
			"after all jobs completed: %v", e.Key, e.Path, e.Err)
	}
	return fmt.Sprintf("stackgo: assembly: cache entry %q missing at %s after all jobs completed",
		e.Key, e.Path)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *AssemblyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("cache_key", e.Key).
		Str("path", e.Path).
		Str("type", "AssemblyError")
}

// NewAssemblyError は新しいAssemblyErrorを作成し、スタックトレースを付与します。
func NewAssemblyError(key, path string, err error) error {
	aerr := &AssemblyError{Key: key, Path: path, Err: err}
	return errors.WithStack(aerr)
}

// ===========================================================================
//
//	推定・採点関連のエラー型
//
// ===========================================================================

// ScoringError は採点関数が失敗した場合の警告です。
// 常にローカルで回復され、スコアは欠損として記録されます。
type ScoringError struct {
	Layer    string
	Instance string
	Err      error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("[%s] could not score %s: %v", e.Layer, e.Instance, e.Err)
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (e *ScoringError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("layer", e.Layer).
		Str("instance", e.Instance).
		Str("type", "ScoringError")
}

// NewScoringError は新しいScoringErrorを作成します。
func NewScoringError(layer, instance string, err error) *ScoringError {
	return &ScoringError{Layer: layer, Instance: instance, Err: err}
}

// NotFittedError は層やモデルが未学習の状態で `Predict` や `Transform` を
// 呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("stackgo: %s: this component is not fitted yet. Call Fit() before using %s()",
		e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("stackgo: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("stackgo: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は学習コンポーネントに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stackgo: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("stackgo: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
