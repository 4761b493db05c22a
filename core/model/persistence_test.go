package model

import (
	"bytes"
	"encoding/gob"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// stubEstimator は永続化テスト用の最小限のEstimator実装
type stubEstimator struct {
	Bias float64
}

func (s *stubEstimator) Fit(X, y mat.Matrix) error { return nil }
func (s *stubEstimator) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, s.Bias)
	}
	return out, nil
}

func init() {
	gob.Register(&stubEstimator{})
}

func TestSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")

	in := &stubEstimator{Bias: 1.25}
	if err := SaveModel(in, path); err != nil {
		t.Fatalf("SaveModel failed: %v", err)
	}

	out := &stubEstimator{}
	if err := LoadModel(out, path); err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}
	if out.Bias != 1.25 {
		t.Errorf("Bias = %v, want 1.25", out.Bias)
	}
}

func TestSaveLoadModelInterfaceValue(t *testing.T) {
	// インタフェース値として保存しても具象型が復元されること
	path := filepath.Join(t.TempDir(), "model.gob")

	var est Estimator = &stubEstimator{Bias: 2.5}
	if err := SaveModel(&est, path); err != nil {
		t.Fatalf("SaveModel failed: %v", err)
	}

	var restored Estimator
	if err := LoadModel(&restored, path); err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}
	stub, ok := restored.(*stubEstimator)
	if !ok {
		t.Fatalf("restored type = %T, want *stubEstimator", restored)
	}
	if stub.Bias != 2.5 {
		t.Errorf("Bias = %v, want 2.5", stub.Bias)
	}
}

func TestSaveLoadModelWriterReader(t *testing.T) {
	var buf bytes.Buffer
	if err := SaveModelToWriter(&stubEstimator{Bias: 3}, &buf); err != nil {
		t.Fatalf("SaveModelToWriter failed: %v", err)
	}

	out := &stubEstimator{}
	if err := LoadModelFromReader(out, &buf); err != nil {
		t.Fatalf("LoadModelFromReader failed: %v", err)
	}
	if out.Bias != 3 {
		t.Errorf("Bias = %v, want 3", out.Bias)
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	if err := LoadModel(&stubEstimator{}, filepath.Join(t.TempDir(), "absent.gob")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	if s.IsFitted() {
		t.Error("new manager must not be fitted")
	}
	if err := s.RequireFitted(); err == nil {
		t.Error("RequireFitted must fail before SetFitted")
	}

	s.SetDimensions(3, 100)
	s.SetFitted()
	if !s.IsFitted() {
		t.Error("SetFitted not observed")
	}
	nf, ns := s.GetDimensions()
	if nf != 3 || ns != 100 {
		t.Errorf("dimensions = (%d, %d), want (3, 100)", nf, ns)
	}

	s.Reset()
	if s.IsFitted() {
		t.Error("Reset must clear fitted state")
	}
}
