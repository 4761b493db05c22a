package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
)

// コンパイル時のインタフェース実装チェック
var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MinMaxScaler)(nil)
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 10,
		2, 10,
		4, 10,
		6, 10,
	})

	s := NewStandardScaler()
	if err := s.Fit(X, nil); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	got, err := s.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	// 第1列は平均3、標準偏差sqrt(5)で標準化される
	std := math.Sqrt(5)
	for i := 0; i < 4; i++ {
		want := (float64(2*i) - 3) / std
		if math.Abs(got.At(i, 0)-want) > 1e-9 {
			t.Errorf("col 0 row %d = %v, want %v", i, got.At(i, 0), want)
		}
		// 定数列はスケール1で平均のみ引かれ0になる
		if math.Abs(got.At(i, 1)) > 1e-9 {
			t.Errorf("constant col row %d = %v, want 0", i, got.At(i, 1))
		}
	}
}

func TestStandardScalerInverseTransform(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 5, 9})
	s := NewStandardScaler()
	if err := s.Fit(X, nil); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	scaled, err := s.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	back, err := s.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	if !mat.EqualApprox(X, back, 1e-9) {
		t.Errorf("round trip mismatch:\n%v", mat.Formatted(back))
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	s := NewStandardScaler()
	if _, err := s.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("expected error before Fit")
	}
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	s := NewStandardScaler()
	if err := s.Fit(mat.NewDense(3, 2, nil), nil); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := s.Transform(mat.NewDense(3, 5, nil)); err == nil {
		t.Error("expected error for feature count mismatch")
	}
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 7,
		5, 7,
		10, 7,
	})

	m := NewMinMaxScaler()
	if err := m.Fit(X, nil); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	got, err := m.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	want := []float64{0, 0.5, 1}
	for i := 0; i < 3; i++ {
		if math.Abs(got.At(i, 0)-want[i]) > 1e-9 {
			t.Errorf("col 0 row %d = %v, want %v", i, got.At(i, 0), want[i])
		}
		// 定数列は0に写像される
		if math.Abs(got.At(i, 1)) > 1e-9 {
			t.Errorf("constant col row %d = %v, want 0", i, got.At(i, 1))
		}
	}
}
