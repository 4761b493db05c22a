package ensemble

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// FoldKind tags a FoldSpec variant.
type FoldKind uint8

const (
	// FoldAll selects every row of the dataset.
	FoldAll FoldKind = iota
	// FoldRange selects one contiguous half-open interval of rows.
	FoldRange
	// FoldScattered selects the concatenation of several half-open intervals.
	FoldScattered
)

// Interval is a half-open row interval [Start, End) in absolute coordinates
// of the full dataset.
type Interval struct {
	Start int
	End   int
}

// FoldSpec identifies a subset of rows for training or holdout.
// Intervals are half-open, non-overlapping, and expressed in absolute row
// coordinates of the full dataset, never of an output buffer.
type FoldSpec struct {
	Kind      FoldKind
	Intervals []Interval
}

// AllRows returns the spec selecting the entire dataset.
func AllRows() FoldSpec {
	return FoldSpec{Kind: FoldAll}
}

// RowRange returns the spec selecting the contiguous interval [start, end).
func RowRange(start, end int) FoldSpec {
	return FoldSpec{Kind: FoldRange, Intervals: []Interval{{Start: start, End: end}}}
}

// ScatteredRows returns the spec selecting the concatenation of the given
// intervals. A single interval collapses to the contiguous variant so the
// zero-copy slicing path applies; an empty interval list selects no rows.
func ScatteredRows(intervals ...Interval) FoldSpec {
	if len(intervals) == 1 {
		return RowRange(intervals[0].Start, intervals[0].End)
	}
	ivs := make([]Interval, len(intervals))
	copy(ivs, intervals)
	return FoldSpec{Kind: FoldScattered, Intervals: ivs}
}

// String returns a compact description for logs.
func (s FoldSpec) String() string {
	switch s.Kind {
	case FoldAll:
		return "all"
	case FoldRange:
		return fmt.Sprintf("[%d:%d)", s.Intervals[0].Start, s.Intervals[0].End)
	default:
		parts := make([]string, len(s.Intervals))
		for i, iv := range s.Intervals {
			parts[i] = fmt.Sprintf("[%d:%d)", iv.Start, iv.End)
		}
		return strings.Join(parts, "+")
	}
}

// NumRows returns the number of rows the spec selects on a dataset of the
// given total size.
func (s FoldSpec) NumRows(total int) int {
	if s.Kind == FoldAll {
		return total
	}
	n := 0
	for _, iv := range s.Intervals {
		n += iv.End - iv.Start
	}
	return n
}

// rowIntervals resolves the spec to explicit intervals on a dataset of the
// given total size.
func (s FoldSpec) rowIntervals(total int) []Interval {
	if s.Kind == FoldAll {
		return []Interval{{Start: 0, End: total}}
	}
	return s.Intervals
}

// validate checks interval ordering against the given total row count after
// shifting by the row offset r.
func (s FoldSpec) validate(op string, total, r int) error {
	for _, iv := range s.Intervals {
		lo, hi := iv.Start-r, iv.End-r
		if lo < 0 || hi < lo || hi > total {
			return errors.NewValueError(op,
				fmt.Sprintf("interval [%d:%d) out of bounds for %d rows (offset %d)",
					iv.Start, iv.End, total, r))
		}
	}
	return nil
}

// overlaps reports whether any interval of a intersects any interval of b.
func intervalsOverlap(a, b []Interval) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Start < y.End && y.Start < x.End {
				return true
			}
		}
	}
	return false
}

// RowSlicer is implemented by matrices that can return a contiguous row
// window as a view without copying. *mat.Dense satisfies it.
type RowSlicer interface {
	Slice(i, k, j, l int) mat.Matrix
}

// Materializer is implemented by matrices whose backing storage must not be
// pinned past slicing, such as memory mapped files. The engine materializes
// such a matrix into an in-memory copy before handing it to a fit routine.
type Materializer interface {
	Materialize() *mat.Dense
}

func materialize(m mat.Matrix) mat.Matrix {
	if mm, ok := m.(Materializer); ok {
		return mm.Materialize()
	}
	return m
}

// SliceRows resolves spec into a concrete row selection over X, shifting
// absolute coordinates by the row offset r when X is itself a sub-window of
// the full dataset.
//
// The contiguous single-interval path returns a zero-copy view when X
// supports it; the multi-interval path gathers the rows of every interval in
// interval order and always copies. An empty scattered spec selects no rows.
func SliceRows(X mat.Matrix, spec FoldSpec, r int) (mat.Matrix, error) {
	if X == nil {
		return nil, nil
	}
	rows, cols := X.Dims()

	switch spec.Kind {
	case FoldAll:
		return materialize(X), nil

	case FoldRange:
		if err := spec.validate("SliceRows", rows, r); err != nil {
			return nil, err
		}
		lo, hi := spec.Intervals[0].Start-r, spec.Intervals[0].End-r
		if lo == hi {
			return &mat.Dense{}, nil
		}
		if v, ok := X.(RowSlicer); ok {
			return materialize(v.Slice(lo, hi, 0, cols)), nil
		}
		out := mat.NewDense(hi-lo, cols, nil)
		for i := lo; i < hi; i++ {
			for j := 0; j < cols; j++ {
				out.Set(i-lo, j, X.At(i, j))
			}
		}
		return out, nil

	default:
		if len(spec.Intervals) == 0 {
			return &mat.Dense{}, nil
		}
		if err := spec.validate("SliceRows", rows, r); err != nil {
			return nil, err
		}
		n := spec.NumRows(rows)
		if n == 0 {
			return &mat.Dense{}, nil
		}
		out := mat.NewDense(n, cols, nil)
		k := 0
		for _, iv := range spec.Intervals {
			for i := iv.Start - r; i < iv.End-r; i++ {
				for j := 0; j < cols; j++ {
					out.Set(k, j, X.At(i, j))
				}
				k++
			}
		}
		return out, nil
	}
}

// sliceXY slices X and an optional target y with one spec.
func sliceXY(X, y mat.Matrix, spec FoldSpec, r int) (mat.Matrix, mat.Matrix, error) {
	xs, err := SliceRows(X, spec, r)
	if err != nil {
		return nil, nil, err
	}
	ys, err := SliceRows(y, spec, r)
	if err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}
