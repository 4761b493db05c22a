package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// WritePredictions places p into pred at the columns [col, col+width), where
// width is the second dimension of p, and at the rows selected by spec.
//
// rowOffset remaps the spec's absolute row coordinates into the buffer's
// coordinate space: a buffer holding only held-out predictions of an n-row
// dataset is written with rowOffset = n - bufferRows; a buffer covering every
// row is written with rowOffset 0. The offset is an explicit parameter so the
// buffer's coordinate space is always stated by the caller, never inferred.
//
// No two writers may target overlapping (rows, columns) regions within one
// pass. Partitioning the regions disjointly is the dispatcher's obligation;
// the writer itself takes no locks.
func WritePredictions(pred *mat.Dense, p mat.Matrix, spec FoldSpec, col, rowOffset int) error {
	if pred == nil {
		return errors.NewValueError("WritePredictions", "nil prediction buffer")
	}
	bufRows, bufCols := pred.Dims()
	pRows, width := p.Dims()

	if col < 0 || col+width > bufCols {
		return errors.NewDimensionError("WritePredictions", bufCols, col+width, 1)
	}

	if spec.Kind == FoldAll {
		if pRows != bufRows {
			return errors.NewDimensionError("WritePredictions", bufRows, pRows, 0)
		}
		for i := 0; i < bufRows; i++ {
			for j := 0; j < width; j++ {
				pred.Set(i, col+j, p.At(i, j))
			}
		}
		return nil
	}

	if spec.NumRows(bufRows) != pRows {
		return errors.NewDimensionError("WritePredictions", spec.NumRows(bufRows), pRows, 0)
	}
	if err := spec.validate("WritePredictions", bufRows, rowOffset); err != nil {
		return err
	}

	k := 0
	for _, iv := range spec.Intervals {
		for i := iv.Start - rowOffset; i < iv.End-rowOffset; i++ {
			for j := 0; j < width; j++ {
				pred.Set(i, col+j, p.At(k, j))
			}
			k++
		}
	}
	return nil
}
