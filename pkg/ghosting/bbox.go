package ghosting

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultSignalFraction is the share of the peak intensity a pixel must
// exceed to count as phantom signal.
const DefaultSignalFraction = 0.5

// FindSignalBoundingBox locates the phantom in img and returns the box that
// contains it. It assumes the phantom signal is at least half of the image
// maximum.
func FindSignalBoundingBox(img mat.Matrix) (BoundingBox, error) {
	return findSignalBoundingBox(img, DefaultSignalFraction)
}

func findSignalBoundingBox(img mat.Matrix, fraction float64) (BoundingBox, error) {
	rows, cols := img.Dims()
	if rows == 0 || cols == 0 {
		return BoundingBox{}, fmt.Errorf("%w: image has no pixels", ErrEmptySignal)
	}

	limit := mat.Max(img) * fraction

	minRow, maxRow := rows, -1
	minCol, maxCol := cols, -1
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if img.At(r, c) <= limit {
				continue
			}
			minRow = min(minRow, r)
			maxRow = max(maxRow, r)
			minCol = min(minCol, c)
			maxCol = max(maxCol, c)
		}
	}

	if maxRow < 0 {
		return BoundingBox{}, fmt.Errorf("%w: no pixel exceeds %.3g", ErrEmptySignal, limit)
	}

	// Step one pixel outward so the box contains the signal
	return BoundingBox{
		Left:   minCol - 1,
		Right:  maxCol + 1,
		Top:    minRow - 1,
		Bottom: maxRow + 1,
	}, nil
}
