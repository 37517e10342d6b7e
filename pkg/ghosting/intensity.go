package ghosting

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// GhostIntensity applies the IPEM Report 112 ghosting formula
//
//	ghosting = 100 * (mean(ghost) - mean(noise)) / mean(phantom)
//
// and returns the result as a percentage. The phantom must be the brightest
// of the three regions.
func GhostIntensity(ghost, phantom, noise mat.Matrix) (float64, error) {
	ghostValues, err := regionValues("ghost", ghost)
	if err != nil {
		return 0, err
	}
	phantomValues, err := regionValues("phantom", phantom)
	if err != nil {
		return 0, err
	}
	noiseValues, err := regionValues("noise", noise)
	if err != nil {
		return 0, err
	}

	ghostMean := stat.Mean(ghostValues, nil)
	phantomMean := stat.Mean(phantomValues, nil)
	noiseMean := stat.Mean(noiseValues, nil)

	if phantomMean < ghostMean || phantomMean < noiseMean {
		return 0, fmt.Errorf("%w: phantom mean %.4g is below ghost mean %.4g or noise mean %.4g",
			ErrInconsistentSignal, phantomMean, ghostMean, noiseMean)
	}

	return 100 * (ghostMean - noiseMean) / phantomMean, nil
}

// regionValues flattens a region and checks that it is usable pixel data
func regionValues(name string, m mat.Matrix) ([]float64, error) {
	if isNil(m) {
		return nil, fmt.Errorf("%w: %s region is nil", ErrMissingRegion, name)
	}
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: %s region is empty", ErrMissingRegion, name)
	}

	values := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %s region holds %v at (%d, %d)", ErrInvalidRegionType, name, v, r, c)
			}
			values = append(values, v)
		}
	}
	return values, nil
}

// isNil also catches a typed nil *mat.Dense stored in the interface
func isNil(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	if d, ok := m.(*mat.Dense); ok {
		return d == nil || d.IsEmpty()
	}
	if v, ok := m.(*mat.VecDense); ok {
		return v == nil || v.IsEmpty()
	}
	return false
}
