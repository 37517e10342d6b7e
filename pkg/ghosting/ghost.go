package ghosting

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"mrighosting/internal/models"
)

// DefaultGhostPadding is the gap in pixels kept between the phantom and the
// ghost search area along the phase encoding axis.
const DefaultGhostPadding = 30

// DefaultMaxPaddingFraction is the share of the phase axis length the
// padding falls back to when the full padding leaves no search area.
const DefaultMaxPaddingFraction = 0.125

// EligibleArea returns the range of window centres searched for the ghost.
//
// The area lies on the side of the image opposite the phantom along the phase
// encoding axis, at least padding pixels from the box, and spans the box
// along the other axis. Centres closer than radius to any edge are excluded.
func EligibleArea(bbox BoundingBox, pe models.PhaseEncodingDirection, dims Dims, radius, padding int) (Area, error) {
	var a Area

	if pe == models.Row {
		if float64(bbox.Left) < float64(dims.Cols)/2 {
			a.ColMin, a.ColMax = bbox.Right+padding, dims.Cols-radius
		} else {
			a.ColMin, a.ColMax = radius, bbox.Left-padding
		}
		a.RowMin, a.RowMax = bbox.Top, bbox.Bottom
	} else {
		if float64(bbox.Top) < float64(dims.Rows)/2 {
			a.RowMin, a.RowMax = bbox.Bottom+padding, dims.Rows-radius
		} else {
			a.RowMin, a.RowMax = radius, bbox.Top-padding
		}
		a.ColMin, a.ColMax = bbox.Left, bbox.Right
	}

	// keep every window inside the image
	a.ColMin, a.ColMax = max(a.ColMin, radius), min(a.ColMax, dims.Cols-radius)
	a.RowMin, a.RowMax = max(a.RowMin, radius), min(a.RowMax, dims.Rows-radius)

	if a.Empty() {
		return a, fmt.Errorf("%w: phantom box %+v leaves no %s-direction centres in %dx%d image",
			ErrEmptySearchArea, bbox, pe, dims.Rows, dims.Cols)
	}
	return a, nil
}

// FindGhostSlice returns the size x size window with the highest mean
// intensity inside the eligible ghost area, using the default padding.
func FindGhostSlice(img mat.Matrix, bbox BoundingBox, pe models.PhaseEncodingDirection, size int) (ROI, error) {
	search, err := searchGhost(img, bbox, pe, sliceRadius(size), DefaultGhostPadding, DefaultMaxPaddingFraction)
	return search.roi, err
}

// ghostSearch is the outcome of searchGhost
type ghostSearch struct {
	roi     ROI
	area    Area
	padding int
	capped  bool
}

// searchGhost locates the ghost with the full padding. Only when that
// leaves no search area is the padding reduced to fraction of the phase
// axis length and the search repeated.
func searchGhost(img mat.Matrix, bbox BoundingBox, pe models.PhaseEncodingDirection, radius, padding int, fraction float64) (ghostSearch, error) {
	roi, area, err := locateGhost(img, bbox, pe, radius, padding)
	if !errors.Is(err, ErrEmptySearchArea) {
		return ghostSearch{roi: roi, area: area, padding: padding}, err
	}

	rows, cols := img.Dims()
	capped := cappedPadding(padding, fraction, pe, Dims{Rows: rows, Cols: cols})
	if capped >= padding {
		return ghostSearch{area: area, padding: padding}, err
	}

	roi, area, err = locateGhost(img, bbox, pe, radius, capped)
	return ghostSearch{roi: roi, area: area, padding: capped, capped: true}, err
}

func locateGhost(img mat.Matrix, bbox BoundingBox, pe models.PhaseEncodingDirection, radius, padding int) (ROI, Area, error) {
	rows, cols := img.Dims()
	area, err := EligibleArea(bbox, pe, Dims{Rows: rows, Cols: cols}, radius, padding)
	if err != nil {
		return ROI{}, area, err
	}

	sums := newSummedArea(img)
	best := math.Inf(-1)
	var centre Point
	for r := area.RowMin; r < area.RowMax; r++ {
		for c := area.ColMin; c < area.ColMax; c++ {
			// every window has the same area, so the largest sum is the largest mean
			s := sums.sum(r-radius, c-radius, r+radius, c+radius)
			if s > best {
				best = s
				centre = Point{Col: c, Row: r}
			}
		}
	}

	return ROI{Centre: centre, Radius: radius}, area, nil
}

// cappedPadding limits padding to fraction of the phase axis length.
// A zero fraction disables the limit.
func cappedPadding(padding int, fraction float64, pe models.PhaseEncodingDirection, dims Dims) int {
	if fraction <= 0 {
		return padding
	}
	length := dims.Cols
	if pe == models.Column {
		length = dims.Rows
	}
	return min(padding, int(fraction*float64(length)))
}

// summedArea is a summed-area table: at (r, c) it holds the sum of all
// pixels above and to the left, exclusive.
type summedArea struct {
	table []float64
	width int
}

func newSummedArea(img mat.Matrix) *summedArea {
	rows, cols := img.Dims()
	width := cols + 1
	t := make([]float64, (rows+1)*width)
	for r := 0; r < rows; r++ {
		var rowSum float64
		for c := 0; c < cols; c++ {
			rowSum += img.At(r, c)
			t[(r+1)*width+c+1] = t[r*width+c+1] + rowSum
		}
	}
	return &summedArea{table: t, width: width}
}

// sum returns the pixel sum over rows [r0, r1) and columns [c0, c1)
func (s *summedArea) sum(r0, c0, r1, c1 int) float64 {
	w := s.width
	return s.table[r1*w+c1] - s.table[r0*w+c1] - s.table[r1*w+c0] + s.table[r0*w+c0]
}
