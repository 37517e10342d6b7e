package ghosting

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"mrighosting/internal/models"
)

// DefaultSliceSize is the side length of every sampling window in pixels
const DefaultSliceSize = 10

// backgroundCount is the number of noise windows placed per image
const backgroundCount = 4

// SignalSlice returns the size x size phantom window centred on bbox.
func SignalSlice(bbox BoundingBox, size int) ROI {
	centre := Point{
		Col: bbox.Left + roundHalfEven(float64(bbox.Right-bbox.Left)/2),
		Row: bbox.Top + roundHalfEven(float64(bbox.Bottom-bbox.Top)/2),
	}
	return ROI{Centre: centre, Radius: sliceRadius(size)}
}

// BackgroundROIs returns the centres of the four noise windows.
//
// The windows sit on a single line perpendicular to the phase encoding axis,
// in the quarter of the image opposite the phantom, and fan out along the
// phase axis away from the image centre.
func BackgroundROIs(pe models.PhaseEncodingDirection, dims Dims, centre Point) []Point {
	points := make([]Point, 0, backgroundCount)

	if pe == models.Row {
		row := roundHalfEven(float64(dims.Rows) * 0.25)
		if float64(centre.Row) < float64(dims.Rows)*0.5 {
			// phantom in the top half, sample the bottom quarter
			row = roundHalfEven(float64(dims.Rows) * 0.75)
		}

		if centre.Col > roundHalfEven(float64(dims.Cols)/2) {
			gap := roundHalfEven(float64(centre.Col) / backgroundCount)
			for i := 0; i < backgroundCount; i++ {
				points = append(points, Point{Col: centre.Col - i*gap, Row: row})
			}
		} else {
			gap := roundHalfEven(float64(dims.Cols-centre.Col) / backgroundCount)
			for i := 0; i < backgroundCount; i++ {
				points = append(points, Point{Col: centre.Col + i*gap, Row: row})
			}
		}
		return points
	}

	col := roundHalfEven(float64(dims.Cols) * 0.25)
	if float64(centre.Col) < float64(dims.Cols)*0.5 {
		// phantom in the left half, sample the right quarter
		col = roundHalfEven(float64(dims.Cols) * 0.75)
	}

	if centre.Row >= roundHalfEven(float64(dims.Rows)/2) {
		gap := roundHalfEven(float64(centre.Row) / backgroundCount)
		for i := 0; i < backgroundCount; i++ {
			points = append(points, Point{Col: col, Row: centre.Row - i*gap})
		}
	} else {
		gap := roundHalfEven(float64(dims.Rows-centre.Row) / backgroundCount)
		for i := 0; i < backgroundCount; i++ {
			points = append(points, Point{Col: col, Row: centre.Row + i*gap})
		}
	}
	return points
}

// BackgroundSlices turns background centres into size x size windows
func BackgroundSlices(points []Point, size int) []ROI {
	radius := sliceRadius(size)
	slices := make([]ROI, len(points))
	for i, p := range points {
		slices[i] = ROI{Centre: p, Radius: radius}
	}
	return slices
}

// Extract returns a view of img covered by roi. The window must lie inside
// the image.
func Extract(img *mat.Dense, roi ROI) (*mat.Dense, error) {
	rows, cols := img.Dims()
	rect := roi.Rect()
	if rect.Empty() {
		return nil, fmt.Errorf("%w: window %v has no pixels", ErrMissingRegion, rect)
	}
	if rect.Min.X < 0 || rect.Min.Y < 0 || rect.Max.X > cols || rect.Max.Y > rows {
		return nil, fmt.Errorf("%w: window %v outside %dx%d image", ErrRegionOutOfBounds, rect, rows, cols)
	}
	return img.Slice(rect.Min.Y, rect.Max.Y, rect.Min.X, rect.Max.X).(*mat.Dense), nil
}

// stack joins regions of equal width into one tall matrix
func stack(regions []*mat.Dense) (*mat.Dense, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("%w: no regions to stack", ErrMissingRegion)
	}
	_, width := regions[0].Dims()
	height := 0
	for _, r := range regions {
		rr, rc := r.Dims()
		if rc != width {
			return nil, fmt.Errorf("cannot stack regions of width %d and %d", width, rc)
		}
		height += rr
	}

	out := mat.NewDense(height, width, nil)
	offset := 0
	for _, r := range regions {
		rr, _ := r.Dims()
		out.Slice(offset, offset+rr, 0, width).(*mat.Dense).Copy(r)
		offset += rr
	}
	return out, nil
}
