// Package ghosting computes the IPEM Report 112 ghosting metric for a single
// MRI phantom slice.
//
// The pipeline thresholds the image to find the phantom, places a signal
// window at its centre, fans four background windows out along the phase
// encoding axis, searches the far side of the image for the brightest ghost
// window, and combines the three region means into a percentage. Every
// function here is pure: nothing is cached between calls and no I/O is done.
package ghosting

import (
	"image"
	"math"
)

// Point is a pixel coordinate. Col is the x axis, Row the y axis.
type Point struct {
	Col int
	Row int
}

// Dims holds image dimensions in pixels
type Dims struct {
	Rows int
	Cols int
}

// BoundingBox is the box that contains the phantom signal. It sits one pixel
// outside the outermost over-threshold pixels, so it may extend one pixel
// past the image edge.
type BoundingBox struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Centre returns the box midpoint using floor division
func (b BoundingBox) Centre() Point {
	return Point{
		Col: floorDiv(b.Left+b.Right, 2),
		Row: floorDiv(b.Top+b.Bottom, 2),
	}
}

// Rect returns the box as an image rectangle with inclusive corners mapped
// to Min and Max
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// ROI is a square window of side 2*Radius centred on Centre. It covers
// columns [Centre.Col-Radius, Centre.Col+Radius) and the same for rows.
type ROI struct {
	Centre Point
	Radius int
}

// Rect returns the half-open pixel rectangle covered by the window
func (r ROI) Rect() image.Rectangle {
	return image.Rect(
		r.Centre.Col-r.Radius, r.Centre.Row-r.Radius,
		r.Centre.Col+r.Radius, r.Centre.Row+r.Radius,
	)
}

// Area is a half-open range of candidate window centres:
// columns [ColMin, ColMax) and rows [RowMin, RowMax).
type Area struct {
	ColMin, ColMax int
	RowMin, RowMax int
}

// Empty reports whether the area holds no centre at all
func (a Area) Empty() bool {
	return a.ColMin >= a.ColMax || a.RowMin >= a.RowMax
}

// Rect returns the area as an image rectangle
func (a Area) Rect() image.Rectangle {
	return image.Rect(a.ColMin, a.RowMin, a.ColMax, a.RowMax)
}

// sliceRadius turns a window size into the half-size used for indexing
func sliceRadius(size int) int {
	return roundHalfEven(float64(size) / 2)
}

// roundHalfEven rounds to the nearest integer, ties to even. Window and
// background placement depend on it for odd-sized boxes.
func roundHalfEven(x float64) int {
	return int(math.RoundToEven(x))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
