package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"mrighosting/pkg/ghosting"
)

// OutlineColor is the colour every region outline is drawn in
var OutlineColor = color.RGBA{R: 255, A: 255}

// Overlay draws ghosting regions on top of an acquisition for visual review.
// It never feeds back into the numeric result.
type Overlay struct {
	// pixels holds the raw intensity grid
	pixels mat.Matrix

	// dimensions of the image
	width  int
	height int
}

// NewOverlay creates an overlay renderer for the given intensity grid
func NewOverlay(pixels mat.Matrix) *Overlay {
	rows, cols := pixels.Dims()
	return &Overlay{
		pixels: pixels,
		width:  cols,
		height: rows,
	}
}

// Base rescales the intensities to 8 bits, pixel*255/max, and returns them
// as an RGBA image ready for drawing
func (o *Overlay) Base() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, o.width, o.height))
	if o.width == 0 || o.height == 0 {
		return img
	}

	peak := mat.Max(o.pixels)

	for y := 0; y < o.height; y++ {
		for x := 0; x < o.width; x++ {
			var v uint8
			if peak > 0 {
				v = uint8(math.Max(0, math.Min(255, o.pixels.At(y, x)*255/peak)))
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// Render returns the rescaled image with every outline drawn as a one pixel
// rectangle. Outline rectangles are inclusive, so Min and Max corners are
// both drawn; parts outside the image are clipped.
func (o *Overlay) Render(outlines []ghosting.Outline) *image.RGBA {
	img := o.Base()
	for _, outline := range outlines {
		drawRect(img, outline.Rect, OutlineColor)
	}
	return img
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	bounds := img.Bounds()
	set := func(x, y int) {
		if (image.Point{X: x, Y: y}).In(bounds) {
			img.SetRGBA(x, y, c)
		}
	}
	for x := r.Min.X; x <= r.Max.X; x++ {
		set(x, r.Min.Y)
		set(x, r.Max.Y)
	}
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		set(r.Min.X, y)
		set(r.Max.X, y)
	}
}

// Save writes img to filename. The encoder is chosen from the extension:
// .jpg and .jpeg use JPEG, anything else PNG.
func Save(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(file, img)
	}
}

// SaveOverlay renders the regions of one pipeline result over pixels and
// writes the image to filename
func SaveOverlay(pixels mat.Matrix, regions ghosting.Regions, filename string) error {
	img := NewOverlay(pixels).Render(regions.Outlines())
	if err := Save(img, filename); err != nil {
		return fmt.Errorf("failed to save overlay %s: %w", filename, err)
	}
	return nil
}
