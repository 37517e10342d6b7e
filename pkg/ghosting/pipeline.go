package ghosting

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"mrighosting/internal/models"
)

// Options holds the tunable parameters of the pipeline
type Options struct {
	// SliceSize is the side length of the signal, ghost and background windows
	SliceSize int

	// GhostPadding is the minimum gap between phantom and ghost search area
	GhostPadding int

	// MaxPaddingFraction is the fallback padding, relative to the phase axis
	// length, used only when GhostPadding leaves no search area. Zero disables
	// the fallback.
	MaxPaddingFraction float64

	// SignalFraction is the share of the image maximum that marks phantom signal
	SignalFraction float64
}

// DefaultOptions returns the parameters used by IPEM Report 112 measurements
func DefaultOptions() Options {
	return Options{
		SliceSize:          DefaultSliceSize,
		GhostPadding:       DefaultGhostPadding,
		MaxPaddingFraction: DefaultMaxPaddingFraction,
		SignalFraction:     DefaultSignalFraction,
	}
}

// Validate checks that the options describe a usable pipeline
func (o Options) Validate() error {
	if o.SliceSize < 1 {
		return fmt.Errorf("slice size must be positive, got %d", o.SliceSize)
	}
	if o.GhostPadding < 0 {
		return fmt.Errorf("ghost padding must be non-negative, got %d", o.GhostPadding)
	}
	if o.MaxPaddingFraction < 0 || o.MaxPaddingFraction > 1 {
		return fmt.Errorf("max padding fraction must be within [0, 1], got %g", o.MaxPaddingFraction)
	}
	if o.SignalFraction <= 0 || o.SignalFraction >= 1 {
		return fmt.Errorf("signal fraction must be within (0, 1), got %g", o.SignalFraction)
	}
	return nil
}

// Pipeline computes ghosting for one image at a time. It holds no state
// besides its options and is safe for concurrent use.
type Pipeline struct {
	opts Options
}

// New creates a pipeline with the given options
func New(opts Options) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts}, nil
}

// Options returns the pipeline parameters
func (p *Pipeline) Options() Options {
	return p.opts
}

// Regions records where each sample was taken and what it measured
type Regions struct {
	BoundingBox  BoundingBox
	Centre       Point
	Signal       ROI
	Ghost        ROI
	Background   []ROI
	EligibleArea Area

	// GhostPadding is the padding the ghost search ran with
	GhostPadding int

	// PaddingCapped is set when the configured padding left no search area
	// and the fallback was used
	PaddingCapped bool

	PhantomMean float64
	GhostMean   float64
	NoiseMean   float64
}

// Result is the outcome of one pipeline run
type Result struct {
	// Ghosting is the ghosting percentage
	Ghosting float64

	// Regions describes the samples behind Ghosting
	Regions Regions
}

// Compute runs the full ghosting pipeline over img.
func (p *Pipeline) Compute(img mat.Matrix, pe models.PhaseEncodingDirection) (*Result, error) {
	if isNil(img) {
		return nil, fmt.Errorf("%w: image is nil or empty", ErrEmptySignal)
	}
	if r, c := img.Dims(); r == 0 || c == 0 {
		return nil, fmt.Errorf("%w: image is nil or empty", ErrEmptySignal)
	}
	pixels := mat.DenseCopyOf(img)
	rows, cols := pixels.Dims()
	dims := Dims{Rows: rows, Cols: cols}

	bbox, err := findSignalBoundingBox(pixels, p.opts.SignalFraction)
	if err != nil {
		return nil, err
	}
	centre := bbox.Centre()

	background := BackgroundSlices(BackgroundROIs(pe, dims, centre), p.opts.SliceSize)

	search, err := searchGhost(pixels, bbox, pe, sliceRadius(p.opts.SliceSize),
		p.opts.GhostPadding, p.opts.MaxPaddingFraction)
	if err != nil {
		return nil, err
	}
	ghostROI := search.roi

	signalROI := SignalSlice(bbox, p.opts.SliceSize)

	ghost, err := Extract(pixels, ghostROI)
	if err != nil {
		return nil, fmt.Errorf("ghost window: %w", err)
	}
	phantom, err := Extract(pixels, signalROI)
	if err != nil {
		return nil, fmt.Errorf("signal window: %w", err)
	}
	noiseWindows := make([]*mat.Dense, len(background))
	for i, roi := range background {
		if noiseWindows[i], err = Extract(pixels, roi); err != nil {
			return nil, fmt.Errorf("background window %d: %w", i, err)
		}
	}
	noise, err := stack(noiseWindows)
	if err != nil {
		return nil, err
	}

	ghosting, err := GhostIntensity(ghost, phantom, noise)
	if err != nil {
		return nil, err
	}

	return &Result{
		Ghosting: ghosting,
		Regions: Regions{
			BoundingBox:   bbox,
			Centre:        centre,
			Signal:        signalROI,
			Ghost:         ghostROI,
			Background:    background,
			EligibleArea:  search.area,
			GhostPadding:  search.padding,
			PaddingCapped: search.capped,
			PhantomMean:   mean(phantom),
			GhostMean:     mean(ghost),
			NoiseMean:     mean(noise),
		},
	}, nil
}

// ComputeAcquisition runs the pipeline over a decoded acquisition
func (p *Pipeline) ComputeAcquisition(acq *models.Acquisition) (*Result, error) {
	if err := acq.Validate(); err != nil {
		return nil, err
	}
	return p.Compute(acq.Pixels, acq.PhaseEncoding)
}

func mean(m *mat.Dense) float64 {
	rows, cols := m.Dims()
	values := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		values = append(values, m.RawRowView(r)...)
	}
	return stat.Mean(values, nil)
}

// RegionKind names what an outline marks
type RegionKind string

const (
	KindPhantom      RegionKind = "phantom"
	KindGhost        RegionKind = "ghost"
	KindBackground   RegionKind = "background"
	KindEligibleArea RegionKind = "eligible-area"
)

// Outline is one rectangle of the diagnostic overlay. Rect holds inclusive
// corners: both Min and Max lie on the outline. Window outlines therefore
// end one pixel before the half-open ROI bounds.
type Outline struct {
	Kind RegionKind
	Rect image.Rectangle
}

// Outlines describes the overlay for r: the phantom box, each background
// window, the ghost window and the searched area. Drawing is left to the
// caller.
func (r Regions) Outlines() []Outline {
	outlines := []Outline{{Kind: KindPhantom, Rect: r.BoundingBox.Rect()}}
	for _, roi := range r.Background {
		outlines = append(outlines, Outline{Kind: KindBackground, Rect: inclusive(roi.Rect())})
	}
	outlines = append(outlines,
		Outline{Kind: KindGhost, Rect: inclusive(r.Ghost.Rect())},
		Outline{Kind: KindEligibleArea, Rect: inclusive(r.EligibleArea.Rect())},
	)
	return outlines
}

// inclusive turns a half-open rectangle into one whose Max is the last
// covered pixel
func inclusive(r image.Rectangle) image.Rectangle {
	return image.Rectangle{Min: r.Min, Max: r.Max.Sub(image.Point{X: 1, Y: 1})}
}
