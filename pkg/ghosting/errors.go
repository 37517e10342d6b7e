package ghosting

import "errors"

// Errors returned by the ghosting pipeline. Every one of them aborts the
// current image only; callers test for them with errors.Is and decide whether
// to carry on with the rest of a batch.
var (
	// ErrMissingRegion is returned when a ghost, phantom or noise region is nil or empty.
	ErrMissingRegion = errors.New("missing region")

	// ErrInvalidRegionType is returned when a region holds values that are not
	// finite pixel intensities.
	ErrInvalidRegionType = errors.New("invalid region type")

	// ErrInconsistentSignal is returned when the phantom mean is lower than the
	// ghost or noise mean.
	ErrInconsistentSignal = errors.New("inconsistent signal")

	// ErrEmptySignal is returned when no pixel exceeds the signal threshold.
	ErrEmptySignal = errors.New("empty signal")

	// ErrEmptySearchArea is returned when no candidate ghost window fits in
	// the image outside the padded phantom.
	ErrEmptySearchArea = errors.New("empty ghost search area")

	// ErrRegionOutOfBounds is returned when a sampling window leaves the image.
	ErrRegionOutOfBounds = errors.New("region out of bounds")
)
