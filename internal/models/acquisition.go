package models

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// PhaseEncodingDirection is the in-plane phase-encoding axis of an acquisition.
// Ghost artifacts smear along this axis.
type PhaseEncodingDirection int

const (
	// Row means phase encoding runs left to right, increasing with columns.
	Row PhaseEncodingDirection = iota

	// Column means phase encoding runs top to bottom, increasing with rows.
	Column
)

// String returns the DICOM spelling of the direction
func (d PhaseEncodingDirection) String() string {
	switch d {
	case Row:
		return "ROW"
	case Column:
		return "COL"
	default:
		return fmt.Sprintf("PhaseEncodingDirection(%d)", int(d))
	}
}

// ParsePhaseEncodingDirection parses the InPlanePhaseEncodingDirection attribute.
// DICOM uses "ROW" and "COL"; "COLUMN" is accepted as well.
func ParsePhaseEncodingDirection(s string) (PhaseEncodingDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ROW":
		return Row, nil
	case "COL", "COLUMN":
		return Column, nil
	default:
		return Row, fmt.Errorf("unknown phase encoding direction %q", s)
	}
}

// Acquisition represents a single decoded MRI slice with the metadata
// needed to analyse and name it
type Acquisition struct {
	// Pixels is the raw intensity grid, rows x columns
	Pixels *mat.Dense

	// Rows and Columns are the image dimensions reported by the file
	Rows    int
	Columns int

	// PhaseEncoding governs where background and ghost regions are placed
	PhaseEncoding PhaseEncodingDirection

	// SeriesDescription is the human-readable series label
	SeriesDescription string

	// SeriesInstanceUID identifies the series the slice belongs to
	SeriesInstanceUID string

	// EchoTime is kept as its decimal string so keys match the file exactly
	EchoTime string

	// NumberOfAverages is the NSA, kept as its decimal string
	NumberOfAverages string

	// Path is the file the acquisition was read from
	Path string
}

// Key returns the result key for this acquisition, built from its series
// label, echo time and number of averages.
func (a *Acquisition) Key() string {
	return fmt.Sprintf("%s_%sms_NSA-%s",
		strings.ReplaceAll(a.SeriesDescription, " ", "_"), a.EchoTime, a.NumberOfAverages)
}

// FigureName returns the base name used for the diagnostic overlay.
// Unlike Key it keeps spaces in the series label.
func (a *Acquisition) FigureName() string {
	return fmt.Sprintf("%s_%sms_NSA-%s", a.SeriesDescription, a.EchoTime, a.NumberOfAverages)
}

// Validate checks that the pixel grid agrees with the reported dimensions
func (a *Acquisition) Validate() error {
	if a.Pixels == nil {
		return fmt.Errorf("acquisition %s has no pixel data", a.Path)
	}
	r, c := a.Pixels.Dims()
	if r != a.Rows || c != a.Columns {
		return fmt.Errorf("acquisition %s: pixel grid is %dx%d but metadata reports %dx%d",
			a.Path, r, c, a.Rows, a.Columns)
	}
	return nil
}
