package models

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestParsePhaseEncodingDirection(t *testing.T) {
	tests := map[string]PhaseEncodingDirection{
		"ROW":    Row,
		"row":    Row,
		"COL":    Column,
		" COL ":  Column,
		"COLUMN": Column,
	}
	for in, expected := range tests {
		got, err := ParsePhaseEncodingDirection(in)
		if err != nil {
			t.Errorf("%q: unexpected error %v", in, err)
			continue
		}
		if got != expected {
			t.Errorf("%q: expected %v, got %v", in, expected, got)
		}
	}

	if _, err := ParsePhaseEncodingDirection("OBLIQUE"); err == nil {
		t.Error("Expected an error for an unknown direction")
	}
}

func TestAcquisitionKey(t *testing.T) {
	acq := &Acquisition{
		SeriesDescription: "ghosting PE ROW",
		EchoTime:          "30",
		NumberOfAverages:  "1",
	}

	if got := acq.Key(); got != "ghosting_PE_ROW_30ms_NSA-1" {
		t.Errorf("Expected key ghosting_PE_ROW_30ms_NSA-1, got %s", got)
	}
	if got := acq.FigureName(); got != "ghosting PE ROW_30ms_NSA-1" {
		t.Errorf("Expected figure name with spaces, got %s", got)
	}
}

func TestAcquisitionValidate(t *testing.T) {
	acq := &Acquisition{Pixels: mat.NewDense(4, 6, nil), Rows: 4, Columns: 6}
	if err := acq.Validate(); err != nil {
		t.Errorf("Expected matching dimensions to validate, got %v", err)
	}

	acq.Columns = 5
	if err := acq.Validate(); err == nil {
		t.Error("Expected a dimension mismatch error")
	}

	if err := (&Acquisition{}).Validate(); err == nil {
		t.Error("Expected an error for missing pixel data")
	}
}
