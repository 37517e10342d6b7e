package dicomio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"github.com/suyashkumar/dicom/pkg/uid"

	"mrighosting/internal/models"
)

// createTestDataset builds a single-frame 16 bit dataset holding the
// tags read by the loader
func createTestDataset(t *testing.T, rows, cols int, pe string, pixels []int) dicom.Dataset {
	t.Helper()

	data := make([][]int, len(pixels))
	for i, v := range pixels {
		data[i] = []int{v}
	}

	elems := []struct {
		tag   tag.Tag
		value any
	}{
		{tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}},
		{tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4.5.6.7"}},
		{tag.TransferSyntaxUID, []string{uid.ImplicitVRLittleEndian}},
		{tag.SeriesDescription, []string{"ax t1"}},
		{tag.SeriesInstanceUID, []string{"1.2.3.4"}},
		{tag.EchoTime, []string{"30"}},
		{tag.NumberOfAverages, []string{"2"}},
		{tag.InPlanePhaseEncodingDirection, []string{pe}},
		{tag.Rows, []int{rows}},
		{tag.Columns, []int{cols}},
		{tag.BitsAllocated, []int{16}},
		{tag.NumberOfFrames, []string{"1"}},
		{tag.SamplesPerPixel, []int{1}},
		{tag.PixelData, dicom.PixelDataInfo{
			Frames: []*frame.Frame{{
				NativeData: frame.NativeFrame{
					BitsPerSample: 16,
					Rows:          rows,
					Cols:          cols,
					Data:          data,
				},
			}},
		}},
	}

	ds := dicom.Dataset{}
	for _, e := range elems {
		elem, err := dicom.NewElement(e.tag, e.value)
		if err != nil {
			t.Fatalf("Failed to create element %v: %v", e.tag, err)
		}
		ds.Elements = append(ds.Elements, elem)
	}
	return ds
}

func TestFromDataset(t *testing.T) {
	ds := createTestDataset(t, 2, 2, "COL", []int{0, 10, 20, 30})

	acq, err := fromDataset(ds)
	if err != nil {
		t.Fatalf("Failed to read dataset: %v", err)
	}

	if acq.Key() != "ax_t1_30ms_NSA-2" {
		t.Errorf("Expected key ax_t1_30ms_NSA-2, got %s", acq.Key())
	}
	if acq.PhaseEncoding != models.Column {
		t.Errorf("Expected COL phase encoding, got %v", acq.PhaseEncoding)
	}
	if acq.SeriesInstanceUID != "1.2.3.4" {
		t.Errorf("Expected series UID 1.2.3.4, got %s", acq.SeriesInstanceUID)
	}
	if acq.Rows != 2 || acq.Columns != 2 {
		t.Fatalf("Expected 2x2 acquisition, got %dx%d", acq.Rows, acq.Columns)
	}
	expected := [][]float64{{0, 10}, {20, 30}}
	for r := range expected {
		for c, want := range expected[r] {
			if got := acq.Pixels.At(r, c); got != want {
				t.Errorf("Pixel (%d, %d): expected %v, got %v", r, c, want, got)
			}
		}
	}
	if err := acq.Validate(); err != nil {
		t.Errorf("Expected a valid acquisition, got %v", err)
	}
}

func TestFromDatasetErrors(t *testing.T) {
	t.Run("unknown phase encoding", func(t *testing.T) {
		ds := createTestDataset(t, 2, 2, "DIAGONAL", []int{0, 1, 2, 3})
		if _, err := fromDataset(ds); err == nil {
			t.Error("Expected an error for an unknown phase encoding direction")
		}
	})

	t.Run("missing pixel data", func(t *testing.T) {
		ds := createTestDataset(t, 2, 2, "ROW", []int{0, 1, 2, 3})
		var kept []*dicom.Element
		for _, e := range ds.Elements {
			if e.Tag != tag.PixelData {
				kept = append(kept, e)
			}
		}
		ds.Elements = kept
		if _, err := fromDataset(ds); !errors.Is(err, ErrNoPixelData) {
			t.Errorf("Expected ErrNoPixelData, got %v", err)
		}
	})
}

func TestLoadWrittenFile(t *testing.T) {
	ds := createTestDataset(t, 2, 3, "ROW", []int{1, 2, 3, 4, 5, 6})
	path := filepath.Join(t.TempDir(), "IM0001")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := dicom.Write(f, ds); err != nil {
		f.Close()
		t.Fatalf("Failed to write DICOM: %v", err)
	}
	f.Close()

	acq, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load DICOM: %v", err)
	}
	if acq.Path != path {
		t.Errorf("Expected path %s, got %s", path, acq.Path)
	}
	if acq.PhaseEncoding != models.Row || acq.Key() != "ax_t1_30ms_NSA-2" {
		t.Errorf("Unexpected metadata: pe %v key %s", acq.PhaseEncoding, acq.Key())
	}
	if r, c := acq.Pixels.Dims(); r != 2 || c != 3 || acq.Pixels.At(1, 2) != 6 {
		t.Errorf("Unexpected pixels %dx%d, last %v", r, c, acq.Pixels.At(r-1, c-1))
	}
}

func TestFrameToMatrix(t *testing.T) {
	samples := [][]int{{1}, {2}, {3}, {4}, {5}, {6}}

	m, err := FrameToMatrix(samples, 2, 3)
	if err != nil {
		t.Fatalf("Failed to convert frame: %v", err)
	}

	rows, cols := m.Dims()
	if rows != 2 || cols != 3 {
		t.Fatalf("Expected 2x3 matrix, got %dx%d", rows, cols)
	}
	if m.At(0, 2) != 3 || m.At(1, 0) != 4 {
		t.Errorf("Expected row-major layout, got row 0 %v row 1 %v", m.RawRowView(0), m.RawRowView(1))
	}
}

func TestFrameToMatrixErrors(t *testing.T) {
	if _, err := FrameToMatrix([][]int{{1}, {2}}, 2, 2); err == nil {
		t.Error("Expected an error for a short frame")
	}
	if _, err := FrameToMatrix([][]int{{1}, {}}, 1, 2); err == nil {
		t.Error("Expected an error for a pixel without samples")
	}
	if _, err := FrameToMatrix(nil, 0, 4); err == nil {
		t.Error("Expected an error for zero rows")
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.IMA", "a.dcm", ".hidden", "IM0001"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("Failed to list files: %v", err)
	}

	expected := []string{"IM0001", "a.dcm", "b.IMA"}
	if len(files) != len(expected) {
		t.Fatalf("Expected %d files, got %d: %v", len(expected), len(files), files)
	}
	for i, name := range expected {
		if filepath.Base(files[i]) != name {
			t.Errorf("File %d: expected %s, got %s", i, name, filepath.Base(files[i]))
		}
	}
}

func TestLoadRejectsNonDicom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-dicom.dcm")
	if err := os.WriteFile(path, []byte("definitely not a DICOM file"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected an error loading a non-DICOM file")
	}
}
