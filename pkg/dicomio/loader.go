// Package dicomio reads MRI acquisitions from DICOM files
package dicomio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"gonum.org/v1/gonum/mat"

	"mrighosting/internal/models"
)

// ErrNoPixelData is returned for files without a native pixel frame
var ErrNoPixelData = errors.New("no native pixel data")

// Load parses a DICOM file and returns its first frame with the metadata
// needed for ghosting analysis
func Load(path string) (*models.Acquisition, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	acq, err := fromDataset(ds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	acq.Path = path
	return acq, nil
}

// ListFiles returns the regular files of dir in name order. DICOM files
// often have no extension, so nothing is filtered by name apart from
// hidden files.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func fromDataset(ds dicom.Dataset) (*models.Acquisition, error) {
	acq := &models.Acquisition{}

	var err error
	if acq.Rows, err = intValue(ds, tag.Rows); err != nil {
		return nil, err
	}
	if acq.Columns, err = intValue(ds, tag.Columns); err != nil {
		return nil, err
	}

	pe, err := stringValue(ds, tag.InPlanePhaseEncodingDirection)
	if err != nil {
		return nil, err
	}
	if acq.PhaseEncoding, err = models.ParsePhaseEncodingDirection(pe); err != nil {
		return nil, err
	}

	// naming fields are optional
	acq.SeriesDescription, _ = stringValue(ds, tag.SeriesDescription)
	acq.SeriesInstanceUID, _ = stringValue(ds, tag.SeriesInstanceUID)
	acq.EchoTime, _ = stringValue(ds, tag.EchoTime)
	acq.NumberOfAverages, _ = stringValue(ds, tag.NumberOfAverages)

	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPixelData, err)
	}
	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return nil, ErrNoPixelData
	}
	fr := info.Frames[0]
	if fr.Encapsulated {
		return nil, fmt.Errorf("%w: frame is encapsulated", ErrNoPixelData)
	}

	acq.Pixels, err = FrameToMatrix(fr.NativeData.Data, acq.Rows, acq.Columns)
	if err != nil {
		return nil, err
	}
	return acq, nil
}

// FrameToMatrix converts native frame samples into a rows x cols intensity
// grid. Samples are stored pixel by pixel in row-major order; only the first
// sample of each pixel is used.
func FrameToMatrix(samples [][]int, rows, cols int) (*mat.Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", rows, cols)
	}
	if len(samples) != rows*cols {
		return nil, fmt.Errorf("frame holds %d pixels, expected %d", len(samples), rows*cols)
	}

	data := make([]float64, rows*cols)
	for i, px := range samples {
		if len(px) == 0 {
			return nil, fmt.Errorf("pixel %d has no samples", i)
		}
		data[i] = float64(px[0])
	}
	return mat.NewDense(rows, cols, data), nil
}

func stringValue(ds dicom.Dataset, t tag.Tag) (string, error) {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return "", err
	}
	values, ok := elem.Value.GetValue().([]string)
	if !ok || len(values) == 0 {
		return "", fmt.Errorf("element %v holds no string value", t)
	}
	return strings.TrimSpace(values[0]), nil
}

func intValue(ds dicom.Dataset, t tag.Tag) (int, error) {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, err
	}
	switch v := elem.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0], nil
		}
	case []string:
		if len(v) > 0 {
			return strconv.Atoi(strings.TrimSpace(v[0]))
		}
	}
	return 0, fmt.Errorf("element %v holds no integer value", t)
}
