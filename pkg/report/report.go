// Package report writes batch ghosting results in JSON, Markdown or Parquet.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"mrighosting/pkg/batch"
)

// Entry is one row of a report
type Entry struct {
	Key               string  `json:"key" parquet:"key"`
	Path              string  `json:"path" parquet:"path"`
	SeriesDescription string  `json:"series_description" parquet:"series_description"`
	SeriesInstanceUID string  `json:"series_instance_uid" parquet:"series_instance_uid"`
	EchoTime          string  `json:"echo_time" parquet:"echo_time"`
	NumberOfAverages  string  `json:"number_of_averages" parquet:"number_of_averages"`
	PhaseEncoding     string  `json:"phase_encoding" parquet:"phase_encoding"`
	Ghosting          float64 `json:"ghosting" parquet:"ghosting"`
	PhantomMean       float64 `json:"phantom_mean" parquet:"phantom_mean"`
	GhostMean         float64 `json:"ghost_mean" parquet:"ghost_mean"`
	NoiseMean         float64 `json:"noise_mean" parquet:"noise_mean"`
	Error             string  `json:"error,omitempty" parquet:"error,optional"`
}

// Failed reports whether the entry records an error instead of a result
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Report is a batch of entries ready to be written
type Report struct {
	GeneratedAt time.Time
	Entries     []Entry
}

// FromOutcomes builds a report from batch outcomes, sorted by key
func FromOutcomes(outcomes []batch.Outcome, generatedAt time.Time) *Report {
	entries := make([]Entry, 0, len(outcomes))
	for _, o := range outcomes {
		e := Entry{Key: o.Key(), Path: o.Path}
		if acq := o.Acquisition; acq != nil {
			e.SeriesDescription = acq.SeriesDescription
			e.SeriesInstanceUID = acq.SeriesInstanceUID
			e.EchoTime = acq.EchoTime
			e.NumberOfAverages = acq.NumberOfAverages
			e.PhaseEncoding = acq.PhaseEncoding.String()
		}
		if r := o.Result; r != nil {
			e.Ghosting = r.Ghosting
			e.PhantomMean = r.Regions.PhantomMean
			e.GhostMean = r.Regions.GhostMean
			e.NoiseMean = r.Regions.NoiseMean
		}
		if o.Err != nil {
			e.Error = o.Err.Error()
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return &Report{GeneratedAt: generatedAt, Entries: entries}
}

// Succeeded returns the entries that carry a ghosting value
func (r *Report) Succeeded() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if !e.Failed() {
			out = append(out, e)
		}
	}
	return out
}

// Writer outputs a report in one format
type Writer interface {
	Write(r *Report) error
}

// NewWriter returns the writer for format: json, markdown or parquet
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case "json":
		return NewJSONWriter(output), nil
	case "markdown":
		return NewMarkdownWriter(output), nil
	case "parquet":
		return NewParquetWriter(output), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Extension returns the file extension used for format
func Extension(format string) string {
	switch format {
	case "markdown":
		return ".md"
	case "parquet":
		return ".parquet"
	default:
		return ".json"
	}
}
