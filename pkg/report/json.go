package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs the results map keyed by acquisition, wrapped in a
// "ghosting" object, followed by per-file details and failures
type JSONWriter struct {
	output io.Writer
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{output: output}
}

type jsonReport struct {
	Ghosting    map[string]float64 `json:"ghosting"`
	GeneratedAt string             `json:"generated_at"`
	Entries     []Entry            `json:"entries"`
}

// Write outputs the report as indented JSON
func (w *JSONWriter) Write(r *Report) error {
	out := jsonReport{
		Ghosting:    make(map[string]float64),
		GeneratedAt: r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Entries:     r.Entries,
	}
	for _, e := range r.Succeeded() {
		out.Ghosting[e.Key] = e.Ghosting
	}

	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
