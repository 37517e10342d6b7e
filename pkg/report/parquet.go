package report

import (
	"io"

	"github.com/parquet-go/parquet-go"
)

// ParquetWriter outputs one Parquet row per entry, failures included, for
// loading into analysis tools
type ParquetWriter struct {
	output io.Writer
}

// NewParquetWriter creates a ParquetWriter that outputs to the given writer
func NewParquetWriter(output io.Writer) *ParquetWriter {
	return &ParquetWriter{output: output}
}

// Write outputs the entries as a Parquet file
func (w *ParquetWriter) Write(r *Report) error {
	return parquet.Write(w.output, r.Entries)
}
