package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"mrighosting/internal/models"
	"mrighosting/pkg/batch"
	"mrighosting/pkg/ghosting"
)

func testOutcomes() []batch.Outcome {
	acq := func(desc string) *models.Acquisition {
		return &models.Acquisition{
			SeriesDescription: desc,
			EchoTime:          "30",
			NumberOfAverages:  "2",
			PhaseEncoding:     models.Column,
		}
	}
	return []batch.Outcome{
		{
			Path:        "/data/b",
			Acquisition: acq("series b"),
			Result: &ghosting.Result{Ghosting: 1.25, Regions: ghosting.Regions{
				PhantomMean: 800, GhostMean: 20, NoiseMean: 10,
			}},
		},
		{Path: "/data/broken", Err: errors.New("failed to parse")},
		{
			Path:        "/data/a",
			Acquisition: acq("series a"),
			Result:      &ghosting.Result{Ghosting: 2.5},
		},
	}
}

var generatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFromOutcomes(t *testing.T) {
	r := FromOutcomes(testOutcomes(), generatedAt)

	if len(r.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(r.Entries))
	}
	// sorted by key; failed entries are keyed by path
	expectedKeys := []string{"/data/broken", "series_a_30ms_NSA-2", "series_b_30ms_NSA-2"}
	for i, key := range expectedKeys {
		if r.Entries[i].Key != key {
			t.Errorf("Entry %d: expected key %s, got %s", i, key, r.Entries[i].Key)
		}
	}
	if !r.Entries[0].Failed() {
		t.Error("Expected the broken entry to be marked failed")
	}
	if r.Entries[2].PhaseEncoding != "COL" || r.Entries[2].PhantomMean != 800 {
		t.Errorf("Unexpected entry fields: %+v", r.Entries[2])
	}
	if len(r.Succeeded()) != 2 {
		t.Errorf("Expected 2 successful entries, got %d", len(r.Succeeded()))
	}
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONWriter(&buf).Write(FromOutcomes(testOutcomes(), generatedAt)); err != nil {
		t.Fatalf("Failed to write JSON: %v", err)
	}

	var decoded struct {
		Ghosting map[string]float64 `json:"ghosting"`
		Entries  []Entry            `json:"entries"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}

	if len(decoded.Ghosting) != 2 {
		t.Fatalf("Expected 2 ghosting values, got %v", decoded.Ghosting)
	}
	if decoded.Ghosting["series_a_30ms_NSA-2"] != 2.5 {
		t.Errorf("Expected 2.5 for series a, got %v", decoded.Ghosting["series_a_30ms_NSA-2"])
	}
	if len(decoded.Entries) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(decoded.Entries))
	}
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write(FromOutcomes(testOutcomes(), generatedAt)); err != nil {
		t.Fatalf("Failed to write Markdown: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"# Ghosting Report", "series_b_30ms_NSA-2", "1.250", "## Failures", "/data/broken"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected Markdown to contain %q", want)
		}
	}
}

func TestMarkdownWriterNoFailures(t *testing.T) {
	outcomes := testOutcomes()
	outcomes = append(outcomes[:1], outcomes[2:]...)

	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write(FromOutcomes(outcomes, generatedAt)); err != nil {
		t.Fatalf("Failed to write Markdown: %v", err)
	}
	if strings.Contains(buf.String(), "## Failures") {
		t.Error("Expected no failures section")
	}
}

func TestParquetWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewParquetWriter(&buf).Write(FromOutcomes(testOutcomes(), generatedAt)); err != nil {
		t.Fatalf("Failed to write Parquet: %v", err)
	}

	rows, err := parquet.Read[Entry](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Failed to read Parquet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[1].Key != "series_a_30ms_NSA-2" || rows[1].Ghosting != 2.5 {
		t.Errorf("Unexpected row: %+v", rows[1])
	}
	if rows[0].Error == "" {
		t.Error("Expected the failure message to survive the round trip")
	}
}

func TestNewWriter(t *testing.T) {
	for _, format := range []string{"json", "markdown", "parquet"} {
		if _, err := NewWriter(format, &bytes.Buffer{}); err != nil {
			t.Errorf("%s: unexpected error %v", format, err)
		}
	}
	if _, err := NewWriter("csv", &bytes.Buffer{}); err == nil {
		t.Error("Expected an error for an unknown format")
	}
	if Extension("markdown") != ".md" || Extension("parquet") != ".parquet" || Extension("json") != ".json" {
		t.Error("Unexpected report extensions")
	}
}
