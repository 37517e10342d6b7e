package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mrighosting/internal/models"
	"mrighosting/pkg/ghosting"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "results.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testAcquisition(path, uid string) *models.Acquisition {
	return &models.Acquisition{
		SeriesDescription: "ghosting PE ROW",
		SeriesInstanceUID: uid,
		EchoTime:          "30",
		NumberOfAverages:  "1",
		Path:              path,
	}
}

func testResult(value float64) *ghosting.Result {
	return &ghosting.Result{
		Ghosting: value,
		Regions: ghosting.Regions{
			PhantomMean: 1000,
			GhostMean:   100,
			NoiseMean:   10,
		},
	}
}

func TestSaveAndListResults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveResult(ctx, testAcquisition("/data/IM1", "1.2.3"), testResult(9)); err != nil {
		t.Fatalf("Failed to save first result: %v", err)
	}
	if _, err := s.SaveResult(ctx, testAcquisition("/data/IM2", "1.2.3"), testResult(7.5)); err != nil {
		t.Fatalf("Failed to save second result: %v", err)
	}
	// re-analysing the same file must not bump the file count
	if _, err := s.SaveResult(ctx, testAcquisition("/data/IM2", "1.2.3"), testResult(7.5)); err != nil {
		t.Fatalf("Failed to save repeated result: %v", err)
	}

	records, err := s.Results(ctx)
	if err != nil {
		t.Fatalf("Failed to list results: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.Key != "ghosting_PE_ROW_30ms_NSA-1" {
		t.Errorf("Expected key ghosting_PE_ROW_30ms_NSA-1, got %s", first.Key)
	}
	if first.Ghosting != 9 || first.PhantomMean != 1000 || first.NoiseMean != 10 {
		t.Errorf("Unexpected stored values: %+v", first)
	}
	if first.Description != "ghosting PE ROW" || first.SeriesInstanceUID != "1.2.3" {
		t.Errorf("Unexpected acquisition fields: %+v", first)
	}
	if first.Files != 2 {
		t.Errorf("Expected 2 distinct files, got %d", first.Files)
	}
	if first.AnalysedAt.IsZero() || time.Since(first.AnalysedAt) > 24*time.Hour {
		t.Errorf("Expected a recent analysis time, got %v", first.AnalysedAt)
	}
}

func TestResultsForSeries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := testAcquisition("/data/a", "1.1")
	b := testAcquisition("/data/b", "2.2")
	b.SeriesDescription = "other series"

	for _, acq := range []*models.Acquisition{a, b} {
		if _, err := s.SaveResult(ctx, acq, testResult(5)); err != nil {
			t.Fatalf("Failed to save result: %v", err)
		}
	}

	records, err := s.ResultsForSeries(ctx, "2.2")
	if err != nil {
		t.Fatalf("Failed to query series: %v", err)
	}
	if len(records) != 1 || records[0].Path != "/data/b" {
		t.Errorf("Expected only /data/b, got %+v", records)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if _, err := s.SaveResult(ctx, testAcquisition("/data/a", "1"), testResult(3)); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer s.Close()

	records, err := s.Results(ctx)
	if err != nil {
		t.Fatalf("Failed to list results: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record after reopen, got %d", len(records))
	}
}
