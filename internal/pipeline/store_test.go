package pipeline

import (
	"errors"
	"testing"
	"time"
)

func sampleReport(runID, week string) Report {
	return Report{
		RunID: runID,
		Week:  week,
		Stories: []StoryReport{
			{StoryID: 1, Slug: "coffee-prices", Status: StoryCompleted},
		},
	}
}

func TestStoreSaveAndLatest(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := NewStore(dir, WithStoreClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	if _, err := store.Save(sampleReport("run-1", "2026-03-02")); err != nil {
		t.Fatalf("save run-1: %v", err)
	}
	if _, err := store.Save(sampleReport("run-2", "2026-03-02")); err != nil {
		t.Fatalf("save run-2: %v", err)
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.RunID != "run-2" {
		t.Fatalf("latest run id = %q, want run-2", latest.RunID)
	}
	if len(latest.Stories) != 1 || latest.Stories[0].Slug != "coffee-prices" {
		t.Fatalf("latest stories did not round-trip: %+v", latest.Stories)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := NewStore(dir, WithStoreClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		if _, err := store.Save(sampleReport(id, "2026-03-02")); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	reports, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("list returned %d reports, want 3", len(reports))
	}
	if reports[0].RunID != "run-1" || reports[2].RunID != "run-3" {
		t.Fatalf("reports out of order: %s .. %s", reports[0].RunID, reports[2].RunID)
	}
}

func TestStoreLatestEmpty(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Latest(); !errors.Is(err, ErrNoReports) {
		t.Fatalf("latest on empty dir = %v, want ErrNoReports", err)
	}
}

func TestStoreSaveRequiresRunID(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Save(Report{Week: "2026-03-02"}); err == nil {
		t.Fatal("expected error for report without run id")
	}
}
