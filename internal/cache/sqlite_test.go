package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
)

func newTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	c, err := New(":memory:")
	if err != nil {
		t.Fatalf("creating cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleReports() []model.Report {
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	return []model.Report{
		{
			ID:          "RPT_1",
			Title:       "Road Issue: Pothole on Elm",
			Description: "pothole",
			Category:    model.CategoryRoad,
			Priority:    6,
			Status:      model.StatusNew,
			Reporter:    model.Reporter{ID: "u1", Name: "Dana"},
			Timeline:    []model.TimelineEvent{{TS: now, Actor: "system", Note: "Report created"}},
			CreatedAt:   now,
		},
		{
			ID:          "RPT_2",
			Title:       "Water Issue: Hydrant leak",
			Description: "leak",
			Category:    model.CategoryWater,
			Priority:    8,
			Status:      model.StatusTriaged,
			CreatedAt:   now,
		},
	}
}

func TestReadMissingKeyReturnsEmpty(t *testing.T) {
	c := newTestCache(t)

	reports, err := c.Read(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if reports == nil {
		t.Fatal("Read returned nil, want empty slice")
	}
	if len(reports) != 0 {
		t.Fatalf("Read returned %d reports, want 0", len(reports))
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	in := sampleReports()
	if err := c.Write(ctx, DefaultKey, in); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out, err := c.Read(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(out) != len(in) {
		t.Fatalf("got %d reports, want %d", len(out), len(in))
	}
	if out[0].ID != "RPT_1" || out[1].ID != "RPT_2" {
		t.Errorf("order not preserved: %q, %q", out[0].ID, out[1].ID)
	}
	if out[0].Category != model.CategoryRoad || out[0].Priority != 6 {
		t.Errorf("classification lost: %q/%d", out[0].Category, out[0].Priority)
	}
	if len(out[0].Timeline) != 1 || out[0].Timeline[0].Note != "Report created" {
		t.Errorf("timeline lost: %+v", out[0].Timeline)
	}
	if !out[0].Timeline[0].TS.Equal(in[0].Timeline[0].TS) {
		t.Errorf("timestamp lost precision: %v", out[0].Timeline[0].TS)
	}
}

func TestWriteReplacesWholeCollection(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Write(ctx, DefaultKey, sampleReports()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	replacement := []model.Report{{ID: "RPT_3", Title: "t", Description: "d"}}
	if err := c.Write(ctx, DefaultKey, replacement); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out, err := c.Read(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(out) != 1 || out[0].ID != "RPT_3" {
		t.Fatalf("old collection leaked through: %+v", out)
	}
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	ctx := context.Background()

	first, err := New(path)
	if err != nil {
		t.Fatalf("creating cache: %v", err)
	}
	if err := first.Write(ctx, DefaultKey, sampleReports()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := New(path)
	if err != nil {
		t.Fatalf("reopening cache: %v", err)
	}
	defer second.Close()

	out, err := second.Read(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Read after reopen: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d reports after reopen, want 2", len(out))
	}
}

func TestKeysAreIndependent(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Write(ctx, "a", sampleReports()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := c.Write(ctx, "b", nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	a, _ := c.Read(ctx, "a")
	b, _ := c.Read(ctx, "b")
	if len(a) != 2 || len(b) != 0 {
		t.Errorf("keys interfere: a=%d b=%d", len(a), len(b))
	}
}
