package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/remote"
)

// newTestServer runs the reference backend behind httptest and returns
// a real client pointed at it, so these tests exercise the whole wire
// contract rather than the handlers in isolation.
func newTestServer(t *testing.T, aiDelay time.Duration) (*Server, *remote.Client) {
	t.Helper()

	srv := New(nil, aiDelay)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return srv, remote.NewClient(ts.URL, 5*time.Second)
}

func validDraft() model.Report {
	return model.Report{
		Title:       "Huge pothole on Main Street",
		Description: "Deep pothole damaging cars",
		Category:    model.CategoryRoad,
		Priority:    6,
		Reporter:    model.Reporter{ID: "u1", Name: "Dana"},
	}
}

func TestCreateAssignsServerFields(t *testing.T) {
	_, client := newTestServer(t, 0)
	ctx := context.Background()

	created, err := client.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(created.ID, "RPT_") {
		t.Errorf("ID = %q, want RPT_ prefix", created.ID)
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt not assigned")
	}
	if created.Status != model.StatusNew {
		t.Errorf("Status = %q, want default New", created.Status)
	}
	if len(created.Timeline) != 1 {
		t.Fatalf("timeline has %d events, want 1", len(created.Timeline))
	}
	ev := created.Timeline[0]
	if ev.Actor != "system" || ev.Note != "Report created" {
		t.Errorf("initial event = %+v", ev)
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	_, client := newTestServer(t, 0)

	_, err := client.Create(context.Background(), model.Report{Description: "no title"})
	if !remote.IsValidation(err) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestListReturnsSeededCollection(t *testing.T) {
	srv, client := newTestServer(t, 0)
	srv.Seed([]model.Report{
		{ID: "RPT_1", Title: "a", Description: "d"},
		{ID: "RPT_2", Title: "b", Description: "d"},
	})

	got, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "RPT_1" {
		t.Errorf("List = %+v", got)
	}
}

func TestGetUnknownIDIs404(t *testing.T) {
	_, client := newTestServer(t, 0)

	_, err := client.Get(context.Background(), "RPT_missing")
	if !remote.IsNotFound(err) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}

func TestUpdateMergesAndAppendsAuditEvent(t *testing.T) {
	_, client := newTestServer(t, 0)
	ctx := context.Background()

	created, err := client.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	st := model.StatusInProgress
	updated, err := client.Update(ctx, created.ID, model.ReportUpdate{Status: &st})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Status != model.StatusInProgress {
		t.Errorf("Status = %q", updated.Status)
	}
	// Absent fields survive the merge untouched.
	if updated.Title != created.Title || updated.Priority != created.Priority {
		t.Errorf("merge clobbered fields: %+v", updated)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
	if len(updated.Timeline) != len(created.Timeline)+1 {
		t.Fatalf("timeline grew by %d events, want 1",
			len(updated.Timeline)-len(created.Timeline))
	}
	ev := updated.Timeline[len(updated.Timeline)-1]
	if ev.Actor != "admin" {
		t.Errorf("actor = %q, want admin when no assignee named", ev.Actor)
	}
	if ev.Note != "Status changed to In Progress" {
		t.Errorf("note = %q", ev.Note)
	}
}

func TestUpdateAttributesEventToAssignee(t *testing.T) {
	_, client := newTestServer(t, 0)
	ctx := context.Background()

	created, err := client.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	assignee := "crew-7"
	updated, err := client.Update(ctx, created.ID, model.ReportUpdate{AssignedTo: &assignee})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	ev := updated.Timeline[len(updated.Timeline)-1]
	if ev.Actor != "crew-7" {
		t.Errorf("actor = %q, want assignee", ev.Actor)
	}
	if ev.Note != "Report updated" {
		t.Errorf("note = %q", ev.Note)
	}
}

func TestUpdateUnknownIDIs404(t *testing.T) {
	_, client := newTestServer(t, 0)

	title := "t"
	_, err := client.Update(context.Background(), "RPT_missing", model.ReportUpdate{Title: &title})
	if !remote.IsNotFound(err) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}

func TestDelete(t *testing.T) {
	_, client := newTestServer(t, 0)
	ctx := context.Background()

	created, err := client.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := client.Get(ctx, created.ID); !remote.IsNotFound(err) {
		t.Errorf("Get after delete = %v, want NotFoundError", err)
	}
	if err := client.Delete(ctx, created.ID); !remote.IsNotFound(err) {
		t.Errorf("second Delete = %v, want NotFoundError", err)
	}
}

func TestPredictClassifiesText(t *testing.T) {
	_, client := newTestServer(t, 0)

	pred, err := client.Predict(context.Background(), "broken streetlight on 5th avenue")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.Category != model.CategoryElectricity {
		t.Errorf("Category = %q, want Electricity", pred.Category)
	}
	if pred.Priority != 7 {
		t.Errorf("Priority = %d, want 7", pred.Priority)
	}
	if pred.Title == "" || pred.Reasoning == "" {
		t.Errorf("incomplete prediction: %+v", pred)
	}
	if !strings.Contains(pred.Reasoning, "Electricity") {
		t.Errorf("reasoning = %q, want category named", pred.Reasoning)
	}
}

func TestPredictHonorsInjectedDelay(t *testing.T) {
	const delay = 50 * time.Millisecond
	_, client := newTestServer(t, delay)

	start := time.Now()
	if _, err := client.Predict(context.Background(), "pothole"); err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("answered after %v, want at least %v", elapsed, delay)
	}
}

func TestPredictCancelledRequest(t *testing.T) {
	_, client := newTestServer(t, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := client.Predict(ctx, "pothole"); err == nil {
		t.Fatal("expected error from cancelled prediction")
	}
}
