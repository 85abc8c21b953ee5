package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/classify"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/remote"
)

// fakePredictor scripts the remote prediction call.
type fakePredictor struct {
	pred    *remote.Prediction
	err     error
	calls   int
	loading func() bool
	sawLoad bool
}

func (f *fakePredictor) Predict(ctx context.Context, text string) (*remote.Prediction, error) {
	f.calls++
	if f.loading != nil {
		f.sawLoad = f.loading()
	}
	return f.pred, f.err
}

func newDelegate(t *testing.T, enabled bool, hasCred bool, p Predictor) *Delegate {
	t.Helper()
	d := New(model.AIConfig{Enabled: enabled, CredentialKey: "k"}, p, nil)
	d.hasCredential = func() bool { return hasCred }
	return d
}

func TestSuggestBlankInputSkipsRemote(t *testing.T) {
	fake := &fakePredictor{}
	d := newDelegate(t, true, true, fake)

	for _, in := range []string{"", "   ", "\n\t"} {
		sug := d.Suggest(context.Background(), in)
		if sug.Category != model.CategoryGeneral || sug.Priority != 3 {
			t.Errorf("Suggest(%q) = %+v, want General/3", in, sug)
		}
	}
	if fake.calls != 0 {
		t.Errorf("predictor called %d times for blank input", fake.calls)
	}
}

func TestSuggestDisabledWithoutCredentialFallsBack(t *testing.T) {
	fake := &fakePredictor{}
	d := newDelegate(t, false, false, fake)

	sug := d.Suggest(context.Background(), "pothole on elm")
	if sug.Category != model.CategoryRoad || sug.Priority != 6 {
		t.Errorf("Suggest = %+v, want rule result Road/6", sug)
	}
	if sug.Reasoning != "" {
		t.Errorf("fallback carries reasoning %q", sug.Reasoning)
	}
	if fake.calls != 0 {
		t.Error("no live call permitted, but predictor was called")
	}
}

func TestSuggestEnabledUsesRemote(t *testing.T) {
	fake := &fakePredictor{
		pred: &remote.Prediction{
			Title:     "Road Issue: pothole on elm",
			Category:  model.CategoryRoad,
			Priority:  6,
			Reasoning: "keyword match",
		},
	}
	d := newDelegate(t, true, false, fake)

	sug := d.Suggest(context.Background(), "pothole on elm")
	if fake.calls != 1 {
		t.Fatalf("predictor calls = %d, want 1", fake.calls)
	}
	if sug.Reasoning != "keyword match" {
		t.Errorf("Reasoning = %q", sug.Reasoning)
	}
}

func TestSuggestCredentialAlonePermitsCall(t *testing.T) {
	fake := &fakePredictor{
		pred: &remote.Prediction{Category: model.CategoryWater, Priority: 8},
	}
	d := newDelegate(t, false, true, fake)

	d.Suggest(context.Background(), "leak")
	if fake.calls != 1 {
		t.Errorf("predictor calls = %d, want 1", fake.calls)
	}
}

func TestSuggestTransportFailureFallsBack(t *testing.T) {
	fake := &fakePredictor{
		err: &remote.TransportError{Op: "POST /ai/predict", Err: errors.New("refused")},
	}
	d := newDelegate(t, true, true, fake)

	const text = "garbage piling up near the bin"
	sug := d.Suggest(context.Background(), text)

	// Indistinguishable from a successful classification apart from
	// the absent reasoning.
	want := classify.Classify(text)
	if sug.Category != want.Category || sug.Priority != want.Priority || sug.Title != want.Title {
		t.Errorf("fallback = %+v, want %+v", sug, want)
	}
	if sug.Reasoning != "" {
		t.Errorf("Reasoning = %q, want empty on fallback", sug.Reasoning)
	}
}

func TestSuggestMalformedPredictionFallsBack(t *testing.T) {
	tests := []*remote.Prediction{
		{Category: "Plumbing", Priority: 5},
		{Category: model.CategoryRoad, Priority: 0},
		{Category: model.CategoryRoad, Priority: 11},
	}

	for _, pred := range tests {
		d := newDelegate(t, true, true, &fakePredictor{pred: pred})
		sug := d.Suggest(context.Background(), "pothole")
		if sug.Category != model.CategoryRoad || sug.Priority != 6 {
			t.Errorf("pred %+v: fallback = %+v, want Road/6", pred, sug)
		}
	}
}

func TestLoadingBracketsCall(t *testing.T) {
	fake := &fakePredictor{
		err: &remote.TransportError{Op: "POST /ai/predict", Err: errors.New("down")},
	}
	d := newDelegate(t, true, true, fake)
	fake.loading = d.Loading

	if d.Loading() {
		t.Fatal("loading true before any call")
	}
	d.Suggest(context.Background(), "pothole")
	if !fake.sawLoad {
		t.Error("loading flag not set while call was in flight")
	}
	if d.Loading() {
		t.Error("loading flag not restored after failure path")
	}
}
