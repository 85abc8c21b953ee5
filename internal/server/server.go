// Package server is the reference implementation of the report API
// contract: the CRUD endpoints plus the simulated AI prediction
// endpoint. The demo binary runs it in-process for offline use and the
// integration tests use it as the authoritative double.
package server

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/classify"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
)

// Server holds the in-memory authoritative report store and serves the
// HTTP contract over it.
type Server struct {
	logger  *zap.Logger
	aiDelay time.Duration

	mu      sync.Mutex
	reports []model.Report
}

// New creates a Server. aiDelay is the artificial latency injected
// before /ai/predict answers; zero disables it. A nil logger is
// replaced with a no-op one.
func New(logger *zap.Logger, aiDelay time.Duration) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		logger:  logger,
		aiDelay: aiDelay,
	}
}

// Seed replaces the stored collection, for demo data and tests.
func (s *Server) Seed(reports []model.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append([]model.Report(nil), reports...)
}

// Handler returns the chi router implementing the API contract.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Patch("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})
	r.Post("/ai/predict", s.handlePredict)

	return r
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.Report, len(s.reports))
	copy(out, s.reports)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	i := s.indexOf(id)
	var found model.Report
	if i >= 0 {
		found = s.reports[i].Clone()
	}
	s.mu.Unlock()

	if i < 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var report model.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		http.Error(w, "invalid report payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := report.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	report.ID = newServerID(now)
	report.CreatedAt = now
	if report.Status == "" {
		report.Status = model.StatusNew
	}
	report.Timeline = append(report.Timeline, model.TimelineEvent{
		TS:    now,
		Actor: "system",
		Note:  "Report created",
	})

	s.mu.Lock()
	s.reports = append(s.reports, report)
	s.mu.Unlock()

	s.logger.Info("report created", zap.String("id", report.ID))
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd model.ReportUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid update payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := upd.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
		return
	}

	now := time.Now()
	merged := s.reports[i].Clone()
	upd.Apply(&merged)
	merged.UpdatedAt = now

	// The server's own audit entry: attributed to the assignee when the
	// update names one, otherwise to the admin console.
	actor := "admin"
	if upd.AssignedTo != nil && *upd.AssignedTo != "" {
		actor = *upd.AssignedTo
	}
	merged.Timeline = append(merged.Timeline, model.TimelineEvent{
		TS:    now,
		Actor: actor,
		Note:  upd.Note(),
	})

	s.reports[i] = merged
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, merged)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	i := s.indexOf(id)
	if i >= 0 {
		s.reports = append(s.reports[:i], s.reports[i+1:]...)
	}
	s.mu.Unlock()

	if i < 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePredict classifies the submitted text after the injected
// latency. The simulated endpoint never errors: any payload problem
// degrades to classifying the empty string.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	if s.aiDelay > 0 {
		timer := time.NewTimer(s.aiDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-r.Context().Done():
			return
		}
	}

	res := classify.Classify(body.Text)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"title":    res.Title,
		"category": res.Category,
		"priority": res.Priority,
		"reasoning": fmt.Sprintf(
			"Based on keywords in the description, this appears to be a %s issue with priority %d.",
			res.Category, res.Priority),
	})
}

// indexOf returns the position of id in the store. Callers hold mu.
func (s *Server) indexOf(id string) int {
	for i, r := range s.reports {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newServerID assigns an opaque report id. The random suffix keeps
// rapid-fire creates from colliding on the millisecond timestamp.
func newServerID(now time.Time) string {
	return fmt.Sprintf("RPT_%d_%06d", now.UnixMilli(), rand.Intn(1_000_000))
}
