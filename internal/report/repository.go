// Package report is the synchronization core: one façade over the
// remote report API and the durable local cache. Every operation
// prefers the remote store and degrades to local synthesis when the
// server cannot be reached, so callers always get usable data.
package report

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/cache"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/remote"
)

// Remote is the slice of the sync client the repository needs.
type Remote interface {
	List(ctx context.Context) ([]model.Report, error)
	Create(ctx context.Context, report model.Report) (*model.Report, error)
	Update(ctx context.Context, id string, upd model.ReportUpdate) (*model.Report, error)
	Delete(ctx context.Context, id string) error
}

// Cache is the durable collection store the repository persists into.
type Cache interface {
	Read(ctx context.Context, key string) ([]model.Report, error)
	Write(ctx context.Context, key string, reports []model.Report) error
}

// SystemActor is the actor recorded on locally-synthesized timeline events.
const SystemActor = "system"

// Repository owns the in-memory report view and keeps it consistent
// with the remote store and the local cache. It is safe for use from
// multiple goroutines: view and cache mutations are serialized so a
// later write is never silently lost behind an earlier one.
type Repository struct {
	remote Remote
	cache  Cache
	key    string
	logger *zap.Logger

	mu      sync.Mutex
	reports []model.Report
	lastErr error
	pending map[string]struct{}

	inflight atomic.Int32
}

// New builds a Repository and loads the last-known collection from the
// cache so the view is populated before any remote call happens.
func New(ctx context.Context, c Cache, r Remote, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reports, err := c.Read(ctx, cache.DefaultKey)
	if err != nil {
		return nil, fmt.Errorf("loading cached reports: %w", err)
	}

	return &Repository{
		remote:  r,
		cache:   c,
		key:     cache.DefaultKey,
		logger:  logger,
		reports: reports,
		pending: make(map[string]struct{}),
	}, nil
}

// Reports returns a deep-copied snapshot of the current view.
func (repo *Repository) Reports() []model.Report {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	out := make([]model.Report, len(repo.reports))
	for i, r := range repo.reports {
		out[i] = r.Clone()
	}
	return out
}

// Get returns the report with the given id from the in-memory view.
// No remote round trip happens; absent an intervening update, repeated
// calls return identical values.
func (repo *Repository) Get(id string) (model.Report, bool) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if i := repo.indexOf(id); i >= 0 {
		return repo.reports[i].Clone(), true
	}
	return model.Report{}, false
}

// Loading reports whether any operation is currently in flight.
func (repo *Repository) Loading() bool {
	return repo.inflight.Load() > 0
}

// Err returns the error recorded by the most recent operation, or nil.
// It is cleared at the start of every new operation attempt.
func (repo *Repository) Err() error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.lastErr
}

// Pending returns the ids of records whose latest state exists only
// locally (synthesized while the server was unreachable).
func (repo *Repository) Pending() []string {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	ids := make([]string, 0, len(repo.pending))
	for id := range repo.pending {
		ids = append(ids, id)
	}
	return ids
}

// IsPending reports whether the record with the given id is local-only.
func (repo *Repository) IsPending(id string) bool {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	_, ok := repo.pending[id]
	return ok
}

// Refresh fetches the authoritative collection. On success it replaces
// the view and cache and resolves pending state to the server's truth.
// On failure the previous view is kept unchanged and the error is both
// recorded and returned; the returned collection is always usable.
func (repo *Repository) Refresh(ctx context.Context) ([]model.Report, error) {
	repo.begin()
	defer repo.end()

	fetched, err := repo.remote.List(ctx)
	if err != nil {
		repo.logger.Warn("refresh failed, keeping cached view", zap.Error(err))
		repo.setErr(err)
		return repo.Reports(), err
	}

	repo.mu.Lock()
	repo.reports = fetched
	repo.pending = make(map[string]struct{})
	repo.persistLocked(ctx)
	repo.mu.Unlock()

	return repo.Reports(), nil
}

// Create submits a new report. On remote success the server's record
// (id, createdAt, defaulted status, initial timeline entry) is adopted.
// When the server is unreachable the record is synthesized locally with
// an RPT_-prefixed id and marked pending; the transport error is
// recorded in Err but the create still succeeds. Validation failures
// are returned and nothing is stored.
func (repo *Repository) Create(ctx context.Context, draft model.Report) (model.Report, error) {
	if err := draft.Validate(); err != nil {
		return model.Report{}, err
	}

	repo.begin()
	defer repo.end()

	created, err := repo.remote.Create(ctx, draft)
	if err == nil {
		repo.mu.Lock()
		repo.reports = append(repo.reports, *created)
		repo.persistLocked(ctx)
		repo.mu.Unlock()
		return created.Clone(), nil
	}
	if !remote.IsTransport(err) {
		repo.setErr(err)
		return model.Report{}, err
	}

	// Local synthesis of the server-side effects.
	now := time.Now()
	synthesized := draft.Clone()
	synthesized.ID = newLocalID(now)
	synthesized.CreatedAt = now
	if synthesized.Status == "" {
		synthesized.Status = model.StatusNew
	}
	synthesized.Timeline = append(synthesized.Timeline, model.TimelineEvent{
		TS:    now,
		Actor: SystemActor,
		Note:  "Report created",
	})

	repo.logger.Warn("create fell back to local synthesis",
		zap.String("id", synthesized.ID), zap.Error(err))

	repo.mu.Lock()
	repo.reports = append(repo.reports, synthesized)
	repo.pending[synthesized.ID] = struct{}{}
	repo.persistLocked(ctx)
	repo.lastErr = err
	repo.mu.Unlock()

	return synthesized.Clone(), nil
}

// Update applies a partial update. On remote success the server's
// merged record, including its own timeline entry, replaces the local
// one. When the server is unreachable the update is merged locally:
// set fields replace, absent fields are preserved, updatedAt is set,
// and exactly one timeline event is appended. A NotFound result means
// absence; nothing is synthesized for a record that does not exist.
func (repo *Repository) Update(ctx context.Context, id string, upd model.ReportUpdate) (model.Report, error) {
	if err := upd.Validate(); err != nil {
		return model.Report{}, err
	}

	repo.begin()
	defer repo.end()

	updated, err := repo.remote.Update(ctx, id, upd)
	if err == nil {
		repo.mu.Lock()
		if i := repo.indexOf(id); i >= 0 {
			repo.reports[i] = *updated
		} else {
			repo.reports = append(repo.reports, *updated)
		}
		delete(repo.pending, id)
		repo.persistLocked(ctx)
		repo.mu.Unlock()
		return updated.Clone(), nil
	}
	if !remote.IsTransport(err) {
		repo.setErr(err)
		return model.Report{}, err
	}

	repo.mu.Lock()
	i := repo.indexOf(id)
	if i < 0 {
		// Unreachable server and no local copy: nothing to synthesize.
		repo.lastErr = err
		repo.mu.Unlock()
		return model.Report{}, &remote.NotFoundError{ID: id}
	}

	now := time.Now()
	merged := repo.reports[i].Clone()
	upd.Apply(&merged)
	merged.UpdatedAt = now
	merged.Timeline = append(merged.Timeline, model.TimelineEvent{
		TS:    now,
		Actor: SystemActor,
		Note:  upd.Note(),
	})

	repo.reports[i] = merged
	repo.pending[id] = struct{}{}
	repo.persistLocked(ctx)
	repo.lastErr = err
	repo.mu.Unlock()

	repo.logger.Warn("update fell back to local merge",
		zap.String("id", id), zap.Error(err))

	return merged.Clone(), nil
}

// Delete removes a report. A 404 from the server surfaces as a
// NotFound result and also drops any stale local copy. When the server
// is unreachable only the local copy is removed; the remote store is
// left inconsistent, which the recorded error makes observable.
func (repo *Repository) Delete(ctx context.Context, id string) error {
	repo.begin()
	defer repo.end()

	err := repo.remote.Delete(ctx, id)
	switch {
	case err == nil:
		repo.removeLocal(ctx, id)
		return nil
	case remote.IsNotFound(err):
		repo.removeLocal(ctx, id)
		repo.setErr(err)
		return err
	case remote.IsTransport(err):
		repo.logger.Warn("delete fell back to local removal",
			zap.String("id", id), zap.Error(err))
		repo.removeLocal(ctx, id)
		repo.setErr(err)
		return nil
	default:
		repo.setErr(err)
		return err
	}
}

// Flush writes the current view back to the cache. Call it on teardown.
func (repo *Repository) Flush(ctx context.Context) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.cache.Write(ctx, repo.key, repo.reports)
}

// begin opens an operation: bumps the in-flight count and clears the
// recorded error so stale failures never outlive a new attempt.
func (repo *Repository) begin() {
	repo.inflight.Add(1)
	repo.mu.Lock()
	repo.lastErr = nil
	repo.mu.Unlock()
}

// end closes an operation. It runs on every exit path.
func (repo *Repository) end() {
	repo.inflight.Add(-1)
}

func (repo *Repository) setErr(err error) {
	repo.mu.Lock()
	repo.lastErr = err
	repo.mu.Unlock()
}

// indexOf returns the position of id in the view. Callers hold mu.
func (repo *Repository) indexOf(id string) int {
	for i, r := range repo.reports {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the view to the cache. Callers hold mu, so
// back-to-back operations apply in submission order and none is lost.
// A cache failure is logged but does not fail the operation: the
// in-memory view stays authoritative for this process.
func (repo *Repository) persistLocked(ctx context.Context) {
	if err := repo.cache.Write(ctx, repo.key, repo.reports); err != nil {
		repo.logger.Error("persisting report collection failed", zap.Error(err))
	}
}

func (repo *Repository) removeLocal(ctx context.Context, id string) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if i := repo.indexOf(id); i >= 0 {
		repo.reports = append(repo.reports[:i], repo.reports[i+1:]...)
	}
	delete(repo.pending, id)
	repo.persistLocked(ctx)
}

// newLocalID synthesizes a fallback report id. The RPT_ prefix and
// millisecond timestamp keep the shape external consumers expect; the
// uuid fragment makes concurrent creates collision-free.
func newLocalID(now time.Time) string {
	return fmt.Sprintf("RPT_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}
