package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
	"github.com/couchcryptid/disaster-feed-sync/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Result summarizes one reconciliation pass.
type Result struct {
	PassID       string
	New          int
	Updated      int
	Past         int
	Reclassified int
	Failed       int
}

// Message renders the counts for operators and the trigger endpoint.
func (r Result) Message() string {
	return fmt.Sprintf("%d new, %d updated, %d past, %d reclassified, %d failed",
		r.New, r.Updated, r.Past, r.Reclassified, r.Failed)
}

// Reconciler diffs the normalized feed against the stored active records and
// applies inserts, updates and status transitions. Passes never overlap.
type Reconciler struct {
	fetcher    Fetcher
	normalizer FeedNormalizer
	store      Store
	notifier   Notifier
	clock      clockwork.Clock
	window     time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu    sync.Mutex
	ready atomic.Bool
}

// NewReconciler creates a Reconciler. A nil notifier disables notifications.
// window is the age up to which an event counts as real-time.
func NewReconciler(f Fetcher, n FeedNormalizer, s Store, notifier Notifier, clock clockwork.Clock, window time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	return &Reconciler{
		fetcher:    f,
		normalizer: n,
		store:      s,
		notifier:   notifier,
		clock:      clock,
		window:     window,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a pass has completed successfully.
func (r *Reconciler) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no reconciliation pass has completed yet")
	}
	return nil
}

// RunOnce runs a pass using the reconciler's clock for the current time.
func (r *Reconciler) RunOnce(ctx context.Context) (Result, error) {
	return r.Reconcile(ctx, r.clock.Now())
}

// Reconcile runs a single pass as of now. Fetch, parse and snapshot failures
// abort the pass before anything is written; per-record store failures are
// logged, counted in Result.Failed and skipped. It returns ErrPassInProgress
// without waiting when another pass holds the lock.
func (r *Reconciler) Reconcile(ctx context.Context, now time.Time) (Result, error) {
	if !r.mu.TryLock() {
		r.metrics.PassesSkipped.Inc()
		return Result{}, ErrPassInProgress
	}
	defer r.mu.Unlock()

	start := r.clock.Now()
	res := Result{PassID: uuid.NewString()}
	logger := r.logger.With("pass_id", res.PassID)
	logger.Debug("reconciliation pass started", "now", now)

	raw, err := r.fetcher.Fetch(ctx)
	if err != nil {
		r.metrics.Passes.WithLabelValues("fetch_error").Inc()
		logger.Error("fetch feed failed", "error", err)
		return res, fmt.Errorf("fetch feed: %w", err)
	}

	incoming, err := r.normalizer.Normalize(raw)
	if err != nil {
		r.metrics.Passes.WithLabelValues("parse_error").Inc()
		logger.Error("normalize feed failed", "error", err)
		return res, fmt.Errorf("normalize feed: %w", err)
	}
	r.metrics.FeedItems.Observe(float64(len(incoming)))

	stored, err := r.store.Find(ctx, domain.Filter{Statuses: domain.ActiveStatuses})
	if err != nil {
		r.metrics.Passes.WithLabelValues("store_error").Inc()
		logger.Error("load active records failed", "error", err)
		return res, fmt.Errorf("load active records: %w", err)
	}

	active := make(map[string]domain.DisasterRecord, len(stored))
	for _, rec := range stored {
		active[rec.ID] = rec
	}

	seen := make(map[string]struct{}, len(incoming))
	var created []domain.DisasterRecord

	for _, rec := range incoming {
		rec.Status = domain.ClassifyAge(rec.EventDate, now, r.window)
		seen[rec.ID] = struct{}{}

		existing, ok := active[rec.ID]
		if !ok {
			if r.insert(ctx, logger, rec, &res) {
				created = append(created, rec)
				active[rec.ID] = rec
			}
			continue
		}
		if merged, ok := r.update(ctx, logger, existing, rec, &res); ok {
			active[rec.ID] = merged
		}
	}

	for _, rec := range stored {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		if err := r.store.SetStatus(ctx, rec.ID, domain.StatusPast); err != nil {
			r.persistFailed(logger, &domain.PersistenceError{Op: "retire", ID: rec.ID, Err: err}, &res)
			continue
		}
		res.Past++
		logger.Debug("record moved to past", "id", rec.ID)
	}

	r.metrics.RecordsNew.Add(float64(res.New))
	r.metrics.RecordsUpdated.Add(float64(res.Updated))
	r.metrics.RecordsPast.Add(float64(res.Past))
	r.metrics.RecordsReclassified.Add(float64(res.Reclassified))
	r.metrics.Passes.WithLabelValues("success").Inc()
	r.metrics.PassDuration.Observe(r.clock.Since(start).Seconds())
	r.ready.Store(true)

	logger.Info("reconciliation pass complete",
		"items", len(incoming),
		"new", res.New,
		"updated", res.Updated,
		"past", res.Past,
		"reclassified", res.Reclassified,
		"failed", res.Failed,
	)

	if r.notifier != nil && len(created) > 0 {
		scheduled := r.notifier.Dispatch(ctx, created)
		logger.Debug("notifications scheduled", "count", scheduled)
	}

	return res, nil
}

// insert saves a record that is not in the active snapshot. A stored past
// record with the same id is overwritten, which reactivates it.
func (r *Reconciler) insert(ctx context.Context, logger *slog.Logger, rec domain.DisasterRecord, res *Result) bool {
	prev, err := r.store.FindOne(ctx, rec.ID)
	if err != nil {
		r.persistFailed(logger, &domain.PersistenceError{Op: "lookup", ID: rec.ID, Err: err}, res)
		return false
	}
	if err := r.store.Save(ctx, rec); err != nil {
		r.persistFailed(logger, &domain.PersistenceError{Op: "insert", ID: rec.ID, Err: err}, res)
		return false
	}
	res.New++
	if prev != nil {
		logger.Info("past record reappeared in feed", "id", rec.ID, "status", rec.Status)
	} else {
		logger.Debug("record created", "id", rec.ID, "status", rec.Status)
	}
	return true
}

// update merges changed fields into the stored record. When only the age-based
// status moved, the status alone is written and counted as a reclassification.
func (r *Reconciler) update(ctx context.Context, logger *slog.Logger, existing, incoming domain.DisasterRecord, res *Result) (domain.DisasterRecord, bool) {
	fields := domain.Diff(existing, incoming)
	if len(fields) > 0 {
		merged := domain.Merge(existing, incoming, fields)
		merged.Status = incoming.Status
		if err := r.store.Save(ctx, merged); err != nil {
			r.persistFailed(logger, &domain.PersistenceError{Op: "update", ID: existing.ID, Err: err}, res)
			return existing, false
		}
		res.Updated++
		logger.Debug("record updated", "id", existing.ID, "fields", fields)
		return merged, true
	}

	if existing.Status == incoming.Status {
		return existing, true
	}
	if err := r.store.SetStatus(ctx, existing.ID, incoming.Status); err != nil {
		r.persistFailed(logger, &domain.PersistenceError{Op: "reclassify", ID: existing.ID, Err: err}, res)
		return existing, false
	}
	res.Reclassified++
	existing.Status = incoming.Status
	logger.Debug("record reclassified", "id", existing.ID, "status", incoming.Status)
	return existing, true
}

func (r *Reconciler) persistFailed(logger *slog.Logger, err *domain.PersistenceError, res *Result) {
	res.Failed++
	r.metrics.PersistErrors.Inc()
	logger.Error("persist record failed", "op", err.Op, "id", err.ID, "error", err)
}
