package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
	"github.com/couchcryptid/disaster-feed-sync/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DispatcherConfig tunes notification dispatch.
type DispatcherConfig struct {
	// Delay between a pass creating a record and its notifications going out.
	Delay time.Duration
	// MaxPerPass is the largest batch that is notified; bigger batches are
	// suppressed entirely.
	MaxPerPass int
	// Timeout bounds each delivery attempt per channel.
	Timeout time.Duration
	// DedupeSize bounds how many notified ids are remembered.
	DedupeSize int
}

// Dispatcher schedules delayed push and email notifications for new records.
// It implements Notifier.
type Dispatcher struct {
	push    PushNotifier
	email   EmailSender
	queue   *DelayQueue
	seen    *seenSet
	cfg     DispatcherConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates a Dispatcher. Either channel may be nil to disable it.
func NewDispatcher(push PushNotifier, email EmailSender, clock clockwork.Clock, cfg DispatcherConfig, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		push:    push,
		email:   email,
		queue:   NewDelayQueue(clock, cfg.Delay),
		seen:    newSeenSet(cfg.DedupeSize),
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Dispatch schedules notifications for the records created by one pass and
// returns how many were scheduled. Batches larger than MaxPerPass are dropped
// whole. Records that are not active, or were already notified by this
// process, are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, records []domain.DisasterRecord) int {
	if len(records) > d.cfg.MaxPerPass {
		d.metrics.NotificationsSuppressed.Inc()
		d.logger.Warn("too many new records, notifications suppressed",
			"count", len(records), "max_per_pass", d.cfg.MaxPerPass)
		return 0
	}

	// Deliveries outlive the pass, so they keep its values but not its deadline.
	base := context.WithoutCancel(ctx)

	scheduled := 0
	for _, rec := range records {
		if !rec.Status.IsActive() {
			continue
		}
		if d.seen.SeenAndRecord(rec.ID) {
			d.logger.Debug("record already notified", "id", rec.ID)
			continue
		}
		if !d.queue.Schedule(func() { d.deliver(base, rec) }) {
			d.seen.Forget(rec.ID)
			d.logger.Warn("dispatcher shut down, notification dropped", "id", rec.ID)
			continue
		}
		scheduled++
	}
	d.metrics.NotificationsPending.Set(float64(d.queue.Pending()))
	return scheduled
}

func (d *Dispatcher) deliver(ctx context.Context, rec domain.DisasterRecord) {
	d.metrics.NotificationsPending.Set(float64(d.queue.Pending()))

	if d.push != nil {
		d.attempt(ctx, "push", rec, d.push.Notify)
	}
	if d.email != nil {
		d.attempt(ctx, "email", rec, d.email.Send)
	}
}

func (d *Dispatcher) attempt(ctx context.Context, channel string, rec domain.DisasterRecord, send func(context.Context, domain.DisasterRecord) error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	if err := send(ctx, rec); err != nil {
		d.metrics.Notifications.WithLabelValues(channel, "error").Inc()
		d.logger.Error("notification failed", "channel", channel, "id", rec.ID, "error", err)
		return
	}
	d.metrics.Notifications.WithLabelValues(channel, "success").Inc()
	d.logger.Info("notification sent", "channel", channel, "id", rec.ID, "alert_level", rec.AlertLevel)
}

// Shutdown drops notifications that have not fired yet and waits for
// in-flight deliveries.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	dropped, err := d.queue.Shutdown(ctx)
	d.metrics.NotificationsPending.Set(0)
	if dropped > 0 {
		d.logger.Warn("pending notifications dropped at shutdown", "count", dropped)
	}
	return err
}
