// Package pipeline runs reconciliation passes: fetch the feed, normalize it,
// diff it against the stored active records, persist the differences and hand
// new records to the notification dispatcher.
package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
)

// ErrPassInProgress is returned when a pass is requested while another one is running.
var ErrPassInProgress = errors.New("reconciliation pass already in progress")

// Fetcher retrieves the raw feed document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FeedNormalizer turns a raw feed document into records in feed order.
type FeedNormalizer interface {
	Normalize(raw []byte) ([]domain.DisasterRecord, error)
}

// Store is the persistence collaborator. The reconciler is its only writer.
type Store interface {
	Find(ctx context.Context, f domain.Filter) ([]domain.DisasterRecord, error)
	FindOne(ctx context.Context, id string) (*domain.DisasterRecord, error)
	Save(ctx context.Context, rec domain.DisasterRecord) error
	SetStatus(ctx context.Context, id string, status domain.Status) error
}

// Notifier receives the records created by a pass.
type Notifier interface {
	Dispatch(ctx context.Context, records []domain.DisasterRecord) int
}

// PushNotifier delivers a push alert for a record.
type PushNotifier interface {
	Notify(ctx context.Context, rec domain.DisasterRecord) error
}

// EmailSender delivers an email alert for a record.
type EmailSender interface {
	Send(ctx context.Context, rec domain.DisasterRecord) error
}
