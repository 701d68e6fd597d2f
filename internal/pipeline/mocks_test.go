package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
)

// --- mocks ---

type mockFetcher struct {
	body []byte
	err  error
}

func (m *mockFetcher) Fetch(_ context.Context) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.body, nil
}

// blockingFetcher parks inside Fetch until release is closed.
type blockingFetcher struct {
	entered chan struct{}
	release chan struct{}
}

func (m *blockingFetcher) Fetch(ctx context.Context) ([]byte, error) {
	close(m.entered)
	select {
	case <-m.release:
		return []byte("feed"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// stubNormalizer ignores the raw bytes and returns the configured records.
type stubNormalizer struct {
	records []domain.DisasterRecord
	err     error
}

func (m *stubNormalizer) Normalize(_ []byte) ([]domain.DisasterRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return slices.Clone(m.records), nil
}

type memStore struct {
	mu        sync.Mutex
	records   map[string]domain.DisasterRecord
	saveErr   map[string]error
	statusErr map[string]error
	findErr   error
	writes    int
}

func newMemStore(seed ...domain.DisasterRecord) *memStore {
	s := &memStore{
		records:   make(map[string]domain.DisasterRecord),
		saveErr:   make(map[string]error),
		statusErr: make(map[string]error),
	}
	for _, r := range seed {
		s.records[r.ID] = r
	}
	return s
}

func (m *memStore) Find(_ context.Context, f domain.Filter) ([]domain.DisasterRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []domain.DisasterRecord
	for _, r := range m.records {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.DisasterRecord) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memStore) FindOne(_ context.Context, id string) (*domain.DisasterRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) Save(_ context.Context, rec domain.DisasterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveErr[rec.ID]; err != nil {
		return err
	}
	m.writes++
	m.records[rec.ID] = rec
	return nil
}

func (m *memStore) SetStatus(_ context.Context, id string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.statusErr[id]; err != nil {
		return err
	}
	r, ok := m.records[id]
	if !ok {
		return errNotStored
	}
	m.writes++
	r.Status = status
	m.records[id] = r
	return nil
}

func (m *memStore) get(id string) (domain.DisasterRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	return r, ok
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type recordingNotifier struct {
	mu      sync.Mutex
	batches [][]domain.DisasterRecord
}

func (m *recordingNotifier) Dispatch(_ context.Context, records []domain.DisasterRecord) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, slices.Clone(records))
	return len(records)
}

func (m *recordingNotifier) ids() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.batches))
	for i, b := range m.batches {
		for _, r := range b {
			out[i] = append(out[i], r.ID)
		}
	}
	return out
}

// mockChannel records deliveries for either notification channel.
type mockChannel struct {
	mu    sync.Mutex
	err   error
	block chan struct{}
	sent  []string
}

func (m *mockChannel) Notify(ctx context.Context, rec domain.DisasterRecord) error {
	return m.deliver(ctx, rec)
}

func (m *mockChannel) Send(ctx context.Context, rec domain.DisasterRecord) error {
	return m.deliver(ctx, rec)
}

func (m *mockChannel) deliver(ctx context.Context, rec domain.DisasterRecord) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, rec.ID)
	return nil
}

func (m *mockChannel) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

// --- helpers ---

var errNotStored = errors.New("not stored")

var testNow = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(s string) *string { return &s }

// newRecord builds a normalized record as the feed would produce it.
func newRecord(id string, age time.Duration) domain.DisasterRecord {
	return domain.DisasterRecord{
		ID:          id,
		Source:      domain.SourceGDACS,
		Status:      domain.StatusOngoing,
		AlertLevel:  "Orange",
		Severity:    ptr("Magnitude 6.1M"),
		Country:     ptr("Japan"),
		CountryCode: ptr("JP"),
		CountryIso3: ptr("JPN"),
		Type:        domain.TypeEarthquake,
		TypeCode:    "EQ",
		EventDate:   testNow.Add(-age),
		Latitude:    "35.6895",
		Longitude:   "139.6917",
		Title:       "Earthquake " + id,
		Description: "Earthquake " + id + " description",
		URL:         "https://www.gdacs.org/report.aspx?eventid=" + id,
	}
}

func withStatus(r domain.DisasterRecord, s domain.Status) domain.DisasterRecord {
	r.Status = s
	return r
}
