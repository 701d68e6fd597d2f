package domain

import "time"

// SourceGDACS tags records ingested from the GDACS feed.
const SourceGDACS = "GDACS"

// Status is the lifecycle state of a disaster record.
type Status string

const (
	StatusRealTime Status = "real-time"
	StatusOngoing  Status = "ongoing"
	StatusPast     Status = "past"
)

// ActiveStatuses are the statuses that make up the stored snapshot diffed on every pass.
var ActiveStatuses = []Status{StatusRealTime, StatusOngoing}

// IsActive reports whether s is real-time or ongoing.
func (s Status) IsActive() bool {
	return s == StatusRealTime || s == StatusOngoing
}

// ClassifyAge returns real-time when the event started no more than window before
// now, and ongoing otherwise. Events dated in the future count as real-time.
func ClassifyAge(eventDate, now time.Time, window time.Duration) Status {
	if now.Sub(eventDate) <= window {
		return StatusRealTime
	}
	return StatusOngoing
}

// DisasterRecord is the canonical form of a feed item and the unit of storage.
type DisasterRecord struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Status      Status    `json:"status"`
	AlertLevel  string    `json:"alert_level"`
	Severity    *string   `json:"severity,omitempty"`
	Country     *string   `json:"country,omitempty"`
	CountryCode *string   `json:"country_code,omitempty"`
	CountryIso3 *string   `json:"country_iso3,omitempty"`
	Type        string    `json:"type"`
	TypeCode    string    `json:"type_code"`
	EventDate   time.Time `json:"event_date"`

	// Latitude and Longitude hold the upstream decimal text; empty means absent.
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Filter selects stored records. Zero-valued fields do not constrain the query.
type Filter struct {
	Statuses    []Status
	AlertLevels []string
	Year        int
}

func strPtr(s string) *string { return &s }
