package store

import (
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
)

// disasterRow is the persisted shape of a domain.DisasterRecord.
type disasterRow struct {
	ID          string    `gorm:"primaryKey;column:id"`
	Source      string    `gorm:"column:source"`
	Status      string    `gorm:"column:status;index"`
	AlertLevel  string    `gorm:"column:alert_level;index"`
	Severity    *string   `gorm:"column:severity"`
	Country     *string   `gorm:"column:country"`
	CountryCode *string   `gorm:"column:country_code"`
	CountryIso3 *string   `gorm:"column:country_iso3"`
	Type        string    `gorm:"column:type"`
	TypeCode    string    `gorm:"column:type_code"`
	EventDate   time.Time `gorm:"column:event_date;index"`
	Latitude    string    `gorm:"column:latitude"`
	Longitude   string    `gorm:"column:longitude"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	URL         string    `gorm:"column:url"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (disasterRow) TableName() string { return "disasters" }

// upsertColumns are overwritten when a record with the same id already exists.
// created_at is left alone so it keeps the first-seen time.
var upsertColumns = []string{
	"source", "status", "alert_level", "severity", "country", "country_code",
	"country_iso3", "type", "type_code", "event_date", "latitude", "longitude",
	"title", "description", "url", "updated_at",
}

func toRow(r domain.DisasterRecord) disasterRow {
	return disasterRow{
		ID:          r.ID,
		Source:      r.Source,
		Status:      string(r.Status),
		AlertLevel:  r.AlertLevel,
		Severity:    r.Severity,
		Country:     r.Country,
		CountryCode: r.CountryCode,
		CountryIso3: r.CountryIso3,
		Type:        r.Type,
		TypeCode:    r.TypeCode,
		EventDate:   r.EventDate.UTC(),
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Title:       r.Title,
		Description: r.Description,
		URL:         r.URL,
	}
}

func (row disasterRow) toRecord() domain.DisasterRecord {
	return domain.DisasterRecord{
		ID:          row.ID,
		Source:      row.Source,
		Status:      domain.Status(row.Status),
		AlertLevel:  row.AlertLevel,
		Severity:    row.Severity,
		Country:     row.Country,
		CountryCode: row.CountryCode,
		CountryIso3: row.CountryIso3,
		Type:        row.Type,
		TypeCode:    row.TypeCode,
		EventDate:   row.EventDate.UTC(),
		Latitude:    row.Latitude,
		Longitude:   row.Longitude,
		Title:       row.Title,
		Description: row.Description,
		URL:         row.URL,
	}
}
