package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const urgentOrder = "CASE status WHEN 'real-time' THEN 1 ELSE 2 END, " +
	"CASE alert_level WHEN 'Red' THEN 1 ELSE 2 END, event_date DESC"

// ErrNotFound is returned by SetStatus when no record has the given id.
var ErrNotFound = errors.New("disaster not found")

// SQLStore persists disaster records in SQLite through gorm.
// It implements pipeline.Store.
type SQLStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the SQLite database at path and migrates the disasters table.
func Open(path string, logger *slog.Logger) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps in-memory
	// databases from splitting across connections.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		logger.Warn("could not enable WAL mode", "error", err)
	}

	if err := db.AutoMigrate(&disasterRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate disasters: %w", err)
	}

	return &SQLStore{db: db, logger: logger}, nil
}

// Find returns records matching the filter, ordered by id.
func (s *SQLStore) Find(ctx context.Context, f domain.Filter) ([]domain.DisasterRecord, error) {
	q := s.db.WithContext(ctx).Model(&disasterRow{})
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		q = q.Where("status IN ?", statuses)
	}
	if len(f.AlertLevels) > 0 {
		q = q.Where("alert_level IN ?", f.AlertLevels)
	}
	if f.Year > 0 {
		from := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		q = q.Where("event_date >= ? AND event_date < ?", from, from.AddDate(1, 0, 0))
	}

	var rows []disasterRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find disasters: %w", err)
	}
	return toRecords(rows), nil
}

// Urgent returns active Red and Orange alerts, real-time before ongoing and Red
// before Orange.
func (s *SQLStore) Urgent(ctx context.Context) ([]domain.DisasterRecord, error) {
	var rows []disasterRow
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{string(domain.StatusRealTime), string(domain.StatusOngoing)}).
		Where("alert_level IN ?", []string{"Red", "Orange"}).
		Order(urgentOrder).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find urgent disasters: %w", err)
	}
	return toRecords(rows), nil
}

// FindOne returns the record with the given id, or nil when none exists.
func (s *SQLStore) FindOne(ctx context.Context, id string) (*domain.DisasterRecord, error) {
	var rows []disasterRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find disaster %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rec := rows[0].toRecord()
	return &rec, nil
}

// Save inserts the record or overwrites every column of an existing one except
// created_at.
func (s *SQLStore) Save(ctx context.Context, rec domain.DisasterRecord) error {
	row := toRow(rec)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save disaster %s: %w", rec.ID, err)
	}
	return nil
}

// SetStatus changes the status of a single record.
func (s *SQLStore) SetStatus(ctx context.Context, id string, status domain.Status) error {
	res := s.db.WithContext(ctx).Model(&disasterRow{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("set status of disaster %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set status of disaster %s: %w", id, ErrNotFound)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecords(rows []disasterRow) []domain.DisasterRecord {
	out := make([]domain.DisasterRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord()
	}
	return out
}
