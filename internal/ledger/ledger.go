package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BioHazard786/roomdrop/internal/signaling"
)

var (
	ErrMissingDSN     = errors.New("ledger: data source name is required")
	ErrUnsupportedDSN = errors.New("ledger: unsupported data source")
)

// Transfer is one recorded transfer outcome.
type Transfer struct {
	ID          uint   `gorm:"primaryKey"`
	RoomID      string `gorm:"index;not null"`
	FromPeerID  string
	ToPeerID    string
	Filename    string `gorm:"not null"`
	Filesize    int64
	StartedAt   *time.Time
	CompletedAt time.Time
	Status      string `gorm:"index;not null"`
	Reason      string
	CreatedAt   time.Time
}

// Ledger stores transfer outcomes in a SQL database.
type Ledger struct {
	db *gorm.DB
}

// Open connects to the database named by dsn and migrates the schema.
// Accepted forms are "sqlite://<path>", "sqlite::memory:", "file:<path>"
// and a bare filesystem path ending in .db, .sqlite or .sqlite3.
func Open(dsn string) (*Ledger, error) {
	path, err := sqlitePath(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", dsn, err)
	}

	if sqlDB, err := db.DB(); err == nil && strings.Contains(path, ":memory:") {
		// every pooled connection to :memory: would get its own database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Transfer{}); err != nil {
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}

	return &Ledger{db: db}, nil
}

func sqlitePath(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", ErrMissingDSN
	case dsn == "sqlite::memory:" || dsn == ":memory:":
		return ":memory:", nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", fmt.Errorf("%w: %q has no path", ErrUnsupportedDSN, dsn)
		}
		return path, nil
	case strings.HasPrefix(dsn, "file:"):
		return dsn, nil
	case strings.Contains(dsn, "://"):
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}

	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(dsn, ext) {
			return dsn, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
}

// Record stores outcome and returns the new record's id.
func (l *Ledger) Record(ctx context.Context, outcome signaling.TransferOutcome) (string, error) {
	rec := Transfer{
		RoomID:      outcome.RoomID,
		FromPeerID:  outcome.FromPeer,
		ToPeerID:    outcome.ToPeer,
		Filename:    outcome.Filename,
		Filesize:    outcome.Filesize,
		CompletedAt: outcome.CompletedAt,
		Status:      string(outcome.Status),
		Reason:      outcome.Reason,
	}
	if !outcome.StartedAt.IsZero() {
		started := outcome.StartedAt
		rec.StartedAt = &started
	}
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}

	if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("ledger: record: %w", err)
	}
	return strconv.FormatUint(uint64(rec.ID), 10), nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	RoomID string
	Status signaling.OutcomeStatus
	Limit  int
}

// List returns recorded transfers, newest first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]Transfer, error) {
	q := l.db.WithContext(ctx).Order("completed_at desc, id desc")
	if f.RoomID != "" {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []Transfer
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	return out, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
