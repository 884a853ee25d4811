package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crowdsale/core/events"
	"crowdsale/core/types"
)

// DefaultListLimit bounds List when the caller passes no limit.
const DefaultListLimit = 100

// ErrDSNRequired is returned by Open when no data source is configured.
var ErrDSNRequired = errors.New("eventlog: dsn must be configured")

// Entry is one persisted notification.
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq        uint64    `gorm:"uniqueIndex;not null"`
	Type       string    `gorm:"index;not null"`
	Attributes string    `gorm:"type:text;not null"`
	RecordedAt time.Time `gorm:"not null"`
}

// TableName pins the table name independent of the struct name.
func (Entry) TableName() string { return "sale_events" }

// Event decodes the entry back into its payload form.
func (e Entry) Event() (*types.Event, error) {
	attrs := map[string]string{}
	if strings.TrimSpace(e.Attributes) != "" {
		if err := json.Unmarshal([]byte(e.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", e.ID, err)
		}
	}
	return &types.Event{Type: e.Type, Attributes: attrs}, nil
}

// Store is an append-only notification log.
type Store struct {
	db     *gorm.DB
	log    *slog.Logger
	mu     sync.Mutex
	nowFn  func() time.Time
	closer func() error
}

// Open connects to dsn. postgres:// and postgresql:// DSNs use the postgres
// driver; everything else is treated as a sqlite path or URI.
func Open(dsn string, log *slog.Logger) (*Store, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrDSNRequired
	}
	var dialector gorm.Dialector
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		dialector = postgres.Open(trimmed)
	} else {
		dialector = sqlite.Open(trimmed)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return New(db, log)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB, log *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("eventlog: nil database")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate event log: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	store := &Store{db: db, log: log.With("component", "eventlog"), nowFn: time.Now}
	if sqlDB, err := db.DB(); err == nil {
		store.closer = sqlDB.Close
	}
	return store, nil
}

// SetNowFunc overrides the clock used for RecordedAt.
func (s *Store) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.nowFn = now
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

// Append persists evt with the next sequence number.
func (s *Store) Append(ctx context.Context, evt *types.Event) (*Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("eventlog: store not configured")
	}
	if evt == nil || strings.TrimSpace(evt.Type) == "" {
		return nil, errors.New("eventlog: event type required")
	}
	attrs := evt.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := &Entry{
		ID:         uuid.New(),
		Type:       evt.Type,
		Attributes: string(encoded),
		RecordedAt: s.nowFn().UTC(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last uint64
		if err := tx.Model(&Entry{}).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
			return err
		}
		entry.Seq = last + 1
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append %s: %w", evt.Type, err)
	}
	return entry, nil
}

// Emit implements events.Emitter. Failures are logged and dropped.
func (s *Store) Emit(evt events.Event) {
	payload := events.Payload(evt)
	if payload == nil {
		return
	}
	if _, err := s.Append(context.Background(), payload); err != nil {
		s.log.Error("persist event", "type", payload.Type, "error", err)
	}
}

// List returns up to limit entries with a sequence number above afterSeq in
// ascending order. eventType filters by type when non-empty.
func (s *Store) List(ctx context.Context, afterSeq uint64, limit int, eventType string) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("eventlog: store not configured")
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	query := s.db.WithContext(ctx).Where("seq > ?", afterSeq)
	if eventType = strings.TrimSpace(eventType); eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	var entries []Entry
	if err := query.Order("seq ASC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return entries, nil
}

// Last returns the highest sequence number recorded, or zero.
func (s *Store) Last(ctx context.Context) (uint64, error) {
	var last uint64
	err := s.db.WithContext(ctx).Model(&Entry{}).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error
	return last, err
}
