package catalog

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/phanxgames/moonquake"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Row kinds stored in the events table.
const (
	KindEvent  = "event"
	KindLander = "lander"
)

// EventRow is the persisted form of an event or lander site. Rows keep their
// insertion order through the primary key.
type EventRow struct {
	ID   uint    `gorm:"primaryKey"`
	Kind string  `gorm:"index;not null"`
	Type string  `gorm:"not null"`
	Long float64 `gorm:"not null"`
	Lat  float64 `gorm:"not null"`
	Date int64   `gorm:"index;not null"`
}

// TableName pins the table name independent of gorm's naming strategy.
func (EventRow) TableName() string { return "events" }

// DB is a SQLite-backed catalog.
type DB struct {
	gorm *gorm.DB
	log  zerolog.Logger
}

// OpenDB opens (creating if needed) the SQLite catalog at path and migrates
// its schema. An empty path opens a private in-memory database.
func OpenDB(path string, log zerolog.Logger) (*DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: open sqlite %q: %w", path, err)
	}
	if path == "" {
		// Each connection to :memory: is a separate database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("catalog: access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&EventRow{}); err != nil {
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	if path != "" {
		log.Info().Str("path", path).Msg("Using SQLite catalog")
	}
	return &DB{gorm: db, log: log}, nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rowsOf(kind string, recs []moonquake.RawEvent) []EventRow {
	rows := make([]EventRow, len(recs))
	for i, r := range recs {
		rows[i] = EventRow{Kind: kind, Type: r.Type, Long: r.Long, Lat: r.Lat, Date: r.Date}
	}
	return rows
}

// Replace overwrites the catalog with events and landers in one transaction.
func (d *DB) Replace(ctx context.Context, events []moonquake.RawEvent, landers []moonquake.RawLander) error {
	err := d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&EventRow{}).Error; err != nil {
			return err
		}
		for _, rows := range [][]EventRow{rowsOf(KindEvent, events), rowsOf(KindLander, landers)} {
			if len(rows) == 0 {
				continue
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog: replace: %w", err)
	}
	d.log.Debug().Int("events", len(events)).Int("landers", len(landers)).Msg("catalog replaced")
	return nil
}

func (d *DB) load(ctx context.Context, kind string) ([]moonquake.RawEvent, error) {
	var rows []EventRow
	if err := d.gorm.WithContext(ctx).Where("kind = ?", kind).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("catalog: load %s rows: %w", kind, err)
	}
	out := make([]moonquake.RawEvent, len(rows))
	for i, r := range rows {
		out[i] = moonquake.RawEvent{Type: r.Type, Long: r.Long, Lat: r.Lat, Date: r.Date}
	}
	return out, nil
}

// Events returns the stored events in insertion order.
func (d *DB) Events(ctx context.Context) ([]moonquake.RawEvent, error) {
	return d.load(ctx, KindEvent)
}

// Landers returns the stored lander sites in insertion order.
func (d *DB) Landers(ctx context.Context) ([]moonquake.RawLander, error) {
	return d.load(ctx, KindLander)
}

// Store builds an EventStore from the catalog contents.
func (d *DB) Store(ctx context.Context) (*moonquake.EventStore, error) {
	events, err := d.Events(ctx)
	if err != nil {
		return nil, err
	}
	landers, err := d.Landers(ctx)
	if err != nil {
		return nil, err
	}
	return moonquake.NewEventStore(events, landers), nil
}
