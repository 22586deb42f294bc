package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/coasensus/coasensus/internal/config"
	"github.com/coasensus/coasensus/internal/dashboard"
	"github.com/coasensus/coasensus/internal/metrics"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MaxHistoryLimit caps RecentSnapshots
const MaxHistoryLimit = 100

// DB wraps the GORM database connection
type DB struct {
	conn *gorm.DB
	log  *logrus.Logger
	now  func() time.Time
}

// New creates a new database connection with GORM
func New(cfg *config.Config, log *logrus.Logger) (*DB, error) {
	return open(mysql.Open(cfg.DatabaseDSN), cfg, log)
}

// open connects through dialector and sizes the pool from cfg
func open(dialector gorm.Dialector, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	gormLogger := logger.New(
		&gormLogAdapter{log: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConns / 2)
	sqlDB.SetConnMaxIdleTime(cfg.DatabaseMaxIdleTime())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection established")

	return &DB{conn: conn, log: log, now: time.Now}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection is alive
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate runs GORM auto-migration
func (db *DB) AutoMigrate() error {
	return db.conn.AutoMigrate(
		&Snapshot{},
		&SnapshotCard{},
	)
}

// RecordSnapshot stores view and its cards in one transaction
func (db *DB) RecordSnapshot(ctx context.Context, view *dashboard.View) (err error) {
	defer func() { metrics.RecordSnapshotWrite(err) }()

	snapshot := snapshotFromView(view, db.now())
	err = db.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&snapshot).Error
	})
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", view.CycleID, err)
	}
	return nil
}

// RecentSnapshots returns the latest snapshots, newest first, with their cards
func (db *DB) RecentSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	limit = clampLimit(limit)

	var snapshots []Snapshot
	result := db.conn.WithContext(ctx).
		Preload("Cards", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Order("created_ts DESC").
		Limit(limit).
		Find(&snapshots)
	if result.Error != nil {
		return nil, fmt.Errorf("query snapshots: %w", result.Error)
	}
	return snapshots, nil
}

// PruneBefore deletes snapshots created before cutoff
func (db *DB) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := db.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old := tx.Model(&Snapshot{}).Select("cycle_id").Where("created_ts < ?", cutoff.Unix())
		if err := tx.Where("cycle_id IN (?)", old).Delete(&SnapshotCard{}).Error; err != nil {
			return err
		}
		result := tx.Where("created_ts < ?", cutoff.Unix()).Delete(&Snapshot{})
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return deleted, nil
}

func snapshotFromView(view *dashboard.View, now time.Time) Snapshot {
	snapshot := Snapshot{
		CycleID:      view.CycleID,
		FetchedTS:    view.FetchedAt.Unix(),
		CardCount:    len(view.Cards),
		SkippedCount: view.Skipped,
		CreatedTS:    now.Unix(),
		Cards:        make([]SnapshotCard, 0, len(view.Cards)),
	}
	for i, card := range view.Cards {
		snapshot.Cards = append(snapshot.Cards, SnapshotCard{
			CycleID:            view.CycleID,
			Position:           i,
			Title:              card.Title,
			URL:                card.URL,
			VolumeMillions:     card.VolumeMillions,
			ProbabilityPercent: card.ProbabilityPercent,
		})
	}
	return snapshot
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// gormLogAdapter adapts logrus to GORM's logger interface
type gormLogAdapter struct {
	log *logrus.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
