package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const defaultSQLiteDSN = "file:cert-console.db?cache=shared"

// Entry is the row layout of the sqlite driver.
type Entry struct {
	Key       string    `gorm:"column:storage_key;primaryKey;type:varchar(255)"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of gorm naming strategy.
func (Entry) TableName() string {
	return "console_storage"
}

var _ Store = (*sqliteStore)(nil)

type sqliteStore struct {
	db    *gorm.DB
	owned bool
}

// OpenSQLite opens the database named by cfg and migrates the storage table.
func OpenSQLite(cfg Config) (Store, error) {
	dsn := defaultSQLiteDSN
	if cfg.SQLite != nil && cfg.SQLite.DSN != "" {
		dsn = cfg.SQLite.DSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s, err := newSQLite(db)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLite builds a store on an existing handle. The caller keeps ownership
// of db.
func NewSQLite(db *gorm.DB) (Store, error) {
	s, err := newSQLite(db)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newSQLite(db *gorm.DB) (*sqliteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate storage table: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) (string, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("storage_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *sqliteStore) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("storage_key IN ?", keys).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close(context.Context) error {
	if !s.owned {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
