package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresStore struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

type PostgresConfig struct {
	DSN             string        `json:"dsn"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

type KVEntry struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     []byte    `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// NewPostgresStore constructs a Postgres-backed Store.
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	store, err := newPostgresStore(db)
	if err != nil {
		return nil, err
	}

	if cfg.MaxIdleConns > 0 {
		store.sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		store.sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		store.sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("auto-migrate kv_entries: %w", err)
	}

	logger.Debug("Connected to PostgreSQL")
	return store, nil
}

func newPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("retrieve sql.DB from gorm: %w", err)
	}
	return &PostgresStore{db: db, sqlDB: sqlDB}, nil
}

// Put stores or updates a key/value pair.
func (s *PostgresStore) Put(key string, value []byte) error {
	entry := KVEntry{
		Key:   key,
		Value: append([]byte(nil), value...),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Get returns the value stored under key.
func (s *PostgresStore) Get(key string) ([]byte, error) {
	var entry KVEntry
	if err := s.db.First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return append([]byte(nil), entry.Value...), nil
}

func (s *PostgresStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.Model(&KVEntry{}).
		Where("key LIKE ?", prefix+"%").
		Order("key").
		Pluck("key", &keys).Error
	return keys, err
}

// Delete removes a key/value pair.
func (s *PostgresStore) Delete(key string) error {
	return s.db.Delete(&KVEntry{}, "key = ?", key).Error
}

// Close releases the underlying sql.DB.
func (s *PostgresStore) Close() error {
	if s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
