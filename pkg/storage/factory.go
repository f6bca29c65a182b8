package storage

import (
	"context"
	"fmt"

	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/infra"
	"github.com/0xsequence/tps-reporter/pkg/logger"
)

// NewStore opens the run history backend selected by cfg.StorageType.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageType {
	case config.StorageTypePostgres:
		store, err := NewPostgresStore(PostgresConfig{
			DSN:          cfg.PostgresDSN,
			MaxIdleConns: 1,
			MaxOpenConns: 2,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		logger.Debug("Using postgres run store")
		return store, nil

	case config.StorageTypeBadger:
		store, err := NewBadgerStore(BadgerConfig{
			DBPath:   cfg.DBPath,
			Password: cfg.BadgerPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("create badger store: %w", err)
		}
		logger.Debug("Using badger run store", "path", cfg.DBPath)
		return store, nil

	case config.StorageTypeConsul:
		client, err := infra.NewConsulClient(ctx, cfg.Consul, cfg.Environment)
		if err != nil {
			return nil, err
		}
		prefix := ""
		if cfg.Consul != nil {
			prefix = cfg.Consul.Prefix
		}
		logger.Debug("Using consul run store", "prefix", prefix)
		return NewConsulStore(client.KV(), prefix), nil

	case config.StorageTypeNone, "":
		return nopStore{}, nil

	default:
		return nil, fmt.Errorf("storage type %q is not supported", cfg.StorageType)
	}
}
