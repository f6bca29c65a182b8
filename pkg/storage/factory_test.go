package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewStore(ctx, &config.Config{StorageType: config.StorageTypeNone})
	require.NoError(t, err)
	assert.IsType(t, nopStore{}, store)

	store, err = NewStore(ctx, &config.Config{
		StorageType: config.StorageTypeBadger,
		DBPath:      filepath.Join(t.TempDir(), "db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, store)
	require.NoError(t, store.Close())

	_, err = NewStore(ctx, &config.Config{StorageType: config.StorageTypePostgres})
	assert.ErrorContains(t, err, "dsn is required")

	_, err = NewStore(ctx, &config.Config{StorageType: "s3"})
	assert.ErrorContains(t, err, "not supported")
}
