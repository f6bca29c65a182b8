package storage

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// BadgerStore is a Store implementation backed by BadgerDB.
type BadgerStore struct {
	DB *badger.DB
}

type BadgerConfig struct {
	DBPath string
	// Password enables encryption at rest when set.
	Password string
	InMemory bool
}

// NewBadgerStore opens (or creates) the database at config.DBPath.
func NewBadgerStore(config BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(config.DBPath).
		WithCompression(options.ZSTD).
		WithIndexCacheSize(16 << 20).
		WithBlockCacheSize(32 << 20).
		WithSyncWrites(true).
		WithVerifyValueChecksum(true).
		WithLogger(newQuietBadgerLogger())

	if config.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	if config.Password != "" {
		// badger wants an AES key of 16, 24 or 32 bytes
		key := sha256.Sum256([]byte(config.Password))
		opts = opts.WithEncryptionKey(key[:])
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", config.DBPath, err)
	}

	logger.Debug("Connected to BadgerDB", "path", config.DBPath, "in_memory", config.InMemory)
	return &BadgerStore{DB: db}, nil
}

// Put stores a key-value pair in the BadgerDB.
func (b *BadgerStore) Put(key string, value []byte) error {
	return b.DB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Get retrieves the value associated with a key from BadgerDB.
func (b *BadgerStore) Get(key string) ([]byte, error) {
	var result []byte
	err := b.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return result, err
}

func (b *BadgerStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := b.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})

	return keys, err
}

// Delete removes a key-value pair from BadgerDB.
func (b *BadgerStore) Delete(key string) error {
	return b.DB.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close closes the BadgerDB.
func (b *BadgerStore) Close() error {
	return b.DB.Close()
}

// quietBadgerLogger forwards warnings and errors, badger's info chatter is dropped.
type quietBadgerLogger struct{}

func newQuietBadgerLogger() badger.Logger {
	return quietBadgerLogger{}
}

func (quietBadgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf("badger: "+format, args...), nil)
}

func (quietBadgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf("badger: "+format, args...))
}

func (quietBadgerLogger) Infof(string, ...interface{})  {}
func (quietBadgerLogger) Debugf(string, ...interface{}) {}
