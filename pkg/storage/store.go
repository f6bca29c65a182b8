package storage

import (
	"errors"
	"strings"
)

var ErrNotFound = errors.New("key not found")

// Store is a flat key/value store for run history.
type Store interface {
	Put(key string, value []byte) error
	// Get returns ErrNotFound when key is absent.
	Get(key string) ([]byte, error)
	// Keys lists keys starting with prefix in ascending order.
	Keys(prefix string) ([]string, error)
	Delete(key string) error
	Close() error
}

// nopStore backs storage_type none: writes vanish and reads miss.
type nopStore struct{}

func (nopStore) Put(string, []byte) error      { return nil }
func (nopStore) Get(string) ([]byte, error)    { return nil, ErrNotFound }
func (nopStore) Keys(string) ([]string, error) { return nil, nil }
func (nopStore) Delete(string) error           { return nil }
func (nopStore) Close() error                  { return nil }

func hasPrefix(key, prefix string) bool {
	return prefix == "" || strings.HasPrefix(key, prefix)
}
