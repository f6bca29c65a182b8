package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/0xsequence/tps-reporter/pkg/infra"
	"github.com/hashicorp/consul/api"
)

// ConsulStore keeps entries in the consul KV under a fixed prefix.
type ConsulStore struct {
	kv     infra.ConsulKV
	prefix string
}

func NewConsulStore(kv infra.ConsulKV, prefix string) *ConsulStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &ConsulStore{kv: kv, prefix: prefix}
}

func (s *ConsulStore) Put(key string, value []byte) error {
	pair := &api.KVPair{Key: s.composeKey(key), Value: value}
	if _, err := s.kv.Put(pair, nil); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *ConsulStore) Get(key string) ([]byte, error) {
	pair, _, err := s.kv.Get(s.composeKey(key), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if pair == nil {
		return nil, ErrNotFound
	}
	return pair.Value, nil
}

func (s *ConsulStore) Keys(prefix string) ([]string, error) {
	pairs, _, err := s.kv.List(s.composeKey(prefix), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		key := strings.TrimPrefix(pair.Key, s.prefix)
		if hasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *ConsulStore) Delete(key string) error {
	if _, err := s.kv.Delete(s.composeKey(key), nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *ConsulStore) Close() error {
	return nil
}

func (s *ConsulStore) composeKey(key string) string {
	return s.prefix + key
}
