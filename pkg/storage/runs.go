package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/0xsequence/tps-reporter/pkg/types"
)

const runKeyPrefix = "runs/"

// RunStore persists RunRecords as JSON under runs/<id>.
type RunStore struct {
	store Store
}

func NewRunStore(store Store) *RunStore {
	return &RunStore{store: store}
}

func (r *RunStore) Save(run *types.RunRecord) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	if err := r.store.Put(runKeyPrefix+run.ID, data); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (r *RunStore) Load(id string) (*types.RunRecord, error) {
	data, err := r.store.Get(runKeyPrefix + id)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	var run types.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

// List returns stored runs, newest first. limit <= 0 returns all of them.
func (r *RunStore) List(limit int) ([]*types.RunRecord, error) {
	keys, err := r.store.Keys(runKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]*types.RunRecord, 0, len(keys))
	for _, key := range keys {
		run, err := r.Load(key[len(runKeyPrefix):])
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *RunStore) Delete(id string) error {
	return r.store.Delete(runKeyPrefix + id)
}

func (r *RunStore) Close() error {
	return r.store.Close()
}
