package cache

import (
	"context"
	"sync"

	"github.com/datasets-hub/orchestrator/go/now"
)

// MemStore is an in-memory Store, used in tests and by single-process
// deployments. Safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	entries map[entryKey]Entry
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[entryKey]Entry)}
}

func keyOf(kind, dataset, config, split string) entryKey {
	return entryKey{kind: kind, dataset: dataset, config: config, split: split}
}

// Upsert implements Store.
func (m *MemStore) Upsert(ctx context.Context, params UpsertParams) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := params.key()
	var priorPtr *Entry
	if prior, ok := m.entries[key]; ok {
		priorPtr = &prior
	}

	entry := Entry{
		Kind:               params.Kind,
		Dataset:            params.Dataset,
		Config:             params.Config,
		Split:              params.Split,
		Content:            params.Content,
		Details:            params.Details,
		HTTPStatus:         params.HTTPStatus,
		ErrorCode:          params.ErrorCode,
		JobRunnerVersion:   params.JobRunnerVersion,
		DatasetGitRevision: params.DatasetGitRevision,
		Progress:           params.Progress,
		Partial:            params.Partial,
		FailedRuns:         computeFailedRuns(priorPtr, params.DatasetGitRevision, params.HTTPStatus),
		UpdatedAt:          now.Now(ctx),
	}
	m.entries[key] = entry
	return entry, nil
}

// Get implements Store.
func (m *MemStore) Get(ctx context.Context, kind, dataset, config, split string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[keyOf(kind, dataset, config, split)]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// GetBest implements Store.
func (m *MemStore) GetBest(ctx context.Context, kinds []string, dataset, config, split string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bestError *Entry
	for _, kind := range kinds {
		entry, ok := m.entries[keyOf(kind, dataset, config, split)]
		if !ok {
			continue
		}
		if !entry.IsError() {
			return entry, nil
		}
		if bestError == nil || entry.HTTPStatus > bestError.HTTPStatus {
			e := entry
			bestError = &e
		}
	}
	if bestError != nil {
		return *bestError, nil
	}
	return Entry{}, ErrNotFound
}

// HasSome implements Store.
func (m *MemStore) HasSome(ctx context.Context, dataset string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if key.dataset == dataset {
			return true, nil
		}
	}
	return false, nil
}

// CountByKindAndStatus implements Store.
func (m *MemStore) CountByKindAndStatus(ctx context.Context) (map[KindStatusKey]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[KindStatusKey]int)
	for key, entry := range m.entries {
		counts[KindStatusKey{Kind: key.kind, IsError: entry.IsError()}]++
	}
	return counts, nil
}

// DeleteDataset implements Store.
func (m *MemStore) DeleteDataset(ctx context.Context, dataset string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if key.dataset == dataset {
			delete(m.entries, key)
		}
	}
	return nil
}
