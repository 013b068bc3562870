package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// HotCache wraps a Store with a short-TTL in-process read cache for
// GetBest, the call state assembly makes most often (once per artifact per
// planning pass). Upsert and the other mutating calls always go straight
// to the wrapped Store and invalidate any cached entry for that key.
type HotCache struct {
	inner Store
	cache *gocache.Cache
}

// NewHotCache wraps inner with a read cache whose entries expire after ttl.
func NewHotCache(inner Store, ttl time.Duration) *HotCache {
	return &HotCache{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func getBestKey(kinds []string, dataset, config, split string) string {
	return fmt.Sprintf("best:%v:%s:%s:%s", kinds, dataset, config, split)
}

// Upsert implements Store. It invalidates any GetBest entries touching
// kind, since a write may change which row is "best".
func (h *HotCache) Upsert(ctx context.Context, params UpsertParams) (Entry, error) {
	entry, err := h.inner.Upsert(ctx, params)
	if err != nil {
		return Entry{}, err
	}
	h.cache.Flush()
	return entry, nil
}

// Get implements Store, bypassing the read cache: callers asking for one
// exact kind tend to want freshness over hit rate.
func (h *HotCache) Get(ctx context.Context, kind, dataset, config, split string) (Entry, error) {
	return h.inner.Get(ctx, kind, dataset, config, split)
}

// GetBest implements Store, serving from the read cache when possible.
func (h *HotCache) GetBest(ctx context.Context, kinds []string, dataset, config, split string) (Entry, error) {
	key := getBestKey(kinds, dataset, config, split)
	if cached, ok := h.cache.Get(key); ok {
		result := cached.(cachedResult)
		return result.entry, result.err
	}

	entry, err := h.inner.GetBest(ctx, kinds, dataset, config, split)
	h.cache.SetDefault(key, cachedResult{entry: entry, err: err})
	return entry, err
}

type cachedResult struct {
	entry Entry
	err   error
}

// HasSome implements Store.
func (h *HotCache) HasSome(ctx context.Context, dataset string) (bool, error) {
	return h.inner.HasSome(ctx, dataset)
}

// DeleteDataset implements Store. It flushes the whole read cache, since
// entries are not indexed by dataset.
func (h *HotCache) DeleteDataset(ctx context.Context, dataset string) error {
	if err := h.inner.DeleteDataset(ctx, dataset); err != nil {
		return err
	}
	h.cache.Flush()
	return nil
}

// CountByKindAndStatus implements Store, bypassing the read cache: this
// aggregate is only ever called by the low-frequency metrics collectors,
// so there is no hit-rate benefit to caching it.
func (h *HotCache) CountByKindAndStatus(ctx context.Context) (map[KindStatusKey]int, error) {
	return h.inner.CountByKindAndStatus(ctx)
}
