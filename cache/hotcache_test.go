package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHotCache_GetBest_ServesFromCacheUntilInvalidated(t *testing.T) {
	inner := NewMemStore()
	hot := NewHotCache(inner, time.Minute)
	ctx := context.Background()

	_, err := inner.Upsert(ctx, UpsertParams{Kind: "a", Dataset: "squad", HTTPStatus: 200, Content: []byte(`{"v":1}`)})
	require.NoError(t, err)

	first, err := hot.GetBest(ctx, []string{"a"}, "squad", "", "")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"v":1}`), first.Content)

	// mutate the underlying store directly, bypassing HotCache's
	// invalidation, to prove the cached value is what's served.
	_, err = inner.Upsert(ctx, UpsertParams{Kind: "a", Dataset: "squad", HTTPStatus: 200, Content: []byte(`{"v":2}`)})
	require.NoError(t, err)

	stale, err := hot.GetBest(ctx, []string{"a"}, "squad", "", "")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"v":1}`), stale.Content)

	// a write through HotCache itself invalidates the cache.
	_, err = hot.Upsert(ctx, UpsertParams{Kind: "a", Dataset: "squad", HTTPStatus: 200, Content: []byte(`{"v":3}`)})
	require.NoError(t, err)

	fresh, err := hot.GetBest(ctx, []string{"a"}, "squad", "", "")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"v":3}`), fresh.Content)
}

func TestHotCache_DeleteDataset_Invalidates(t *testing.T) {
	inner := NewMemStore()
	hot := NewHotCache(inner, time.Minute)
	ctx := context.Background()

	_, err := hot.Upsert(ctx, UpsertParams{Kind: "a", Dataset: "squad", HTTPStatus: 200, Content: []byte(`{}`)})
	require.NoError(t, err)
	_, err = hot.GetBest(ctx, []string{"a"}, "squad", "", "")
	require.NoError(t, err)

	require.NoError(t, hot.DeleteDataset(ctx, "squad"))

	_, err = hot.GetBest(ctx, []string{"a"}, "squad", "", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHotCache_SatisfiesStoreContract(t *testing.T) {
	TestStore(t, func() Store {
		return NewHotCache(NewMemStore(), time.Minute)
	})
}
