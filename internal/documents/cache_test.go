package documents

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"skillmatch/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts reads that reach the backing store.
type countingStore struct {
	*MemoryStore
	gets int32
}

func (s *countingStore) Get(ctx context.Context, collection, key string) (Document, error) {
	atomic.AddInt32(&s.gets, 1)
	return s.MemoryStore.Get(ctx, collection, key)
}

func setupCachedStore(t *testing.T) (*CachedStore, *countingStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := &countingStore{MemoryStore: NewMemoryStore()}
	return NewCachedStore(inner, client, time.Minute, logger.NewTestLogger(t)), inner, mr
}

func TestCachedStore_ReadThrough(t *testing.T) {
	store, inner, mr := setupCachedStore(t)
	ctx := context.Background()
	require.NoError(t, inner.Set(ctx, CollectionUsers, "hr@acme.io", Document{"name": "Acme"}))

	for i := 0; i < 3; i++ {
		doc, err := store.Get(ctx, CollectionUsers, "hr@acme.io")
		require.NoError(t, err)
		assert.Equal(t, "Acme", doc["name"])
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&inner.gets))
	assert.True(t, mr.Exists("doc:users:hr@acme.io"))
	assert.Equal(t, time.Minute, mr.TTL("doc:users:hr@acme.io"))
}

func TestCachedStore_NotFoundIsNotCached(t *testing.T) {
	store, inner, mr := setupCachedStore(t)

	_, err := store.Get(context.Background(), CollectionUsers, "nope@x.io")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(context.Background(), CollectionUsers, "nope@x.io")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.EqualValues(t, 2, atomic.LoadInt32(&inner.gets))
	assert.False(t, mr.Exists("doc:users:nope@x.io"))
}

func TestCachedStore_CompaniesAlwaysReadFromSource(t *testing.T) {
	store, inner, mr := setupCachedStore(t)
	ctx := context.Background()
	require.NoError(t, inner.Set(ctx, CollectionCompanies, "Acme", Document{"role": "Backend", "matches": 1}))

	doc, err := store.Get(ctx, CollectionCompanies, "Acme")
	require.NoError(t, err)
	assert.EqualValues(t, 1, doc["matches"])

	// the matching backend rewrites the posting behind the cache
	require.NoError(t, inner.Set(ctx, CollectionCompanies, "Acme", Document{"role": "Backend", "matches": 3}))

	doc, err = store.Get(ctx, CollectionCompanies, "Acme")
	require.NoError(t, err)
	assert.EqualValues(t, 3, doc["matches"])
	assert.EqualValues(t, 2, atomic.LoadInt32(&inner.gets))
	assert.False(t, mr.Exists("doc:companies:Acme"))
}

func TestCachedStore_WritesInvalidate(t *testing.T) {
	store, _, mr := setupCachedStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, CollectionUsers, "ada@x.io", Document{"name": "Ada"}))
	_, err := store.Get(ctx, CollectionUsers, "ada@x.io")
	require.NoError(t, err)
	require.True(t, mr.Exists("doc:users:ada@x.io"))

	require.NoError(t, store.Update(ctx, CollectionUsers, "ada@x.io", map[string]interface{}{"resumeId": "r1"}))
	assert.False(t, mr.Exists("doc:users:ada@x.io"))

	doc, err := store.Get(ctx, CollectionUsers, "ada@x.io")
	require.NoError(t, err)
	assert.Equal(t, "r1", doc["resumeId"])
}

func TestCachedStore_RedisFailureFallsThrough(t *testing.T) {
	client, mock := redismock.NewClientMock()
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	store := NewCachedStore(inner, client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()
	require.NoError(t, inner.Set(ctx, CollectionUsers, "hr@acme.io", Document{"name": "Acme"}))

	mock.ExpectGet("doc:users:hr@acme.io").SetErr(fmt.Errorf("redis down"))

	doc, err := store.Get(ctx, CollectionUsers, "hr@acme.io")
	require.NoError(t, err)
	assert.Equal(t, "Acme", doc["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
