package documents

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"skillmatch/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// cachedCollections are the collections only this process writes. Companies
// are written by the matching backend, so a cached copy would hide new matches.
var cachedCollections = map[string]bool{
	CollectionUsers: true,
}

// CachedStore is a read-through Redis cache in front of another Store.
// Cache failures are logged and never fail the request.
type CachedStore struct {
	inner  Store
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		inner:  inner,
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "document-cache"}),
	}
}

func cacheKey(collection, key string) string {
	return fmt.Sprintf("doc:%s:%s", collection, key)
}

func (s *CachedStore) Get(ctx context.Context, collection, key string) (Document, error) {
	if !cachedCollections[collection] {
		return s.inner.Get(ctx, collection, key)
	}
	ck := cacheKey(collection, key)

	cached, err := s.redis.Get(ctx, ck).Result()
	switch {
	case err == nil:
		var doc Document
		if jsonErr := json.Unmarshal([]byte(cached), &doc); jsonErr == nil {
			return doc, nil
		}
		s.logger.Warn("dropping corrupt cache entry", map[string]interface{}{"key": ck})
	case !stderrors.Is(err, redis.Nil):
		s.logger.Warn("cache read failed", map[string]interface{}{"key": ck, "error": err})
	}

	doc, err := s.inner.Get(ctx, collection, key)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(doc); err == nil {
		if err := s.redis.Set(ctx, ck, raw, s.ttl).Err(); err != nil {
			s.logger.Warn("cache write failed", map[string]interface{}{"key": ck, "error": err})
		}
	}
	return doc, nil
}

func (s *CachedStore) Set(ctx context.Context, collection, key string, doc Document) error {
	if err := s.inner.Set(ctx, collection, key, doc); err != nil {
		return err
	}
	s.invalidate(ctx, collection, key)
	return nil
}

func (s *CachedStore) Update(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	if err := s.inner.Update(ctx, collection, key, fields); err != nil {
		return err
	}
	s.invalidate(ctx, collection, key)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, collection, key string) {
	if !cachedCollections[collection] {
		return
	}
	ck := cacheKey(collection, key)
	if err := s.redis.Del(ctx, ck).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", map[string]interface{}{"key": ck, "error": err})
	}
}
