package documents

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps documents in process. Values are round-tripped through
// JSON so callers never share maps with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeFailure("get", err)
	}
	s.mu.RLock()
	raw, ok := s.docs[collection+"/"+key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, storeFailure("get", err)
	}
	return doc, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, key string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return storeFailure("set", err)
	}
	s.mu.Lock()
	s.docs[collection+"/"+key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := collection + "/" + key
	raw, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return storeFailure("update", err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return storeFailure("update", err)
	}
	s.docs[id] = merged
	return nil
}
