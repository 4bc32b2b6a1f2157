package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"digitalsight/model"
)

// MemoryStore is an in-memory DocumentStore used by tests and the offline
// export command. It mirrors the merge semantics of the MySQL store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]json.RawMessage)}
}

func (s *MemoryStore) Get(ctx context.Context, path string, out interface{}) error {
	s.mu.RLock()
	data, ok := s.docs[path]
	s.mu.RUnlock()
	if !ok {
		return model.NewNotFoundError(path)
	}
	return json.Unmarshal(data, out)
}

func (s *MemoryStore) Set(ctx context.Context, path string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[path] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.docs[path]
	if !ok {
		return model.NewNotFoundError(path)
	}
	var current map[string]interface{}
	if err := json.Unmarshal(data, &current); err != nil {
		return err
	}
	for k, v := range fields {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return err
	}
	s.docs[path] = merged
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; !ok {
		return model.NewNotFoundError(path)
	}
	delete(s.docs, path)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	prefix := collection + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for path, data := range s.docs {
		if strings.HasPrefix(path, prefix) {
			docs = append(docs, Document{Path: path, Data: data})
		}
	}
	// Map iteration order is random; keep listings stable for callers.
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}
