package data

import (
	"context"
	"sync"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
)

// memoryStorage is a process-local storage, lost on restart. Used in tests
// and with storage.driver=memory.
type memoryStorage struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() biz.LocalStorage {
	return &memoryStorage{scopes: make(map[string]map[string]string)}
}

func (s *memoryStorage) Get(_ context.Context, scope string, keys ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(keys))
	entries := s.scopes[scope]
	for _, k := range keys {
		if v, ok := entries[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *memoryStorage) SetMany(_ context.Context, scope string, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.scopes[scope]
	if !ok {
		m = make(map[string]string, len(entries))
		s.scopes[scope] = m
	}
	for k, v := range entries {
		m[k] = v
	}
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, scope string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.scopes[scope]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(m, k)
	}
	if len(m) == 0 {
		delete(s.scopes, scope)
	}
	return nil
}

func (s *memoryStorage) Close() error { return nil }
