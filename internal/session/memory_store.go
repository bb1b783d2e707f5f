package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sc        Context
	expiresAt time.Time
}

// MemoryStore 进程内会话存储，过期条目由 ExpireIdle 清理
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Context, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, ErrNotFound
	}
	sc := e.sc
	return &sc, nil
}

func (s *MemoryStore) Save(_ context.Context, sc *Context, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sc.ID] = memoryEntry{sc: *sc, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// ExpireIdle 删除已过期的会话，返回删除数量
func (s *MemoryStore) ExpireIdle() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Len 当前条目数，包含尚未清理的过期条目
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
