package oidc

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	nonce     string
	expiresAt time.Time
}

// MemoryStore 进程内 StateStore，用于测试及 Redis 不可用时的单实例部署
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore 创建 MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) SaveLoginState(_ context.Context, state, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// 顺带清理过期项
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[state] = memoryEntry{nonce: nonce, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) ConsumeLoginState(_ context.Context, state string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return "", false, nil
	}
	delete(s.entries, state)
	if !s.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.nonce, true, nil
}
