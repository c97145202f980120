package tokenstore

import (
	"context"
	"sync"

	"github.com/myblog/myblog/domain/valueobject"
)

// MemoryStore keeps the pair for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	pair *valueobject.TokenPair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, pair valueobject.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = &pair
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (*valueobject.TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pair == nil {
		return nil, nil
	}
	p := *s.pair
	return &p, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}
