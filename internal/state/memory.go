package state

import (
	"context"
	"sync"

	"github.com/dvloznov/decision-ease/internal/domain"
)

// MemoryStore keeps the snapshot in process memory. It is safe for
// concurrent use and loses everything on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	state *domain.State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored snapshot.
func (m *MemoryStore) Load(ctx context.Context) (*domain.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return nil, ErrNotFound
	}
	return m.state.Clone(), nil
}

// Save stores a copy of s.
func (m *MemoryStore) Save(ctx context.Context, s *domain.State) error {
	if s == nil {
		return errNilState
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = s.Clone()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
