package session

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"peerprep/interview/internal/models"
)

type memoryEntry struct {
	mu      sync.Mutex
	session *models.Session
	deleted bool
}

// MemoryStore keeps sessions in process. Each session has its own lock so
// updates to different sessions never wait on each other.
type MemoryStore struct {
	entries *xsync.MapOf[string, *memoryEntry]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: xsync.NewMapOf[string, *memoryEntry]()}
}

func (m *MemoryStore) Create(_ context.Context, s *models.Session) error {
	_, loaded := m.entries.LoadOrStore(s.ID, &memoryEntry{session: s.Clone()})
	if loaded {
		return ErrExists
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	e, ok := m.entries.Load(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, ErrNotFound
	}
	return e.session.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	e, ok := m.entries.Load(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, ErrNotFound
	}

	working := e.session.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.session = working
	return working.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	e, ok := m.entries.LoadAndDelete(id)
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*models.Session, error) {
	out := make([]*models.Session, 0, m.entries.Size())
	m.entries.Range(func(_ string, e *memoryEntry) bool {
		e.mu.Lock()
		if !e.deleted {
			out = append(out, e.session.Clone())
		}
		e.mu.Unlock()
		return true
	})
	return out, nil
}
