package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdfgallery/pdfgallery/internal/document"
)

var (
	ErrNotFound = errors.New("attachment not found")
)

// AttachmentRepository is the read/write surface of the media library.
type AttachmentRepository interface {
	Create(ctx context.Context, a *document.Attachment) (string, error)
	Get(ctx context.Context, id string) (*document.Attachment, error)
	List(ctx context.Context) ([]*document.Attachment, error)
	Delete(ctx context.Context, id string) error
}

// MemoryRepo is an in-memory media library used when no MongoDB is
// configured and in unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Attachment
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Attachment)}
}

func (m *MemoryRepo) Create(_ context.Context, a *document.Attachment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if _, ok := m.store[a.ID]; !ok {
		m.order = append(m.order, a.ID)
	}
	cp := *a
	m.store[a.ID] = &cp
	return a.ID, nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*document.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.store[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrNotFound
}

// List returns attachments in insertion order, oldest first.
func (m *MemoryRepo) List(_ context.Context) ([]*document.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Attachment, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.store[id]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
