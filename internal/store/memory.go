package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkpad/internal/common"
	"inkpad/internal/document"
)

// Memory is an in-process Store used as a test double; Seed loads fixtures
// with caller-chosen ids and timestamps.
type Memory struct {
	mu   sync.Mutex
	docs map[string]document.Document

	// Now is the clock used for assigned timestamps. Swappable in tests.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]document.Document), Now: time.Now}
}

func (m *Memory) List(_ context.Context, f Filter) ([]document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []document.Document
	for _, d := range m.docs {
		if f.ID != "" && d.ID != f.ID {
			continue
		}
		if f.UserID != "" && d.UserID != f.UserID {
			continue
		}
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (m *Memory) Create(_ context.Context, d document.Document) (document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	d.ID = uuid.NewString()
	d.CreatedAt = now
	d.UpdatedAt = now
	m.docs[d.ID] = d
	return d, nil
}

func (m *Memory) Update(_ context.Context, id string, p document.Patch) (document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return document.Document{}, common.ErrNotFound
	}
	p.Apply(&d, m.Now())
	m.docs[id] = d
	return d, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

// Seed inserts a document as-is, keeping the caller's id and timestamps.
func (m *Memory) Seed(d document.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.ID] = d
}
