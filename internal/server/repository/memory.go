package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkpad/internal/common"
	"inkpad/internal/document"
)

// InMemory implements Manager with plain maps. Used by tests and by the
// server's dev backend.
type InMemory struct {
	users  *memUsers
	tokens *memRefreshTokens
	docs   *memDocuments
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:  &memUsers{byName: make(map[string]*User)},
		tokens: &memRefreshTokens{byToken: make(map[string]*RefreshToken)},
		docs:   &memDocuments{byID: make(map[string]document.Document)},
	}
}

func (m *InMemory) Users() Users { return m.users }

func (m *InMemory) RefreshTokens() RefreshTokens { return m.tokens }

func (m *InMemory) Documents() Documents { return m.docs }

func (m *InMemory) Close() error { return nil }

type memUsers struct {
	mu     sync.Mutex
	byName map[string]*User
}

func (r *memUsers) Create(_ context.Context, u *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.Username]; ok {
		return nil, common.ErrAlreadyExists
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	stored := *u
	r.byName[u.Username] = &stored
	return u, nil
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

type memRefreshTokens struct {
	mu      sync.Mutex
	byToken map[string]*RefreshToken
}

func (r *memRefreshTokens) Save(_ context.Context, t *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	r.byToken[t.Token] = &stored
	return nil
}

func (r *memRefreshTokens) Get(_ context.Context, token string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *memRefreshTokens) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byToken, token)
	return nil
}

type memDocuments struct {
	mu   sync.Mutex
	byID map[string]document.Document
}

func (r *memDocuments) List(_ context.Context, userID, id string) ([]document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != "" {
		d, ok := r.byID[id]
		if !ok || d.UserID != userID {
			return nil, common.ErrNotFound
		}
		return []document.Document{d}, nil
	}
	docs := make([]document.Document, 0, len(r.byID))
	for _, d := range r.byID {
		if d.UserID == userID {
			docs = append(docs, d)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
	return docs, nil
}

func (r *memDocuments) Create(_ context.Context, d document.Document) (document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt = now
	d.UpdatedAt = now
	r.byID[d.ID] = d
	return d, nil
}

func (r *memDocuments) Update(_ context.Context, userID, id string, p document.Patch) (document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok || d.UserID != userID {
		return document.Document{}, common.ErrNotFound
	}
	p.Apply(&d, time.Now().UTC())
	r.byID[id] = d
	return d, nil
}

func (r *memDocuments) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok || d.UserID != userID {
		return common.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
