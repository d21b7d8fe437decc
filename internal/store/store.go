// Package store defines the document store collaborator as the editing core
// consumes it, plus the concrete implementations: an HTTP client speaking to
// the Inkpad server and an in-memory store used by tests.
package store

import (
	"context"

	"inkpad/internal/document"
)

// Filter narrows a List call. Zero fields are ignored; set fields must all
// match. The store never returns partial matches.
type Filter struct {
	ID     string
	UserID string
}

// Store is the surface of the remote document store the editing core calls.
//
// All operations are scoped to the authenticated owner: List never returns
// another user's documents and mutations of them fail with ErrNotFound.
type Store interface {
	// List returns the documents matching all set filter fields, ordered by
	// UpdatedAt descending. An empty result is not an error.
	List(ctx context.Context, f Filter) ([]document.Document, error)

	// Create persists a new document. The store assigns ID and timestamps
	// and returns the full created record.
	Create(ctx context.Context, d document.Document) (document.Document, error)

	// Update merges the patch into the record with the given id and
	// refreshes UpdatedAt. Fails with ErrNotFound if id does not exist.
	Update(ctx context.Context, id string, p document.Patch) (document.Document, error)

	// Delete removes the record. Deleting a missing id fails with ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Client is the full remote surface used by the client shell: the document
// operations plus account/session management.
type Client interface {
	Store

	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Ping(ctx context.Context) error
	Close() error
}
