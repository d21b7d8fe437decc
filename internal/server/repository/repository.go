// Package repository defines server-side persistence for users, refresh
// tokens and documents, with interchangeable Postgres, Redis and in-memory
// backends.
package repository

import (
	"context"
	"time"

	"inkpad/internal/document"
)

// User is a registered account.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// RefreshToken is one opaque refresh credential. Tokens rotate: using one
// deletes it and issues a replacement.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Users stores accounts.
type Users interface {
	// Create inserts a new account; the username must be unique
	// (common.ErrAlreadyExists otherwise).
	Create(ctx context.Context, u *User) (*User, error)
	// GetByUsername fails with common.ErrNotFound for unknown accounts.
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// RefreshTokens stores refresh credentials.
type RefreshTokens interface {
	Save(ctx context.Context, t *RefreshToken) error
	// Get fails with common.ErrNotFound for unknown or purged tokens.
	Get(ctx context.Context, token string) (*RefreshToken, error)
	Delete(ctx context.Context, token string) error
}

// Documents stores the document collection. Every operation is scoped to an
// owner: ids belonging to another user behave as missing.
type Documents interface {
	// List returns the owner's documents ordered by updated_at descending.
	// With a non-empty id it narrows to that document and fails with
	// common.ErrNotFound when it does not exist under this owner.
	List(ctx context.Context, userID, id string) ([]document.Document, error)
	// Create assigns id and timestamps and returns the stored record.
	Create(ctx context.Context, d document.Document) (document.Document, error)
	// Update merges the patch and refreshes updated_at;
	// common.ErrNotFound if the id does not exist under this owner.
	Update(ctx context.Context, userID, id string, p document.Patch) (document.Document, error)
	// Delete removes the record; common.ErrNotFound if missing.
	Delete(ctx context.Context, userID, id string) error
}

// Manager bundles the repositories of one backend.
type Manager interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Documents() Documents
	Close() error
}
