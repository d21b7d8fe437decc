// Package document defines the persisted document entity and the partial
// update shape the store accepts.
package document

import "time"

// Document is a persisted title+rich-text record owned by one user identity.
//
// ID and UserID are immutable once assigned by the store. Content is an
// opaque serialized rich-text blob; nothing in this module parses it.
// UpdatedAt is rewritten by the store on every successful mutation and is
// monotonically non-decreasing.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	IsStarred bool      `json:"is_starred"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left untouched by the store;
// set fields are merged into the existing record, which also refreshes
// UpdatedAt.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	IsStarred *bool   `json:"is_starred,omitempty"`
}

// IsEmpty reports whether the patch carries no changes.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.IsStarred == nil
}

// Apply merges the patch into d and sets UpdatedAt to now. Store backends
// that keep documents in process memory use it as the single merge path.
func (p Patch) Apply(d *Document, now time.Time) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.IsStarred != nil {
		d.IsStarred = *p.IsStarred
	}
	if now.After(d.UpdatedAt) {
		d.UpdatedAt = now
	}
}

// String returns a pointer to s, for building Patch literals.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building Patch literals.
func Bool(b bool) *bool { return &b }
