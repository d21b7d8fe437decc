// Package common defines shared constants and sentinel errors used across
// client and server layers of Inkpad. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Editing-core error kinds. Each wraps the collaborator failure that
	// produced it; match with errors.Is.
	ErrLoad   = errors.New("document load failed")
	ErrSave   = errors.New("document save failed")
	ErrCreate = errors.New("document create failed")
	ErrDelete = errors.New("document delete failed")
	ErrToggle = errors.New("star toggle failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
