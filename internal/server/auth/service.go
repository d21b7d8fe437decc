package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"inkpad/internal/common"
	"inkpad/internal/server/repository"
)

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service implements registration, login and refresh token rotation over
// the user and token repositories.
type Service struct {
	users                        repository.Users
	refreshTokens                repository.RefreshTokens
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewService(users repository.Users, refreshTokens repository.RefreshTokens,
	jwtSecret []byte, accessValidity, refreshValidity time.Duration) *Service {
	return &Service{
		users:                        users,
		refreshTokens:                refreshTokens,
		jwtSecret:                    jwtSecret,
		accessTokenValidityDuration:  accessValidity,
		refreshTokenValidityDuration: refreshValidity,
	}
}

// Register creates an account and logs it in.
func (s *Service) Register(ctx context.Context, username, password string) (*TokenPair, error) {
	if username == "" || password == "" {
		return nil, common.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.users.Create(ctx, &repository.User{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, common.ErrInternal
	}

	return s.issueTokenPair(ctx, user.ID)
}

// Login verifies credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrUnauthorized
	}

	return s.issueTokenPair(ctx, user.ID)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed even when expired, so a stolen token works at most once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.refreshTokens.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}

	if err := s.refreshTokens.Delete(ctx, refreshToken); err != nil {
		return nil, common.ErrInternal
	}

	if time.Now().After(stored.ExpiresAt) {
		return nil, common.ErrRefreshTokenExpired
	}

	return s.issueTokenPair(ctx, stored.UserID)
}

func (s *Service) issueTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrInternal
	}

	err = s.refreshTokens.Save(ctx, &repository.RefreshToken{
		Token:     refreshToken,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, common.ErrInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
