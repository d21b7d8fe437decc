package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inkpad/internal/common"
	"inkpad/internal/server/repository"
)

func newTestService(t *testing.T) (*Service, repository.Manager) {
	t.Helper()
	repos := repository.NewInMemory()
	svc := NewService(repos.Users(), repos.RefreshTokens(),
		[]byte("test-secret"), time.Hour, 24*time.Hour)
	return svc, repos
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, "alice", "pass123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := GetUserIDFromToken(pair.AccessToken, []byte("test-secret"))
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	loggedIn, err := svc.Login(ctx, "alice", "pass123")
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, loggedIn.RefreshToken)
}

func TestService_Register_Duplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pass123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other")
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestService_Login_BadPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pass123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody", "pass123")
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestService_Refresh_Rotates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, "alice", "pass123")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The old token was consumed by the rotation.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestService_Refresh_Expired(t *testing.T) {
	repos := repository.NewInMemory()
	svc := NewService(repos.Users(), repos.RefreshTokens(),
		[]byte("test-secret"), time.Hour, -time.Minute)
	ctx := context.Background()

	pair, err := svc.Register(ctx, "alice", "pass123")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}
