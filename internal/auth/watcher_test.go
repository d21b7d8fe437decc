package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"inkpad/internal/common"
)

func TestWatcher_StartsLoading(t *testing.T) {
	w := NewWatcher()

	s := w.Current()
	require.True(t, s.IsLoading)
	require.Nil(t, s.User)
}

func TestWatcher_OnChangeFiresImmediatelyAndOnTransitions(t *testing.T) {
	w := NewWatcher()

	var got []State
	unsub := w.OnChange(func(s State) { got = append(got, s) })

	require.Len(t, got, 1, "subscriber learns the current state right away")
	require.True(t, got[0].IsLoading)

	w.Resolve(&Identity{ID: "u1", Username: "alice"})
	require.Len(t, got, 2)
	require.False(t, got[1].IsLoading)
	require.Equal(t, "u1", got[1].User.ID)

	// Sign-out.
	w.Resolve(nil)
	require.Len(t, got, 3)
	require.Nil(t, got[2].User)

	unsub()
	w.Resolve(&Identity{ID: "u2"})
	require.Len(t, got, 3, "unsubscribed callback must not fire")
}

func TestWatcher_ResetGoesBackToLoading(t *testing.T) {
	w := NewWatcher()
	w.Resolve(&Identity{ID: "u1"})

	w.Reset()
	s := w.Current()
	require.True(t, s.IsLoading)
	require.Nil(t, s.User)
}

func TestIdentityFromToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		UserID: "u1",
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	id, err := IdentityFromToken(signed, "alice")
	require.NoError(t, err)
	require.Equal(t, "u1", id.ID)
	require.Equal(t, "alice", id.Username)
}

func TestIdentityFromToken_Invalid(t *testing.T) {
	_, err := IdentityFromToken("not-a-jwt", "alice")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
