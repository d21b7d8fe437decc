package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inkpad/internal/common"
)

func authTestHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seenUserID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		seenUserID = id
		w.WriteHeader(http.StatusOK)
	})
	return Middleware([]byte("test-secret"))(inner), &seenUserID
}

func TestMiddleware_BearerHeader(t *testing.T) {
	handler, seen := authTestHandler(t)

	tok, err := GenerateToken("u1", []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", *seen)
}

func TestMiddleware_QueryParam(t *testing.T) {
	handler, seen := authTestHandler(t)

	tok, err := GenerateToken("u2", []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+tok, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u2", *seen)
}

func TestMiddleware_MissingToken(t *testing.T) {
	handler, _ := authTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_ExpiredTokenBody(t *testing.T) {
	handler, _ := authTestHandler(t)

	tok, err := GenerateToken("u1", []byte("test-secret"), -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, common.ErrTokenExpired.Error(), body["error"])
}
