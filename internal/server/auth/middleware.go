package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"inkpad/internal/common"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFromContext returns the authenticated user id placed by Middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// Middleware authenticates requests with a bearer access token. WebSocket
// upgrades cannot set custom headers from browsers, so a token query
// parameter is accepted as a fallback. Failures are JSON so clients can
// tell an expired token from a bad one.
func Middleware(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ""
			if h := r.Header.Get(common.AuthorizationHeader); strings.HasPrefix(h, common.BearerPrefix) {
				tokenString = strings.TrimPrefix(h, common.BearerPrefix)
			}
			if tokenString == "" {
				tokenString = r.URL.Query().Get(common.AccessTokenQueryParam)
			}
			if tokenString == "" {
				writeAuthError(w, common.ErrUnauthorized)
				return
			}

			userID, err := GetUserIDFromToken(tokenString, secretKey)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	msg := common.ErrUnauthorized.Error()
	if errors.Is(err, common.ErrTokenExpired) {
		msg = common.ErrTokenExpired.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
