// Package auth implements bearer session tokens signed with the server's
// session secret, and the middleware that verifies them.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ContextKey is used to store user information in the request context.
type ContextKey string

const (
	// UserIDKey is the context key for storing the user ID.
	UserIDKey ContextKey = "user_id"
	// AuthHeaderName is the name of the authentication header.
	AuthHeaderName = "Authorization"
)

var (
	ErrNoUser       = errors.New("no authenticated user in context")
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// Sessions issues and verifies signed session tokens. A token is
// "userID:expiresMillis:signature" where the signature is an HMAC-SHA256 of
// the first two segments under the session secret.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Sessions{secret: secret, ttl: ttl, now: time.Now}
}

// IssueToken mints a session token for the user.
func (s *Sessions) IssueToken(userID string) string {
	expires := s.now().Add(s.ttl).UnixMilli()
	payload := fmt.Sprintf("%s:%d", userID, expires)

	return payload + ":" + s.sign(payload)
}

// VerifyToken returns the user ID embedded in a valid, unexpired token.
func (s *Sessions) VerifyToken(token string) (string, error) {
	idx := strings.LastIndex(token, ":")
	if idx <= 0 {
		return "", ErrInvalidToken
	}

	payload, signature := token[:idx], token[idx+1:]

	if !hmac.Equal([]byte(signature), []byte(s.sign(payload))) {
		return "", ErrInvalidToken
	}

	sep := strings.LastIndex(payload, ":")
	if sep <= 0 {
		return "", ErrInvalidToken
	}

	userID := payload[:sep]

	expires, err := strconv.ParseInt(payload[sep+1:], 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}

	if s.now().UnixMilli() > expires {
		return "", ErrTokenExpired
	}

	return userID, nil
}

func (s *Sessions) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate rejects requests without a valid bearer token and stores the
// user ID in the request context.
func (s *Sessions) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get(AuthHeaderName)
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Unauthorized: invalid authorization format", http.StatusUnauthorized)
			return
		}

		userID, err := s.VerifyToken(parts[1])
		if err != nil {
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the authenticated user ID from the context.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return "", ErrNoUser
	}

	return userID, nil
}
