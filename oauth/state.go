package oauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// State binds an in-flight authorization to a user and platform. It is
// round-tripped through the provider and verified on return; the signature
// prevents a crafted callback from binding a stolen code to another user.
type State struct {
	UserID   string
	Platform string
	IssuedAt time.Time
}

// EncodeState produces "userID:platform:issuedMillis:signature" where the
// signature is HMAC-SHA256 over the first three segments.
func EncodeState(secret []byte, s State) string {
	payload := fmt.Sprintf("%s:%s:%d", s.UserID, s.Platform, s.IssuedAt.UnixMilli())

	return payload + ":" + signState(secret, payload)
}

// DecodeState parses raw and verifies its signature and age. All failures map
// to ErrInvalidCallback; the embedded user id is never trusted before the
// signature checks out.
func DecodeState(secret []byte, raw string, maxAge time.Duration, now time.Time) (State, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 4 {
		return State{}, fmt.Errorf("%w: malformed state", ErrInvalidCallback)
	}

	payload := strings.Join(parts[:3], ":")
	if !hmac.Equal([]byte(signState(secret, payload)), []byte(parts[3])) {
		return State{}, fmt.Errorf("%w: state signature mismatch", ErrInvalidCallback)
	}

	millis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return State{}, fmt.Errorf("%w: malformed state timestamp", ErrInvalidCallback)
	}

	issuedAt := time.UnixMilli(millis)
	if maxAge > 0 && now.Sub(issuedAt) > maxAge {
		return State{}, fmt.Errorf("%w: state expired", ErrInvalidCallback)
	}

	if parts[0] == "" || parts[1] == "" {
		return State{}, fmt.Errorf("%w: empty state fields", ErrInvalidCallback)
	}

	return State{UserID: parts[0], Platform: parts[1], IssuedAt: issuedAt}, nil
}

func signState(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil))
}
