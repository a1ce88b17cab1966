package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// AdminSessionStore keeps issued admin tokens until they expire. Lookup
// returns the user id the token was issued for, or domain.ErrSessionExpired
// when the token is unknown or past its TTL.
type AdminSessionStore interface {
	Save(ctx context.Context, token, userID string) error
	Lookup(ctx context.Context, token string) (string, error)
}

// newSessionToken returns an opaque URL-safe token for an admin session.
func newSessionToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
