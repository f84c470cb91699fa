// Package auth holds the credential primitives of the server: opaque
// session tokens, time-based one-time codes, the hashed knowledge factor
// and display masking.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the entropy of a session token.
const TokenBytes = 32

// GenerateToken returns a fresh opaque token (base64url, no padding).
// The plaintext is handed to the client once and never stored.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the hex SHA-256 digest under which a token is stored.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenRef is a short, non-reversible reference to a token for logs.
func TokenRef(token string) string {
	return HashToken(token)[:12]
}
