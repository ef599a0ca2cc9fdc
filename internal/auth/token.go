package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Session token format: sess_{64 hex chars}
const (
	tokenPrefix    = "sess_"
	tokenSecretLen = 32 // bytes, hex encoded to 64 chars
)

var (
	// ErrInvalidTokenFormat indicates the session token format is invalid.
	ErrInvalidTokenFormat = errors.New("invalid session token format")

	tokenFormatRegex = regexp.MustCompile(`^sess_[a-f0-9]{64}$`)
)

// GenerateSessionToken creates a new random session token.
// The plaintext goes to the browser; only QuickHash(token) is stored.
func GenerateSessionToken() (string, error) {
	secret := make([]byte, tokenSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(secret), nil
}

// ValidateTokenFormat checks if the token matches the expected format.
func ValidateTokenFormat(token string) bool {
	return tokenFormatRegex.MatchString(token)
}
