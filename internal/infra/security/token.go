package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the amount of randomness behind every lifecycle token (256 bits).
const TokenBytes = 32

// GenerateSecureToken returns a base64 URL-safe random string using the specified number of random bytes.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GeneratePrefixedToken returns prefix + "_" + a TokenBytes-long random token.
func GeneratePrefixedToken(prefix string) (string, error) {
	raw, err := GenerateSecureToken(TokenBytes)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return raw, nil
	}
	return prefix + "_" + raw, nil
}

// HashToken calculates a SHA-256 hash of the provided value.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
