package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// APITokenSeparator splits the token id from its secret in "<id>.<secret>".
const APITokenSeparator = "."

// NewTokenSecret returns n random bytes encoded as unpadded base64url, which
// never contains APITokenSeparator.
func NewTokenSecret(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("secret length must be positive")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// JoinAPIToken builds the plaintext token handed to the client.
func JoinAPIToken(id, secret string) string {
	return id + APITokenSeparator + secret
}

// SplitAPIToken is the inverse of JoinAPIToken.
func SplitAPIToken(token string) (id, secret string, ok bool) {
	id, secret, ok = strings.Cut(token, APITokenSeparator)
	if !ok || id == "" || secret == "" {
		return "", "", false
	}
	return id, secret, true
}
