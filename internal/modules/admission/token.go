package admission

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	tokenLength = 32

	// Largest multiple of 26 that fits a byte. Bytes at or above it are
	// rejected so every letter is drawn uniformly.
	letterByteLimit = 234
)

// NewSessionToken generates a fresh 32-character lowercase-letter token.
func NewSessionToken() (string, error) {
	out := make([]byte, 0, tokenLength)
	buf := make([]byte, tokenLength)
	for len(out) < tokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate session token: %w", err)
		}
		for _, b := range buf {
			letter, ok := letterFromByte(b)
			if !ok {
				continue
			}
			out = append(out, letter)
			if len(out) == tokenLength {
				break
			}
		}
	}
	return string(out), nil
}

func letterFromByte(b byte) (byte, bool) {
	if b >= letterByteLimit {
		return 0, false
	}
	return 'a' + b%26, true
}

// ParseBearer extracts a session token from an Authorization header value.
// The scheme is required; anything other than "Bearer <32 lowercase letters>"
// is treated as no token at all, so a malformed header never becomes an auth
// error, only a challenge.
func ParseBearer(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if len(value) < 7 || !strings.EqualFold(value[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(value[7:])
	if len(token) != tokenLength {
		return "", false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < 'a' || token[i] > 'z' {
			return "", false
		}
	}
	return token, true
}
