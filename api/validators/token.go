package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// BearerToken extracts the credential from an Authorization header value.
// An empty header yields an empty token and no error.
func BearerToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(raw[7:])
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
