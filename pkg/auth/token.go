package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sbpremium/gifts-backend/pkg/config"
	"github.com/sbpremium/gifts-backend/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAdminToken issues a signed developer token for subject.
func MintAdminToken(cfg config.AdminConfig, now time.Time, subject string) (string, error) {
	if cfg.TokenSecret == "" {
		return "", fmt.Errorf("admin token secret is required")
	}
	if cfg.TokenIssuer == "" {
		return "", fmt.Errorf("admin token issuer is required")
	}
	if cfg.TokenTTL <= 0 {
		return "", fmt.Errorf("admin token ttl must be positive")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("admin token subject is required")
	}

	claims := AdminTokenClaims{
		Role: enums.AdminRoleDeveloper,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.TokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.TokenSecret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAdminToken validates signature, issuer and expiry, returning typed claims.
func ParseAdminToken(cfg config.AdminConfig, tokenString string, now time.Time) (*AdminTokenClaims, error) {
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("admin token secret is required")
	}

	claims := &AdminTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.TokenSecret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.TokenIssuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("invalid admin role %q", claims.Role)
	}
	return claims, nil
}
