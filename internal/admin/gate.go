// Package admin decides who may run mutating developer operations.
package admin

import (
	"context"
	"strings"
	"time"

	"github.com/sbpremium/gifts-backend/pkg/auth"
	"github.com/sbpremium/gifts-backend/pkg/config"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
)

// Principal is the caller of an admin operation: the id the bot sent plus an
// optional admin token.
type Principal struct {
	ID    string
	Token string
}

// Gate authorizes admin operations. A nil error means allowed.
type Gate interface {
	Authorize(ctx context.Context, p Principal) error
}

var errForbidden = pkgerrors.New(pkgerrors.CodeForbidden, "developer access required")

// IsForbidden reports whether err is an authorization denial.
func IsForbidden(err error) bool {
	return pkgerrors.Is(err, pkgerrors.CodeForbidden)
}

// StaticPolicy admits exactly one principal id.
type StaticPolicy struct {
	developerID string
}

func NewStaticPolicy(developerID string) *StaticPolicy {
	return &StaticPolicy{developerID: strings.TrimSpace(developerID)}
}

func (s *StaticPolicy) Authorize(_ context.Context, p Principal) error {
	if s.developerID == "" || strings.TrimSpace(p.ID) != s.developerID {
		return errForbidden
	}
	return nil
}

// TokenPolicy admits callers holding a valid developer token. When the caller
// also supplies an id it must match the token subject.
type TokenPolicy struct {
	cfg config.AdminConfig
	now func() time.Time
}

func NewTokenPolicy(cfg config.AdminConfig) *TokenPolicy {
	return &TokenPolicy{cfg: cfg, now: time.Now}
}

func (t *TokenPolicy) Authorize(_ context.Context, p Principal) error {
	token := strings.TrimSpace(p.Token)
	if token == "" {
		return errForbidden
	}
	claims, err := auth.ParseAdminToken(t.cfg, token, t.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid admin token")
	}
	if id := strings.TrimSpace(p.ID); id != "" && id != claims.Subject {
		return errForbidden
	}
	return nil
}

// NewGate builds the policy selected by SB_ADMIN_POLICY.
func NewGate(cfg config.AdminConfig) (Gate, error) {
	switch strings.ToLower(cfg.Policy) {
	case "", config.AdminPolicyStatic:
		return NewStaticPolicy(cfg.DeveloperID), nil
	case config.AdminPolicyToken:
		if cfg.TokenSecret == "" {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "admin token secret required")
		}
		return NewTokenPolicy(cfg), nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "unknown admin policy").WithDetails(map[string]any{"policy": cfg.Policy})
}
