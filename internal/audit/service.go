// Package audit keeps the append-only trail of developer actions.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
	"github.com/sbpremium/gifts-backend/pkg/pagination"
)

// Recorder is the write side used by the gift and notification services.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Service records and lists developer actions.
type Service interface {
	Recorder
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
}

// ListResult is one page of the audit trail.
type ListResult struct {
	Items  []DeveloperAction `json:"items"`
	Cursor string            `json:"cursor"`
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the audit dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Record stores the entry. Failures are logged and swallowed so the admin
// operation that triggered them still succeeds.
func (s *service) Record(ctx context.Context, entry Entry) {
	action := DeveloperAction{
		ID:          uuid.New(),
		Action:      entry.Action,
		InitiatedBy: entry.InitiatedBy,
		TargetID:    entry.TargetID,
		Message:     entry.Message,
		Duration:    entry.Duration,
		Timestamp:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, action); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"action":       string(action.Action),
			"initiated_by": action.InitiatedBy,
		})
		s.logg.Error(logCtx, "audit.record_failed", err)
	}
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list developer actions")
	}
	items, next, err := pagination.Page(all, params, func(a DeveloperAction) pagination.Cursor {
		return pagination.Cursor{At: a.Timestamp, ID: a.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return &ListResult{Items: items, Cursor: next}, nil
}
