// Package notifications owns the capped developer feed and the persistent
// announcement that re-appears on read once its interval has elapsed.
package notifications

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sbpremium/gifts-backend/internal/admin"
	"github.com/sbpremium/gifts-backend/internal/audit"
	"github.com/sbpremium/gifts-backend/internal/delivery"
	"github.com/sbpremium/gifts-backend/pkg/enums"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
	"github.com/sbpremium/gifts-backend/pkg/metrics"
)

// Appender is the write side other services use to post feed entries.
type Appender interface {
	Append(ctx context.Context, entry Entry) (*Notification, error)
}

// Service defines the feed operations.
type Service interface {
	Appender
	Announce(ctx context.Context, caller admin.Principal, req AnnounceRequest) (*Notification, error)
	List(ctx context.Context) ([]Notification, error)
	DeleteLastAnnouncement(ctx context.Context, caller admin.Principal) error
}

// Options configures the feed.
type Options struct {
	Retention      int
	RepeatInterval time.Duration
}

// Deps groups the collaborators of the service.
type Deps struct {
	Repo      Repository
	Gate      admin.Gate
	Audit     audit.Recorder
	Publisher delivery.Publisher
	Metrics   *metrics.Domain
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	gate      admin.Gate
	audit     audit.Recorder
	publisher delivery.Publisher
	metrics   *metrics.Domain
	logg      *logger.Logger

	retention int
	interval  time.Duration
	now       func() time.Time
}

var errNoAnnouncement = pkgerrors.New(pkgerrors.CodeNotFound, "no announcement found")

// NewService wires notifications dependencies.
func NewService(deps Deps, opts Options) (Service, error) {
	if deps.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if deps.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admin gate required")
	}
	if deps.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if deps.Publisher == nil {
		deps.Publisher = delivery.Nop{}
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.RepeatInterval <= 0 {
		opts.RepeatInterval = DefaultRepeatInterval
	}
	return &service{
		repo:      deps.Repo,
		gate:      deps.Gate,
		audit:     deps.Audit,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		retention: opts.Retention,
		interval:  opts.RepeatInterval,
		now:       time.Now,
	}, nil
}

func (s *service) Append(ctx context.Context, entry Entry) (*Notification, error) {
	if !entry.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	n := Notification{
		ID:        uuid.New(),
		Type:      entry.Type,
		Title:     entry.Title,
		Message:   entry.Message,
		Author:    entry.Author,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.UpdateFeed(ctx, func(feed []Notification) ([]Notification, error) {
		return s.capped(append(feed, n)), nil
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "append notification")
	}
	s.metrics.IncNotification(string(n.Type))
	return &n, nil
}

func (s *service) Announce(ctx context.Context, caller admin.Principal, req AnnounceRequest) (*Notification, error) {
	if err := s.gate.Authorize(ctx, caller); err != nil {
		s.metrics.IncAdminDenied(string(enums.DeveloperActionAnnounce))
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(message) < MinAnnouncementLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message must be at least 5 characters")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultAnnouncementTitle
	}
	author := authorOf(caller)

	n, err := s.Append(ctx, Entry{
		Type:    enums.NotificationTypeAnnouncement,
		Title:   title,
		Message: message,
		Author:  author,
	})
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateAnnouncement(ctx, func(state *AnnouncementState) (*AnnouncementState, error) {
		if req.Persistent {
			return &AnnouncementState{
				Title:    title,
				Message:  message,
				Author:   author,
				LastSent: n.Timestamp,
				IsActive: true,
			}, nil
		}
		if state == nil || !state.IsActive {
			return nil, nil
		}
		state.IsActive = false
		return state, nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update persistent announcement")
	}

	s.record(ctx, audit.Entry{
		Action:      enums.DeveloperActionAnnounce,
		InitiatedBy: author,
		Message:     message,
	})
	s.publisher.Publish(ctx, delivery.Event{
		Type:    enums.DeliveryEventAnnouncement,
		ActorID: author,
		Title:   title,
		Message: message,
	})
	return n, nil
}

// List runs the repeat check, then returns the feed newest first. Storage
// failures degrade to an empty feed.
func (s *service) List(ctx context.Context) ([]Notification, error) {
	now := s.now().UTC()
	if err := s.repeatIfDue(ctx, now); err != nil {
		s.logg.Error(ctx, "notifications.repeat_failed", err)
	}

	feed, err := s.repo.Feed(ctx)
	if err != nil {
		s.logg.Error(ctx, "notifications.read_failed", err)
		return []Notification{}, nil
	}
	return newestFirst(feed), nil
}

func (s *service) repeatIfDue(ctx context.Context, now time.Time) error {
	var due *AnnouncementState
	err := s.repo.UpdateAnnouncement(ctx, func(state *AnnouncementState) (*AnnouncementState, error) {
		if state == nil || !DueForRepeat(*state, now, s.interval) {
			return nil, nil
		}
		snapshot := *state
		due = &snapshot
		next := Advance(*state, now)
		return &next, nil
	})
	if err != nil || due == nil {
		return err
	}

	copyOf := Notification{
		ID:        uuid.New(),
		Type:      enums.NotificationTypeAnnouncement,
		Title:     repeatingTitlePrefix + due.Title,
		Message:   due.Message,
		Author:    due.Author,
		Timestamp: now,
		Repeating: true,
	}
	err = s.repo.UpdateFeed(ctx, func(feed []Notification) ([]Notification, error) {
		kept := feed[:0]
		for _, n := range feed {
			if n.Type == enums.NotificationTypeAnnouncement && n.Message == due.Message {
				continue
			}
			kept = append(kept, n)
		}
		return s.capped(append(kept, copyOf)), nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncAnnouncementRepeat()
	s.metrics.IncNotification(string(copyOf.Type))
	return nil
}

func (s *service) DeleteLastAnnouncement(ctx context.Context, caller admin.Principal) error {
	if err := s.gate.Authorize(ctx, caller); err != nil {
		s.metrics.IncAdminDenied(string(enums.DeveloperActionDeleteAnnouncement))
		return err
	}

	var removed Notification
	err := s.repo.UpdateFeed(ctx, func(feed []Notification) ([]Notification, error) {
		for i := len(feed) - 1; i >= 0; i-- {
			if feed[i].Type != enums.NotificationTypeAnnouncement {
				continue
			}
			removed = feed[i]
			return append(feed[:i], feed[i+1:]...), nil
		}
		return nil, errNoAnnouncement
	})
	if errors.Is(err, errNoAnnouncement) {
		return errNoAnnouncement
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete announcement")
	}

	err = s.repo.UpdateAnnouncement(ctx, func(state *AnnouncementState) (*AnnouncementState, error) {
		if state == nil || !state.IsActive || state.Message != removed.Message {
			return nil, nil
		}
		state.IsActive = false
		return state, nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "deactivate persistent announcement")
	}

	s.record(ctx, audit.Entry{
		Action:      enums.DeveloperActionDeleteAnnouncement,
		InitiatedBy: authorOf(caller),
		TargetID:    removed.ID.String(),
		Message:     removed.Message,
	})
	return nil
}

func (s *service) capped(feed []Notification) []Notification {
	if len(feed) <= s.retention {
		return feed
	}
	return feed[len(feed)-s.retention:]
}

func (s *service) record(ctx context.Context, entry audit.Entry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}

// newestFirst orders by timestamp descending; equal timestamps keep the later
// insertion first.
func newestFirst(feed []Notification) []Notification {
	out := make([]Notification, len(feed))
	for i := range feed {
		out[len(feed)-1-i] = feed[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func authorOf(caller admin.Principal) string {
	if id := strings.TrimSpace(caller.ID); id != "" {
		return id
	}
	return "developer"
}
