package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sbpremium/gifts-backend/pkg/docstore"
)

const (
	feedKey         = "feed"
	announcementKey = "current"
)

// FeedMutator edits the feed in append order. Returning an error aborts the write.
type FeedMutator func(feed []Notification) ([]Notification, error)

// AnnouncementMutator edits the persistent announcement; state is nil when none
// exists. Returning (nil, nil) leaves it untouched.
type AnnouncementMutator func(state *AnnouncementState) (*AnnouncementState, error)

// Repository exposes persistence helpers for the feed and the announcement singleton.
type Repository interface {
	Feed(ctx context.Context) ([]Notification, error)
	UpdateFeed(ctx context.Context, fn FeedMutator) error
	Announcement(ctx context.Context) (*AnnouncementState, error)
	UpdateAnnouncement(ctx context.Context, fn AnnouncementMutator) error
}

type repositoryImpl struct {
	store docstore.Store
}

// NewRepository returns a notifications repository on top of the document store.
func NewRepository(store docstore.Store) Repository {
	return &repositoryImpl{store: store}
}

func (r *repositoryImpl) Feed(ctx context.Context) ([]Notification, error) {
	body, err := r.store.Get(ctx, docstore.CollectionNotifications, feedKey)
	if errors.Is(err, docstore.ErrNotFound) {
		return []Notification{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeFeed(body)
}

func (r *repositoryImpl) UpdateFeed(ctx context.Context, fn FeedMutator) error {
	return r.store.Update(ctx, docstore.CollectionNotifications, feedKey, func(current []byte, exists bool) ([]byte, error) {
		feed := []Notification{}
		if exists {
			decoded, err := decodeFeed(current)
			if err != nil {
				return nil, err
			}
			feed = decoded
		}
		next, err := fn(feed)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}

func (r *repositoryImpl) Announcement(ctx context.Context) (*AnnouncementState, error) {
	body, err := r.store.Get(ctx, docstore.CollectionAnnouncement, announcementKey)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state AnnouncementState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("decode announcement: %w", err)
	}
	return &state, nil
}

func (r *repositoryImpl) UpdateAnnouncement(ctx context.Context, fn AnnouncementMutator) error {
	return r.store.Update(ctx, docstore.CollectionAnnouncement, announcementKey, func(current []byte, exists bool) ([]byte, error) {
		var state *AnnouncementState
		if exists {
			state = &AnnouncementState{}
			if err := json.Unmarshal(current, state); err != nil {
				return nil, fmt.Errorf("decode announcement: %w", err)
			}
		}
		next, err := fn(state)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, docstore.ErrSkipWrite
		}
		return json.Marshal(next)
	})
}

func decodeFeed(body []byte) ([]Notification, error) {
	var feed []Notification
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if feed == nil {
		feed = []Notification{}
	}
	return feed, nil
}
