// Package docstore is the persistence port every domain repository sits on.
//
// Documents are opaque JSON bodies addressed by (collection, key). Any mutation
// that has to hold an invariant across concurrent requests goes through Update,
// which each backend runs as an atomic read-modify-write.
package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when the document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrSkipWrite may be returned from an UpdateFunc to leave the document untouched.
	ErrSkipWrite = errors.New("docstore: skip write")
	// ErrConflict is returned when an optimistic update kept losing races.
	ErrConflict = errors.New("docstore: too many concurrent updates")
	// ErrCorrupt marks a collection whose backing data could not be decoded.
	ErrCorrupt = errors.New("docstore: collection is corrupt")
)

// Document is one stored record.
type Document struct {
	Collection string
	Key        string
	Body       []byte
	Version    int64
	UpdatedAt  time.Time
}

// UpdateFunc receives the current body (nil when absent) and returns the next one.
// It must not call back into the store.
type UpdateFunc func(current []byte, exists bool) ([]byte, error)

// Store is the storage port.
type Store interface {
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Put(ctx context.Context, collection, key string, body []byte) error
	List(ctx context.Context, collection string) ([]Document, error)
	Update(ctx context.Context, collection, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
}

// Collection names shared by the repositories.
const (
	CollectionGifts            = "gifts"
	CollectionSiteWideGift     = "site_wide_gift"
	CollectionNotifications    = "notifications"
	CollectionAnnouncement     = "persistent_announcement"
	CollectionDeveloperActions = "developer_actions"
)
