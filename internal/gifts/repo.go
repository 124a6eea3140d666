package gifts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sbpremium/gifts-backend/pkg/docstore"
)

const siteWideKey = "current"

// CodesMutator edits one user's codes in order. An error aborts the write.
type CodesMutator func(codes []AccessCode) ([]AccessCode, error)

// SiteWideMutator edits the site-wide gift; gift is nil when none exists.
// Returning (nil, nil) leaves it untouched.
type SiteWideMutator func(gift *SiteWideGift) (*SiteWideGift, error)

// Repository exposes persistence helpers for personal and site-wide gifts.
type Repository interface {
	UserCodes(ctx context.Context, userID string) ([]AccessCode, error)
	UpdateUserCodes(ctx context.Context, userID string, fn CodesMutator) error
	SiteWide(ctx context.Context) (*SiteWideGift, error)
	UpdateSiteWide(ctx context.Context, fn SiteWideMutator) error
}

type repositoryImpl struct {
	store docstore.Store
}

// NewRepository returns a gifts repository on top of the document store.
func NewRepository(store docstore.Store) Repository {
	return &repositoryImpl{store: store}
}

func (r *repositoryImpl) UserCodes(ctx context.Context, userID string) ([]AccessCode, error) {
	body, err := r.store.Get(ctx, docstore.CollectionGifts, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return []AccessCode{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCodes(body)
}

func (r *repositoryImpl) UpdateUserCodes(ctx context.Context, userID string, fn CodesMutator) error {
	return r.store.Update(ctx, docstore.CollectionGifts, userID, func(current []byte, exists bool) ([]byte, error) {
		codes := []AccessCode{}
		if exists {
			decoded, err := decodeCodes(current)
			if err != nil {
				return nil, err
			}
			codes = decoded
		}
		next, err := fn(codes)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}

func (r *repositoryImpl) SiteWide(ctx context.Context) (*SiteWideGift, error) {
	body, err := r.store.Get(ctx, docstore.CollectionSiteWideGift, siteWideKey)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var gift SiteWideGift
	if err := json.Unmarshal(body, &gift); err != nil {
		return nil, fmt.Errorf("decode site-wide gift: %w", err)
	}
	return &gift, nil
}

func (r *repositoryImpl) UpdateSiteWide(ctx context.Context, fn SiteWideMutator) error {
	return r.store.Update(ctx, docstore.CollectionSiteWideGift, siteWideKey, func(current []byte, exists bool) ([]byte, error) {
		var gift *SiteWideGift
		if exists {
			gift = &SiteWideGift{}
			if err := json.Unmarshal(current, gift); err != nil {
				return nil, fmt.Errorf("decode site-wide gift: %w", err)
			}
		}
		next, err := fn(gift)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, docstore.ErrSkipWrite
		}
		return json.Marshal(next)
	})
}

func decodeCodes(body []byte) ([]AccessCode, error) {
	var codes []AccessCode
	if err := json.Unmarshal(body, &codes); err != nil {
		return nil, fmt.Errorf("decode gifts: %w", err)
	}
	if codes == nil {
		codes = []AccessCode{}
	}
	return codes, nil
}
