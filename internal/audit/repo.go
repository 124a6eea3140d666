package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sbpremium/gifts-backend/pkg/docstore"
)

// Repository persists audit entries, one document per action.
type Repository interface {
	Create(ctx context.Context, action DeveloperAction) error
	List(ctx context.Context) ([]DeveloperAction, error)
}

type repositoryImpl struct {
	store docstore.Store
}

// NewRepository returns an audit repository on top of the document store.
func NewRepository(store docstore.Store) Repository {
	return &repositoryImpl{store: store}
}

func (r *repositoryImpl) Create(ctx context.Context, action DeveloperAction) error {
	body, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encode developer action: %w", err)
	}
	return r.store.Put(ctx, docstore.CollectionDeveloperActions, action.ID.String(), body)
}

// List returns every action, newest first.
func (r *repositoryImpl) List(ctx context.Context) ([]DeveloperAction, error) {
	docs, err := r.store.List(ctx, docstore.CollectionDeveloperActions)
	if err != nil {
		return nil, err
	}
	out := make([]DeveloperAction, 0, len(docs))
	for _, doc := range docs {
		var action DeveloperAction
		if err := json.Unmarshal(doc.Body, &action); err != nil {
			return nil, fmt.Errorf("decode developer action %s: %w", doc.Key, err)
		}
		out = append(out, action)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) > 0
	})
	return out, nil
}
