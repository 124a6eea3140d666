package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sbpremium/gifts-backend/pkg/db"
	"github.com/sbpremium/gifts-backend/pkg/db/models"
)

const defaultMaxUpdateAttempts = 8

// errVersionMoved rolls back an attempt that lost a race to another writer.
var errVersionMoved = errors.New("docstore: document version moved")

// GormStore keeps documents in the SQL `documents` table (Postgres or SQLite).
// Update reads and writes inside one transaction and commits only when the
// row version is unchanged.
type GormStore struct {
	client      *db.Client
	db          *gorm.DB
	maxAttempts int
	now         func() time.Time
}

func NewGormStore(client *db.Client) (*GormStore, error) {
	if client == nil || client.DB() == nil {
		return nil, errors.New("database client required")
	}
	return &GormStore{client: client, db: client.DB(), maxAttempts: defaultMaxUpdateAttempts, now: time.Now}, nil
}

func (s *GormStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	row, err := s.find(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return []byte(row.Body), nil
}

func (s *GormStore) Put(ctx context.Context, collection, key string, body []byte) error {
	row := models.Document{
		Collection: collection,
		DocKey:     key,
		Body:       string(body),
		Version:    1,
		UpdatedAt:  s.now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "collection"}, {Name: "doc_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"body":       row.Body,
			"version":    gorm.Expr("documents.version + 1"),
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error
}

func (s *GormStore) List(ctx context.Context, collection string) ([]Document, error) {
	var rows []models.Document
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_key ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, toDocument(row))
	}
	return docs, nil
}

func (s *GormStore) Update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
			return s.updateOnce(tx, collection, key, fn)
		})
		switch {
		case errors.Is(err, errVersionMoved):
			continue
		case errors.Is(err, ErrSkipWrite):
			return nil
		default:
			return err
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrConflict, collection, key)
}

func (s *GormStore) updateOnce(tx *gorm.DB, collection, key string, fn UpdateFunc) error {
	row, err := findIn(tx, collection, key)
	if err != nil {
		return err
	}

	var current []byte
	if row != nil {
		current = []byte(row.Body)
	}
	next, err := fn(current, row != nil)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if row == nil {
		createErr := tx.Create(&models.Document{
			Collection: collection,
			DocKey:     key,
			Body:       string(next),
			Version:    1,
			UpdatedAt:  now,
		}).Error
		if errors.Is(createErr, gorm.ErrDuplicatedKey) || db.IsUniqueViolation(createErr, "") {
			return errVersionMoved
		}
		return createErr
	}

	result := tx.Model(&models.Document{}).
		Where("collection = ? AND doc_key = ? AND version = ?", collection, key, row.Version).
		Updates(map[string]any{
			"body":       string(next),
			"version":    row.Version + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return errVersionMoved
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) find(ctx context.Context, collection, key string) (*models.Document, error) {
	return findIn(s.db.WithContext(ctx), collection, key)
}

func findIn(conn *gorm.DB, collection, key string) (*models.Document, error) {
	var rows []models.Document
	if err := conn.
		Where("collection = ? AND doc_key = ?", collection, key).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func toDocument(row models.Document) Document {
	return Document{
		Collection: row.Collection,
		Key:        row.DocKey,
		Body:       []byte(row.Body),
		Version:    row.Version,
		UpdatedAt:  row.UpdatedAt,
	}
}
