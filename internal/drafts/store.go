// Package drafts persists unpublished posts on the device.
//
// Drafts are intentionally device-local: they live in a SQLite file and are
// never synced to the remote data service.
package drafts

import (
	"context"
	"errors"
	"time"

	"campusnet/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the local draft repository.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the draft database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.Draft{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection. Used by tests.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save inserts or updates a draft. A draft without an ID gets one.
func (s *Store) Save(ctx context.Context, draft *models.Draft) error {
	if draft.DraftID == "" {
		draft.DraftID = uuid.NewString()
	}
	draft.UpdatedAt = time.Now()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = draft.UpdatedAt
	}
	return s.db.WithContext(ctx).Save(draft).Error
}

// Get returns the draft with the given ID.
func (s *Store) Get(ctx context.Context, draftID string) (*models.Draft, error) {
	var draft models.Draft
	err := s.db.WithContext(ctx).First(&draft, "draft_id = ?", draftID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Draft", draftID)
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// List returns all drafts, most recently updated first.
func (s *Store) List(ctx context.Context) ([]models.Draft, error) {
	var out []models.Draft
	err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&out).Error
	return out, err
}

// Delete removes the draft with the given ID. Deleting a missing draft is
// not an error.
func (s *Store) Delete(ctx context.Context, draftID string) error {
	return s.db.WithContext(ctx).Delete(&models.Draft{}, "draft_id = ?", draftID).Error
}
