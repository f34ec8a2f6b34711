package repository

import (
	"context"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// MediaRepository defines persistence operations for media.
type MediaRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Media, error)
	Create(ctx context.Context, m *models.Media) error
	Update(ctx context.Context, m *models.Media, fields ...string) error
	SetTags(ctx context.Context, mediaID uint, tagIDs []uint) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page Page) ([]models.Media, error)
	// ListOwned returns owner's media, narrowed by f when present.
	ListOwned(ctx context.Context, owner uint, f TagFilter, page Page) ([]models.Media, error)
}

type mediaRepository struct {
	crud[models.Media]
}

// NewMediaRepository returns a new MediaRepository implementation.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{crud: newCrud[models.Media](db, "Media")}
}

func (r *mediaRepository) GetByID(ctx context.Context, id uint) (*models.Media, error) {
	m, err := r.find(ctx, id, "Tags")
	if err != nil {
		return nil, err
	}
	m.CollectTagIDs()
	return m, nil
}

// Create inserts m together with the tags listed in m.TagIDs.
func (r *mediaRepository) Create(ctx context.Context, m *models.Media) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTagsExist(tx, m.TagIDs); err != nil {
			return err
		}
		m.Tags = nil
		if err := tx.Create(m).Error; err != nil {
			return wrapWriteError(err, "Media")
		}
		return insertMediaTags(tx, m.ID, m.TagIDs)
	})
}

func (r *mediaRepository) Update(ctx context.Context, m *models.Media, fields ...string) error {
	m.Tags = nil
	return r.update(ctx, m, fields...)
}

// SetTags replaces the media's tag set.
func (r *mediaRepository) SetTags(ctx context.Context, mediaID uint, tagIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTagsExist(tx, tagIDs); err != nil {
			return err
		}
		if err := tx.Where("media_id = ?", mediaID).Delete(&models.MediaTag{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return insertMediaTags(tx, mediaID, tagIDs)
	})
}

func insertMediaTags(tx *gorm.DB, mediaID uint, tagIDs []uint) error {
	ids := uniqueIDs(tagIDs)
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.MediaTag, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.MediaTag{MediaID: mediaID, TagID: id})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return wrapWriteError(err, "MediaTag")
	}
	return nil
}

func (r *mediaRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *mediaRepository) List(ctx context.Context, page Page) ([]models.Media, error) {
	return r.withTags(r.list(ctx, page, preloadTags, ordered("media")))
}

func (r *mediaRepository) ListOwned(ctx context.Context, owner uint, f TagFilter, page Page) ([]models.Media, error) {
	return r.withTags(r.list(ctx, page,
		preloadTags,
		ownedAndTagged("media", "media_tags", "media_id", owner, f),
		ordered("media"),
	))
}

func (r *mediaRepository) withTags(items []models.Media, err error) ([]models.Media, error) {
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].CollectTagIDs()
	}
	return items, nil
}

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags")
}
