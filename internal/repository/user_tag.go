package repository

import (
	"context"
	"errors"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// UserTagFilter narrows a user tag listing. Zero fields are ignored.
type UserTagFilter struct {
	Kind      models.TaggableKind
	SubjectID uint
	TagID     uint
}

// UserTagRepository defines persistence operations for user tags.
type UserTagRepository interface {
	GetByID(ctx context.Context, id uint) (*models.UserTag, error)
	Create(ctx context.Context, ut *models.UserTag) error
	Delete(ctx context.Context, id uint) error
	// ListByUser returns the tags userID placed.
	ListByUser(ctx context.Context, userID uint, f UserTagFilter, page Page) ([]models.UserTag, error)
	// SubjectExists reports whether the entity a user tag points at exists.
	SubjectExists(ctx context.Context, kind models.TaggableKind, id uint) (bool, error)
}

type userTagRepository struct {
	crud[models.UserTag]
}

func NewUserTagRepository(db *gorm.DB) UserTagRepository {
	return &userTagRepository{crud: newCrud[models.UserTag](db, "UserTag")}
}

func (r *userTagRepository) GetByID(ctx context.Context, id uint) (*models.UserTag, error) {
	return r.find(ctx, id)
}

func (r *userTagRepository) Create(ctx context.Context, ut *models.UserTag) error {
	return r.create(ctx, ut)
}

func (r *userTagRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *userTagRepository) ListByUser(ctx context.Context, userID uint, f UserTagFilter, page Page) ([]models.UserTag, error) {
	return r.list(ctx, page, func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if f.Kind != "" {
			db = db.Where("subject_kind = ?", f.Kind)
		}
		if f.SubjectID != 0 {
			db = db.Where("subject_id = ?", f.SubjectID)
		}
		if f.TagID != 0 {
			db = db.Where("tag_id = ?", f.TagID)
		}
		return db
	}, ordered("user_tags"))
}

var subjectModels = map[models.TaggableKind]func() any{
	models.TaggablePost:  func() any { return &models.Post{} },
	models.TaggableMedia: func() any { return &models.Media{} },
	models.TaggableEvent: func() any { return &models.Event{} },
	models.TaggableUser:  func() any { return &models.User{} },
}

func (r *userTagRepository) SubjectExists(ctx context.Context, kind models.TaggableKind, id uint) (bool, error) {
	newModel, ok := subjectModels[kind]
	if !ok {
		return false, models.NewValidationError("Unknown subject kind")
	}
	err := readDB(r.db).WithContext(ctx).Select("id").First(newModel(), id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, models.NewInternalError(err)
	}
	return true, nil
}
