package repository

import (
	"context"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// UniqueRepository stores marker rows. They are never updated or removed
// through the API.
type UniqueRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Unique, error)
	Create(ctx context.Context, u *models.Unique) error
	List(ctx context.Context, page Page) ([]models.Unique, error)
}

type uniqueRepository struct {
	crud[models.Unique]
}

func NewUniqueRepository(db *gorm.DB) UniqueRepository {
	return &uniqueRepository{crud: newCrud[models.Unique](db, "Unique")}
}

func (r *uniqueRepository) GetByID(ctx context.Context, id uint) (*models.Unique, error) {
	return r.find(ctx, id)
}

func (r *uniqueRepository) Create(ctx context.Context, u *models.Unique) error {
	return r.create(ctx, u)
}

func (r *uniqueRepository) List(ctx context.Context, page Page) ([]models.Unique, error) {
	return r.list(ctx, page, ordered("uniques"))
}
