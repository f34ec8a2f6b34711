package repository

import (
	"context"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// LabelRepository defines persistence operations for relationship labels.
type LabelRepository interface {
	GetByID(ctx context.Context, id uint) (*models.RelationshipLabel, error)
	Create(ctx context.Context, l *models.RelationshipLabel) error
	Update(ctx context.Context, l *models.RelationshipLabel, fields ...string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page Page) ([]models.RelationshipLabel, error)
}

type labelRepository struct {
	crud[models.RelationshipLabel]
}

func NewLabelRepository(db *gorm.DB) LabelRepository {
	return &labelRepository{crud: newCrud[models.RelationshipLabel](db, "RelationshipLabel")}
}

func (r *labelRepository) GetByID(ctx context.Context, id uint) (*models.RelationshipLabel, error) {
	return r.find(ctx, id)
}

func (r *labelRepository) Create(ctx context.Context, l *models.RelationshipLabel) error {
	return r.create(ctx, l)
}

func (r *labelRepository) Update(ctx context.Context, l *models.RelationshipLabel, fields ...string) error {
	return r.update(ctx, l, fields...)
}

func (r *labelRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *labelRepository) List(ctx context.Context, page Page) ([]models.RelationshipLabel, error) {
	return r.list(ctx, page, ordered("relationship_labels"))
}
