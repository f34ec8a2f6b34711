package repository

import (
	"context"
	"strings"

	"qipu/internal/cache"
	"qipu/internal/models"

	"gorm.io/gorm"
)

// TagSearchLimit caps tag_search results.
const TagSearchLimit = 4

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	Create(ctx context.Context, t *models.Tag) error
	Update(ctx context.Context, t *models.Tag, fields ...string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page Page) ([]models.Tag, error)
	// Search returns up to TagSearchLimit tags whose name contains q,
	// ignoring case.
	Search(ctx context.Context, q string) ([]models.Tag, error)
}

type tagRepository struct {
	crud[models.Tag]
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{crud: newCrud[models.Tag](db, "Tag")}
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	return r.find(ctx, id)
}

func (r *tagRepository) Create(ctx context.Context, t *models.Tag) error {
	if err := r.create(ctx, t); err != nil {
		return err
	}
	cache.InvalidateTagSearches(ctx)
	return nil
}

func (r *tagRepository) Update(ctx context.Context, t *models.Tag, fields ...string) error {
	if err := r.update(ctx, t, fields...); err != nil {
		return err
	}
	cache.InvalidateTagSearches(ctx)
	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	if err := r.delete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateTagSearches(ctx)
	return nil
}

func (r *tagRepository) List(ctx context.Context, page Page) ([]models.Tag, error) {
	return r.list(ctx, page, ordered("tags"))
}

func (r *tagRepository) Search(ctx context.Context, q string) ([]models.Tag, error) {
	var tags []models.Tag
	err := cache.Aside(ctx, cache.TagSearchKey(q), &tags, cache.TagSearchTTL, func() error {
		found, err := r.list(ctx, Page{Limit: TagSearchLimit}, func(db *gorm.DB) *gorm.DB {
			return db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(q))+"%")
		}, ordered("tags"))
		tags = found
		return err
	})
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes q match literally inside a LIKE pattern.
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}
