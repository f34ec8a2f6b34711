package repository

import (
	"context"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, p *models.Post, fields ...string) error
	SetTags(ctx context.Context, postID uint, tagIDs []uint) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page Page) ([]models.Post, error)
	ListOwned(ctx context.Context, owner uint, f TagFilter, page Page) ([]models.Post, error)
}

type postRepository struct {
	crud[models.Post]
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{crud: newCrud[models.Post](db, "Post")}
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	p, err := r.find(ctx, id, "Tags")
	if err != nil {
		return nil, err
	}
	p.CollectTagIDs()
	return p, nil
}

// Create inserts p and links every tag in p.TagIDs. A missing tag aborts the
// whole insert.
func (r *postRepository) Create(ctx context.Context, p *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTagsExist(tx, p.TagIDs); err != nil {
			return err
		}
		p.Tags = nil
		if err := tx.Create(p).Error; err != nil {
			return wrapWriteError(err, "Post")
		}
		return insertPostTags(tx, p.ID, p.TagIDs)
	})
}

func (r *postRepository) Update(ctx context.Context, p *models.Post, fields ...string) error {
	p.Tags = nil
	return r.update(ctx, p, fields...)
}

func (r *postRepository) SetTags(ctx context.Context, postID uint, tagIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTagsExist(tx, tagIDs); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return insertPostTags(tx, postID, tagIDs)
	})
}

func insertPostTags(tx *gorm.DB, postID uint, tagIDs []uint) error {
	ids := uniqueIDs(tagIDs)
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.PostTag, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.PostTag{PostID: postID, TagID: id})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return wrapWriteError(err, "PostTag")
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *postRepository) List(ctx context.Context, page Page) ([]models.Post, error) {
	return collectPostTags(r.list(ctx, page, preloadTags, ordered("posts")))
}

func (r *postRepository) ListOwned(ctx context.Context, owner uint, f TagFilter, page Page) ([]models.Post, error) {
	return collectPostTags(r.list(ctx, page,
		preloadTags,
		ownedAndTagged("posts", "post_tags", "post_id", owner, f),
		ordered("posts"),
	))
}

func collectPostTags(posts []models.Post, err error) ([]models.Post, error) {
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].CollectTagIDs()
	}
	return posts, nil
}
