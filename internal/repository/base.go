// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"qipu/internal/database"
	"qipu/internal/models"
	"qipu/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Page is a limit/offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}

// Scope narrows a listing query.
type Scope = func(*gorm.DB) *gorm.DB

// readDB returns the replica for plain reads. Inside a transaction the
// transaction itself must be used so reads see its writes.
func readDB(primary *gorm.DB) *gorm.DB {
	if _, inTx := primary.Statement.ConnPool.(gorm.TxCommitter); inTx {
		return primary
	}
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// crud holds the operations every resource shares.
type crud[T any] struct {
	db       *gorm.DB
	resource string
}

func newCrud[T any](db *gorm.DB, resource string) crud[T] {
	return crud[T]{db: db, resource: resource}
}

func (r crud[T]) find(ctx context.Context, id uint, preloads ...string) (*T, error) {
	defer observability.TrackQuery("select", r.resource)()
	q := readDB(r.db).WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var v T
	if err := q.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(r.resource, id)
		}
		return nil, models.NewInternalError(err)
	}
	return &v, nil
}

func (r crud[T]) list(ctx context.Context, page Page, scopes ...Scope) ([]T, error) {
	defer observability.TrackQuery("select", r.resource)()
	var out []T
	q := readDB(r.db).WithContext(ctx).Scopes(scopes...)
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (r crud[T]) create(ctx context.Context, v *T) error {
	defer observability.TrackQuery("insert", r.resource)()
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return wrapWriteError(err, r.resource)
	}
	return nil
}

// update writes v. With no fields every column is saved; otherwise only the
// named columns are, zero values included.
func (r crud[T]) update(ctx context.Context, v *T, fields ...string) error {
	defer observability.TrackQuery("update", r.resource)()
	var err error
	if len(fields) == 0 {
		err = r.db.WithContext(ctx).Omit(clause.Associations).Save(v).Error
	} else {
		err = r.db.WithContext(ctx).Model(v).Select(fields).Updates(v).Error
	}
	if err != nil {
		return wrapWriteError(err, r.resource)
	}
	return nil
}

func (r crud[T]) delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", r.resource)()
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(r.resource, id)
	}
	return nil
}

// ordered sorts by primary key so pagination is stable.
func ordered(table string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id ASC")
	}
}
