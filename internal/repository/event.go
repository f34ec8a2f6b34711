package repository

import (
	"context"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// EventRepository defines persistence operations for events.
type EventRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	Update(ctx context.Context, e *models.Event, fields ...string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page Page) ([]models.Event, error)
	// ListRecurrences returns the instances that point at origin.
	ListRecurrences(ctx context.Context, origin uint) ([]models.Event, error)
}

type eventRepository struct {
	crud[models.Event]
}

// NewEventRepository returns a new EventRepository implementation.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{crud: newCrud[models.Event](db, "Event")}
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	return r.find(ctx, id)
}

func (r *eventRepository) Create(ctx context.Context, e *models.Event) error {
	return r.create(ctx, e)
}

func (r *eventRepository) Update(ctx context.Context, e *models.Event, fields ...string) error {
	return r.update(ctx, e, fields...)
}

func (r *eventRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *eventRepository) List(ctx context.Context, page Page) ([]models.Event, error) {
	return r.list(ctx, page, ordered("events"))
}

func (r *eventRepository) ListRecurrences(ctx context.Context, origin uint) ([]models.Event, error) {
	return r.list(ctx, Page{}, func(db *gorm.DB) *gorm.DB {
		return db.Where("recurrence_id = ?", origin).Order("start_time ASC")
	})
}
