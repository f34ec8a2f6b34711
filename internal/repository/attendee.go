package repository

import (
	"context"
	"errors"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// AttendeeRepository defines persistence operations for attendees. Rows are
// returned with their Event loaded so involvement can be decided.
type AttendeeRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Attendee, error)
	GetByEventAndUser(ctx context.Context, eventID, userID uint) (*models.Attendee, error)
	Create(ctx context.Context, a *models.Attendee) error
	Update(ctx context.Context, a *models.Attendee, fields ...string) error
	Delete(ctx context.Context, id uint) error
	// ListInvolved returns rows where userID attends or hosts the event.
	// A non-zero eventID narrows the result to that event.
	ListInvolved(ctx context.Context, userID, eventID uint, page Page) ([]models.Attendee, error)
}

type attendeeRepository struct {
	crud[models.Attendee]
}

// NewAttendeeRepository returns a new AttendeeRepository implementation.
func NewAttendeeRepository(db *gorm.DB) AttendeeRepository {
	return &attendeeRepository{crud: newCrud[models.Attendee](db, "Attendee")}
}

func (r *attendeeRepository) GetByID(ctx context.Context, id uint) (*models.Attendee, error) {
	return r.find(ctx, id, "Event")
}

func (r *attendeeRepository) GetByEventAndUser(ctx context.Context, eventID, userID uint) (*models.Attendee, error) {
	var a models.Attendee
	err := readDB(r.db).WithContext(ctx).
		Preload("Event").
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &a, nil
}

func (r *attendeeRepository) Create(ctx context.Context, a *models.Attendee) error {
	event := a.Event
	a.Event = nil
	err := r.create(ctx, a)
	a.Event = event
	return err
}

func (r *attendeeRepository) Update(ctx context.Context, a *models.Attendee, fields ...string) error {
	event := a.Event
	a.Event = nil
	err := r.update(ctx, a, fields...)
	a.Event = event
	return err
}

func (r *attendeeRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *attendeeRepository) ListInvolved(ctx context.Context, userID, eventID uint, page Page) ([]models.Attendee, error) {
	return r.list(ctx, page, func(db *gorm.DB) *gorm.DB {
		db = db.Preload("Event").
			Joins("JOIN events ON events.id = attendees.event_id").
			Where("attendees.user_id = ? OR events.user_id = ?", userID, userID)
		if eventID != 0 {
			db = db.Where("attendees.event_id = ?", eventID)
		}
		return db
	}, ordered("attendees"))
}
