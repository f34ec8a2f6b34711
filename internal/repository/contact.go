package repository

import (
	"context"
	"errors"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// ContactRepository defines persistence operations for contacts.
type ContactRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Contact, error)
	// GetPair finds the request from requesterID to recipientID, or nil.
	GetPair(ctx context.Context, requesterID, recipientID uint) (*models.Contact, error)
	Create(ctx context.Context, c *models.Contact) error
	Update(ctx context.Context, c *models.Contact, fields ...string) error
	// SetLabels replaces the labels on a contact.
	SetLabels(ctx context.Context, contactID uint, labelIDs []uint) error
	Delete(ctx context.Context, id uint) error
	// ListInvolved returns contacts where userID is requester or recipient,
	// optionally narrowed to one status.
	ListInvolved(ctx context.Context, userID uint, status models.ResponseStatus, page Page) ([]models.Contact, error)
}

type contactRepository struct {
	crud[models.Contact]
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{crud: newCrud[models.Contact](db, "Contact")}
}

func (r *contactRepository) GetByID(ctx context.Context, id uint) (*models.Contact, error) {
	c, err := r.find(ctx, id, "Labels")
	if err != nil {
		return nil, err
	}
	c.CollectLabelIDs()
	return c, nil
}

func (r *contactRepository) GetPair(ctx context.Context, requesterID, recipientID uint) (*models.Contact, error) {
	var c models.Contact
	err := readDB(r.db).WithContext(ctx).
		Where("requester_id = ? AND recipient_id = ?", requesterID, recipientID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &c, nil
}

// Create inserts c and links the labels named in c.LabelIDs.
func (r *contactRepository) Create(ctx context.Context, c *models.Contact) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c.Labels = nil
		if err := tx.Omit("Labels").Create(c).Error; err != nil {
			return wrapWriteError(err, "Contact")
		}
		return replaceLabels(tx, c, c.LabelIDs)
	})
}

func (r *contactRepository) Update(ctx context.Context, c *models.Contact, fields ...string) error {
	c.Labels = nil
	return r.update(ctx, c, fields...)
}

func (r *contactRepository) SetLabels(ctx context.Context, contactID uint, labelIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceLabels(tx, &models.Contact{ID: contactID}, labelIDs)
	})
}

func replaceLabels(tx *gorm.DB, c *models.Contact, labelIDs []uint) error {
	ids := uniqueIDs(labelIDs)
	labels := make([]models.RelationshipLabel, 0, len(ids))
	if len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Find(&labels).Error; err != nil {
			return models.NewInternalError(err)
		}
		if len(labels) != len(ids) {
			return models.NewValidationError("Unknown relationship label")
		}
	}
	if err := tx.Model(c).Association("Labels").Replace(labels); err != nil {
		return models.NewInternalError(err)
	}
	c.Labels = labels
	c.CollectLabelIDs()
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *contactRepository) ListInvolved(ctx context.Context, userID uint, status models.ResponseStatus, page Page) ([]models.Contact, error) {
	contacts, err := r.list(ctx, page, func(db *gorm.DB) *gorm.DB {
		db = db.Preload("Labels").Where("requester_id = ? OR recipient_id = ?", userID, userID)
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	}, ordered("contacts"))
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		contacts[i].CollectLabelIDs()
	}
	return contacts, nil
}
