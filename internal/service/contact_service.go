package service

import (
	"context"
	"time"

	"qipu/internal/models"
	"qipu/internal/notifications"
	"qipu/internal/repository"
)

// ContactPatch lists the writable contact fields. Nil fields are left as is.
type ContactPatch struct {
	RecipientID *uint
	Status      *models.ResponseStatus
	LabelIDs    *[]uint
}

// ContactService provides contact request business logic.
type ContactService struct {
	contacts repository.ContactRepository
	users    repository.UserRepository
	events   EventPublisher
	now      func() time.Time
}

// NewContactService returns a new ContactService.
func NewContactService(contacts repository.ContactRepository, users repository.UserRepository, events EventPublisher) *ContactService {
	return &ContactService{contacts: contacts, users: users, events: events, now: time.Now}
}

// Create sends a contact request from requesterID.
func (s *ContactService) Create(ctx context.Context, requesterID uint, patch ContactPatch) (*models.Contact, error) {
	if patch.RecipientID == nil || *patch.RecipientID == 0 {
		return nil, models.NewValidationError("recipient is required")
	}
	recipientID := *patch.RecipientID
	if recipientID == requesterID {
		return nil, models.NewValidationError("Cannot send a contact request to yourself")
	}
	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		if isNotFound(err) {
			return nil, models.NewValidationError("recipient does not exist")
		}
		return nil, err
	}

	existing, err := s.contacts.GetPair(ctx, requesterID, recipientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Contact already exists")
	}

	contact := &models.Contact{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.StatusPending,
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, models.NewValidationError("invalid status")
		}
		contact.Status = *patch.Status
	}
	if contact.Status != models.StatusPending {
		now := s.now()
		contact.ResponseReceivedAt = &now
	}
	if patch.LabelIDs != nil {
		contact.LabelIDs = *patch.LabelIDs
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, err
	}

	publish(ctx, s.events, recipientID, notifications.EventContactRequestReceived, map[string]any{
		"contact_id": contact.ID,
		"requester":  requesterID,
	})
	return s.contacts.GetByID(ctx, contact.ID)
}

// Update applies patch to contact. The caller has already checked that the
// actor may write it. Leaving pending stamps the response time.
func (s *ContactService) Update(ctx context.Context, actorID uint, contact *models.Contact, patch ContactPatch) (*models.Contact, error) {
	fields := []string{}
	if patch.RecipientID != nil && *patch.RecipientID != contact.RecipientID {
		return nil, models.NewValidationError("recipient cannot be changed")
	}

	answered := false
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, models.NewValidationError("invalid status")
		}
		if *patch.Status != contact.Status {
			answered = contact.Status == models.StatusPending && *patch.Status != models.StatusPending
			contact.Status = *patch.Status
			fields = append(fields, "status")
			if answered {
				now := s.now()
				contact.ResponseReceivedAt = &now
				fields = append(fields, "response_received_at")
			}
		}
	}

	if len(fields) > 0 {
		if err := s.contacts.Update(ctx, contact, append(fields, "updated_at")...); err != nil {
			return nil, err
		}
	}
	if patch.LabelIDs != nil {
		if err := s.contacts.SetLabels(ctx, contact.ID, *patch.LabelIDs); err != nil {
			return nil, err
		}
	}

	if answered {
		publish(ctx, s.events, contact.Counterpart(actorID), notifications.EventContactRequestAnswered, map[string]any{
			"contact_id": contact.ID,
			"status":     contact.Status,
		})
	}
	return s.contacts.GetByID(ctx, contact.ID)
}
