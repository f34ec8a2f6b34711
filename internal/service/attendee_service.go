package service

import (
	"context"

	"qipu/internal/models"
	"qipu/internal/notifications"
	"qipu/internal/policy"
	"qipu/internal/repository"
)

// AttendeeService manages event attendance.
type AttendeeService struct {
	attendees repository.AttendeeRepository
	events    repository.EventRepository
	users     repository.UserRepository
	publisher EventPublisher
}

func NewAttendeeService(attendees repository.AttendeeRepository, events repository.EventRepository, users repository.UserRepository, publisher EventPublisher) *AttendeeService {
	return &AttendeeService{attendees: attendees, events: events, users: users, publisher: publisher}
}

// Create adds userID to eventID. Only the event owner (inviting) or the user
// themselves (joining) may do so.
func (s *AttendeeService) Create(ctx context.Context, actorID, eventID, userID uint, status models.ResponseStatus) (*models.Attendee, error) {
	if eventID == 0 || userID == 0 {
		return nil, models.NewValidationError("event and user are required")
	}
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, models.NewValidationError("invalid status")
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if isNotFound(err) {
			return nil, models.NewValidationError("event does not exist")
		}
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if isNotFound(err) {
			return nil, models.NewValidationError("user does not exist")
		}
		return nil, err
	}

	a := &models.Attendee{EventID: eventID, Event: event, UserID: userID, Status: status}
	if !policy.IsOwnerOrInvolved(actorID, a) {
		return nil, models.NewForbiddenError("Only the event owner or the attendee can add an attendee")
	}
	if err := s.attendees.Create(ctx, a); err != nil {
		return nil, err
	}

	if actorID != userID {
		publish(ctx, s.publisher, userID, notifications.EventAttendeeInvited, map[string]any{
			"attendee_id": a.ID,
			"event_id":    eventID,
			"title":       event.Title,
		})
	}
	return a, nil
}

// SetStatus records an answer. Answers by the attendee notify the host.
func (s *AttendeeService) SetStatus(ctx context.Context, actorID uint, a *models.Attendee, status models.ResponseStatus) (*models.Attendee, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("invalid status")
	}
	if status == a.Status {
		return a, nil
	}
	a.Status = status
	if err := s.attendees.Update(ctx, a, "status"); err != nil {
		return nil, err
	}
	if a.Event != nil && actorID == a.UserID && a.Event.UserID != actorID {
		publish(ctx, s.publisher, a.Event.UserID, notifications.EventAttendeeAnswered, map[string]any{
			"attendee_id": a.ID,
			"event_id":    a.EventID,
			"status":      status,
		})
	}
	return a, nil
}
