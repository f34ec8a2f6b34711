package server

import (
	"qipu/internal/models"
	"qipu/internal/policy"

	"github.com/gofiber/fiber/v2"
)

type attendeeRequest struct {
	Event  *uint                  `json:"event"`
	User   *uint                  `json:"user"`
	Status *models.ResponseStatus `json:"status"`
}

// ListAttendees handles GET /attendees. Rows are limited to those where the
// caller attends or hosts the event.
// @Summary List attendees
// @Tags attendees
// @Produce json
// @Param event query int false "Restrict to one event"
// @Success 200 {array} models.Attendee
// @Security BearerAuth
// @Router /attendees [get]
func (s *Server) ListAttendees(c *fiber.Ctx) error {
	eventID := c.QueryInt("event", 0)
	if eventID < 0 {
		eventID = 0
	}
	attendees, err := s.attendeeRepo.ListInvolved(c.UserContext(), currentUserID(c), uint(eventID), parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(attendees)
}

// CreateAttendee handles POST /attendees. The host invites anyone; anyone
// else may only add themselves. User defaults to the caller.
// @Summary Invite to or join an event
// @Tags attendees
// @Accept json
// @Produce json
// @Param request body attendeeRequest true "Attendee"
// @Success 201 {object} models.Attendee
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /attendees [post]
func (s *Server) CreateAttendee(c *fiber.Ctx) error {
	var req attendeeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	actorID := currentUserID(c)

	f := fieldSet{full: true}
	f.has("event", req.Event != nil)
	if err := f.err(); err != nil {
		return models.RespondWithAppError(c, err)
	}
	userID := actorID
	if req.User != nil {
		userID = *req.User
	}
	var status models.ResponseStatus
	if req.Status != nil {
		status = *req.Status
	}

	attendee, err := s.attendeeService.Create(c.UserContext(), actorID, *req.Event, userID, status)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(attendee)
}

// GetAttendee handles GET /attendees/:id
// @Summary Get an attendee
// @Tags attendees
// @Produce json
// @Param id path int true "Attendee ID"
// @Success 200 {object} models.Attendee
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /attendees/{id} [get]
func (s *Server) GetAttendee(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	attendee, err := s.attendeeRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.MutuallyVisible, policy.ActionRetrieve, attendee); err != nil {
		return nil
	}
	return c.JSON(attendee)
}

// UpdateAttendee handles PUT and PATCH /attendees/:id. Only the attendee
// answers; event and user are fixed once created.
// @Summary Answer an invitation
// @Tags attendees
// @Accept json
// @Produce json
// @Param id path int true "Attendee ID"
// @Param request body attendeeRequest true "Fields"
// @Success 200 {object} models.Attendee
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /attendees/{id} [put]
func (s *Server) UpdateAttendee(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req attendeeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	attendee, err := s.attendeeRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	action := updateAction(c)
	if err := authorize(c, policy.MutuallyVisible, action, attendee); err != nil {
		return nil
	}

	if (req.Event != nil && *req.Event != attendee.EventID) || (req.User != nil && *req.User != attendee.UserID) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("event and user cannot be changed"))
	}
	f := fieldSet{full: action == policy.ActionUpdate}
	if !f.has("status", req.Status != nil) {
		if err := f.err(); err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.JSON(attendee)
	}

	updated, err := s.attendeeService.SetStatus(ctx, currentUserID(c), attendee, *req.Status)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(updated)
}

// DeleteAttendee handles DELETE /attendees/:id
// @Summary Leave an event
// @Tags attendees
// @Param id path int true "Attendee ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /attendees/{id} [delete]
func (s *Server) DeleteAttendee(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	attendee, err := s.attendeeRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.MutuallyVisible, policy.ActionDestroy, attendee); err != nil {
		return nil
	}
	if err := s.attendeeRepo.Delete(ctx, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
