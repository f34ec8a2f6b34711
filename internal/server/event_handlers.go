package server

import (
	"qipu/internal/models"
	"qipu/internal/policy"
	"qipu/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type eventRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Location     *string    `json:"location"`
	StartTime    *string    `json:"start_time"`
	EndTime      *string    `json:"end_time"`
	RecurrenceID NullableID `json:"recurrence_id"`
}

func (r *eventRequest) apply(e *models.Event, full bool) ([]string, error) {
	f := fieldSet{full: full}
	if f.has("title", r.Title != nil) {
		e.Title = *r.Title
		if err := validation.ValidateLength("title", e.Title, 100); err != nil {
			return nil, invalid(err)
		}
	}
	if f.has("description", r.Description != nil) {
		e.Description = *r.Description
	}
	if f.has("location", r.Location != nil) {
		e.Location = *r.Location
		if err := validation.ValidateLength("location", e.Location, 150); err != nil {
			return nil, invalid(err)
		}
	}
	if f.has("start_time", r.StartTime != nil) {
		t, err := parseTime("start_time", *r.StartTime)
		if err != nil {
			return nil, err
		}
		e.StartTime = t
	}
	if f.has("end_time", r.EndTime != nil) {
		t, err := parseTime("end_time", *r.EndTime)
		if err != nil {
			return nil, err
		}
		e.EndTime = t
	}
	if f.opt("recurrence_id", r.RecurrenceID.Set) {
		e.RecurrenceID = r.RecurrenceID.ID
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	if e.EndTime.Before(e.StartTime) {
		return nil, models.NewValidationError("end_time must not be before start_time")
	}
	if e.RecurrenceID != nil && e.ID != 0 && *e.RecurrenceID == e.ID {
		return nil, models.NewValidationError("An event cannot recur from itself")
	}
	return f.cols, nil
}

// ListEvents handles GET /events
// @Summary List events
// @Tags events
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Event
// @Security BearerAuth
// @Router /events [get]
func (s *Server) ListEvents(c *fiber.Ctx) error {
	events, err := s.eventRepo.List(c.UserContext(), parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(events)
}

// CreateEvent handles POST /events
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param request body eventRequest true "Event"
// @Success 201 {object} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /events [post]
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req eventRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	event := &models.Event{UserID: currentUserID(c)}
	if _, err := req.apply(event, true); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := s.checkRecurrence(c, event); err != nil {
		return nil
	}
	if err := authorize(c, policy.Owner, policy.ActionCreate, event); err != nil {
		return nil
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// checkRecurrence rejects a recurrence origin that does not exist.
func (s *Server) checkRecurrence(c *fiber.Ctx, e *models.Event) error {
	if e.RecurrenceID == nil {
		return nil
	}
	if _, err := s.eventRepo.GetByID(c.UserContext(), *e.RecurrenceID); err != nil {
		if models.StatusFor(err) == fiber.StatusNotFound {
			err = models.NewValidationError("recurrence_id does not exist")
		}
		_ = models.RespondWithAppError(c, err)
		return errResponseWritten
	}
	return nil
}

// GetEvent handles GET /events/:id
// @Summary Get an event
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /events/{id} [get]
func (s *Server) GetEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	event, err := s.eventRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionRetrieve, event); err != nil {
		return nil
	}
	return c.JSON(event)
}

// UpdateEvent handles PUT and PATCH /events/:id
// @Summary Update an event
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param request body eventRequest true "Fields"
// @Success 200 {object} models.Event
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /events/{id} [put]
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req eventRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	action := updateAction(c)
	if err := authorize(c, policy.Owner, action, event); err != nil {
		return nil
	}

	cols, err := req.apply(event, action == policy.ActionUpdate)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := s.checkRecurrence(c, event); err != nil {
		return nil
	}
	if len(cols) > 0 {
		if err := s.eventRepo.Update(ctx, event, cols...); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}
	return c.JSON(event)
}

// DeleteEvent handles DELETE /events/:id. Recurrences and attendees go
// with it.
// @Summary Delete an event
// @Tags events
// @Param id path int true "Event ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /events/{id} [delete]
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionDestroy, event); err != nil {
		return nil
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
