package server

import (
	"qipu/internal/models"
	"qipu/internal/policy"
	"qipu/internal/service"
	"qipu/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type contactRequest struct {
	Recipient *uint                  `json:"recipient"`
	Status    *models.ResponseStatus `json:"status"`
	Labels    *IDList                `json:"labels"`
}

func (r *contactRequest) patch() service.ContactPatch {
	p := service.ContactPatch{RecipientID: r.Recipient, Status: r.Status}
	if r.Labels != nil {
		ids := []uint(*r.Labels)
		p.LabelIDs = &ids
	}
	return p
}

// ListContacts handles GET /contacts. Only contacts the caller is part of
// are listed.
// @Summary List your contacts
// @Tags contacts
// @Produce json
// @Param status query string false "pending, accepted or refused"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Contact
// @Security BearerAuth
// @Router /contacts [get]
func (s *Server) ListContacts(c *fiber.Ctx) error {
	status := models.ResponseStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid status"))
	}
	contacts, err := s.contactRepo.ListInvolved(c.UserContext(), currentUserID(c), status, parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(contacts)
}

// CreateContact handles POST /contacts
// @Summary Send a contact request
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body contactRequest true "Contact"
// @Success 201 {object} models.Contact
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /contacts [post]
func (s *Server) CreateContact(c *fiber.Ctx) error {
	var req contactRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	userID := currentUserID(c)
	if err := authorize(c, policy.MutuallyVisible, policy.ActionCreate, &models.Contact{RequesterID: userID}); err != nil {
		return nil
	}

	contact, err := s.contactService.Create(c.UserContext(), userID, req.patch())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(contact)
}

// GetContact handles GET /contacts/:id
// @Summary Get a contact
// @Tags contacts
// @Produce json
// @Param id path int true "Contact ID"
// @Success 200 {object} models.Contact
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /contacts/{id} [get]
func (s *Server) GetContact(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	contact, err := s.contactRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.MutuallyVisible, policy.ActionRetrieve, contact); err != nil {
		return nil
	}
	return c.JSON(contact)
}

// UpdateContact handles PUT and PATCH /contacts/:id. Either end may answer
// or relabel; moving away from pending records the response time.
// @Summary Answer or relabel a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param id path int true "Contact ID"
// @Param request body contactRequest true "Fields"
// @Success 200 {object} models.Contact
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /contacts/{id} [put]
func (s *Server) UpdateContact(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req contactRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	action := updateAction(c)
	if err := authorize(c, policy.MutuallyVisible, action, contact); err != nil {
		return nil
	}

	f := fieldSet{full: action == policy.ActionUpdate}
	f.has("status", req.Status != nil)
	if err := f.err(); err != nil {
		return models.RespondWithAppError(c, err)
	}

	updated, err := s.contactService.Update(ctx, currentUserID(c), contact, req.patch())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(updated)
}

// DeleteContact handles DELETE /contacts/:id
// @Summary Delete a contact
// @Tags contacts
// @Param id path int true "Contact ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /contacts/{id} [delete]
func (s *Server) DeleteContact(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.MutuallyVisible, policy.ActionDestroy, contact); err != nil {
		return nil
	}
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type labelRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (r *labelRequest) apply(l *models.RelationshipLabel, full bool) ([]string, error) {
	f := fieldSet{full: full}
	if f.has("name", r.Name != nil) {
		l.Name = *r.Name
		if l.Name == "" {
			return nil, models.NewValidationError("name must not be blank")
		}
		if err := validation.ValidateLength("name", l.Name, 50); err != nil {
			return nil, invalid(err)
		}
	}
	if f.opt("description", r.Description != nil) {
		l.Description = *r.Description
	}
	return f.cols, f.err()
}

// ListLabels handles GET /relationship_labels
// @Summary List relationship labels
// @Tags relationship_labels
// @Produce json
// @Success 200 {array} models.RelationshipLabel
// @Security BearerAuth
// @Router /relationship_labels [get]
func (s *Server) ListLabels(c *fiber.Ctx) error {
	labels, err := s.labelRepo.List(c.UserContext(), parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(labels)
}

// CreateLabel handles POST /relationship_labels
// @Summary Create a relationship label
// @Tags relationship_labels
// @Accept json
// @Produce json
// @Param request body labelRequest true "Label"
// @Success 201 {object} models.RelationshipLabel
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /relationship_labels [post]
func (s *Server) CreateLabel(c *fiber.Ctx) error {
	var req labelRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	label := &models.RelationshipLabel{UserID: currentUserID(c)}
	if _, err := req.apply(label, true); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionCreate, label); err != nil {
		return nil
	}
	if err := s.labelRepo.Create(c.UserContext(), label); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(label)
}

// GetLabel handles GET /relationship_labels/:id
// @Summary Get a relationship label
// @Tags relationship_labels
// @Produce json
// @Param id path int true "Label ID"
// @Success 200 {object} models.RelationshipLabel
// @Security BearerAuth
// @Router /relationship_labels/{id} [get]
func (s *Server) GetLabel(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	label, err := s.labelRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionRetrieve, label); err != nil {
		return nil
	}
	return c.JSON(label)
}

// UpdateLabel handles PUT and PATCH /relationship_labels/:id
// @Summary Update a relationship label
// @Tags relationship_labels
// @Accept json
// @Produce json
// @Param id path int true "Label ID"
// @Param request body labelRequest true "Fields"
// @Success 200 {object} models.RelationshipLabel
// @Security BearerAuth
// @Router /relationship_labels/{id} [put]
func (s *Server) UpdateLabel(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req labelRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	label, err := s.labelRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	action := updateAction(c)
	if err := authorize(c, policy.Owner, action, label); err != nil {
		return nil
	}
	cols, err := req.apply(label, action == policy.ActionUpdate)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if len(cols) > 0 {
		if err := s.labelRepo.Update(ctx, label, cols...); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}
	return c.JSON(label)
}

// DeleteLabel handles DELETE /relationship_labels/:id
// @Summary Delete a relationship label
// @Tags relationship_labels
// @Param id path int true "Label ID"
// @Success 204
// @Security BearerAuth
// @Router /relationship_labels/{id} [delete]
func (s *Server) DeleteLabel(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	label, err := s.labelRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionDestroy, label); err != nil {
		return nil
	}
	if err := s.labelRepo.Delete(ctx, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
