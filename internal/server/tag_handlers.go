package server

import (
	"qipu/internal/models"
	"qipu/internal/policy"
	"qipu/internal/repository"
	"qipu/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type tagRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (r *tagRequest) apply(t *models.Tag, full bool) ([]string, error) {
	f := fieldSet{full: full}
	if f.has("name", r.Name != nil) {
		t.Name = *r.Name
		if t.Name == "" {
			return nil, models.NewValidationError("name must not be blank")
		}
		if err := validation.ValidateLength("name", t.Name, 50); err != nil {
			return nil, invalid(err)
		}
	}
	if f.opt("description", r.Description != nil) {
		t.Description = *r.Description
	}
	return f.cols, f.err()
}

// ListTags handles GET /tags
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} models.Tag
// @Security BearerAuth
// @Router /tags [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.tagRepo.List(c.UserContext(), parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tags)
}

// CreateTag handles POST /tags
// @Summary Create a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param request body tagRequest true "Tag"
// @Success 201 {object} models.Tag
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tags [post]
func (s *Server) CreateTag(c *fiber.Ctx) error {
	var req tagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	tag := &models.Tag{}
	if _, err := req.apply(tag, true); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Open, policy.ActionCreate, tag); err != nil {
		return nil
	}
	if err := s.tagRepo.Create(c.UserContext(), tag); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// GetTag handles GET /tags/:id
// @Summary Get a tag
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} models.Tag
// @Security BearerAuth
// @Router /tags/{id} [get]
func (s *Server) GetTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	tag, err := s.tagRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tag)
}

// UpdateTag handles PUT and PATCH /tags/:id. Tags are shared, so any
// signed-in user may edit them.
// @Summary Update a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param request body tagRequest true "Fields"
// @Success 200 {object} models.Tag
// @Security BearerAuth
// @Router /tags/{id} [put]
func (s *Server) UpdateTag(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req tagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	tag, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	action := updateAction(c)
	if err := authorize(c, policy.Open, action, tag); err != nil {
		return nil
	}
	cols, err := req.apply(tag, action == policy.ActionUpdate)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if len(cols) > 0 {
		if err := s.tagRepo.Update(ctx, tag, cols...); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}
	return c.JSON(tag)
}

// DeleteTag handles DELETE /tags/:id
// @Summary Delete a tag
// @Tags tags
// @Param id path int true "Tag ID"
// @Success 204
// @Security BearerAuth
// @Router /tags/{id} [delete]
func (s *Server) DeleteTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.tagRepo.Delete(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListUniques handles GET /uniques
// @Summary List unique markers
// @Tags uniques
// @Produce json
// @Success 200 {array} models.Unique
// @Security BearerAuth
// @Router /uniques [get]
func (s *Server) ListUniques(c *fiber.Ctx) error {
	uniques, err := s.uniqueRepo.List(c.UserContext(), parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(uniques)
}

// CreateUnique handles POST /uniques. Markers carry no owner, so creating
// one only needs a login.
// @Summary Create a unique marker
// @Tags uniques
// @Produce json
// @Success 201 {object} models.Unique
// @Security BearerAuth
// @Router /uniques [post]
func (s *Server) CreateUnique(c *fiber.Ctx) error {
	u := &models.Unique{}
	if err := s.uniqueRepo.Create(c.UserContext(), u); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// GetUnique handles GET /uniques/:id
// @Summary Get a unique marker
// @Tags uniques
// @Produce json
// @Param id path int true "Unique ID"
// @Success 200 {object} models.Unique
// @Security BearerAuth
// @Router /uniques/{id} [get]
func (s *Server) GetUnique(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	u, err := s.uniqueRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(u)
}

// UpdateUnique handles PUT and PATCH /uniques/:id. Nobody owns a marker,
// so the ownership rule always refuses.
// @Summary Update a unique marker
// @Tags uniques
// @Param id path int true "Unique ID"
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /uniques/{id} [put]
func (s *Server) UpdateUnique(c *fiber.Ctx) error {
	return s.writeUnique(c)
}

// DeleteUnique handles DELETE /uniques/:id
// @Summary Delete a unique marker
// @Tags uniques
// @Param id path int true "Unique ID"
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /uniques/{id} [delete]
func (s *Server) DeleteUnique(c *fiber.Ctx) error {
	return s.writeUnique(c)
}

// writeUnique answers PUT, PATCH and DELETE on a unique. Uniques have no
// owner, so an existing one is always refused.
func (s *Server) writeUnique(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.uniqueRepo.GetByID(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	_ = forbid(c)
	return nil
}

type userTagRequest struct {
	Tag         *uint               `json:"tag"`
	SubjectKind models.TaggableKind `json:"subject_kind"`
	SubjectID   *uint               `json:"subject_id"`
}

// ListUserTags handles GET /user_tags. Only the caller's own tags are listed.
// @Summary List your user tags
// @Tags user_tags
// @Produce json
// @Param kind query string false "post, media, event or user"
// @Param subject query int false "Subject id"
// @Param tag query int false "Tag id"
// @Success 200 {array} models.UserTag
// @Security BearerAuth
// @Router /user_tags [get]
func (s *Server) ListUserTags(c *fiber.Ctx) error {
	filter := repository.UserTagFilter{Kind: models.TaggableKind(c.Query("kind"))}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown subject kind"))
	}
	if v := c.QueryInt("subject", 0); v > 0 {
		filter.SubjectID = uint(v)
	}
	if v := c.QueryInt("tag", 0); v > 0 {
		filter.TagID = uint(v)
	}

	tags, err := s.userTagRepo.ListByUser(c.UserContext(), currentUserID(c), filter, parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tags)
}

// CreateUserTag handles POST /user_tags
// @Summary Tag an entity privately
// @Tags user_tags
// @Accept json
// @Produce json
// @Param request body userTagRequest true "User tag"
// @Success 201 {object} models.UserTag
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /user_tags [post]
func (s *Server) CreateUserTag(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req userTagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	f := fieldSet{full: true}
	f.has("tag", req.Tag != nil)
	f.has("subject_kind", req.SubjectKind != "")
	f.has("subject_id", req.SubjectID != nil)
	if err := f.err(); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if !req.SubjectKind.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown subject kind"))
	}

	if _, err := s.tagRepo.GetByID(ctx, *req.Tag); err != nil {
		if models.StatusFor(err) == fiber.StatusNotFound {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Tag does not exist"))
		}
		return models.RespondWithAppError(c, err)
	}
	exists, err := s.userTagRepo.SubjectExists(ctx, req.SubjectKind, *req.SubjectID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if !exists {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Tagged object does not exist"))
	}

	ut := &models.UserTag{UserID: currentUserID(c), TagID: *req.Tag}
	ut.SetSubject(req.SubjectKind, *req.SubjectID)
	if err := authorize(c, policy.Owner, policy.ActionCreate, ut); err != nil {
		return nil
	}
	if err := s.userTagRepo.Create(ctx, ut); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ut)
}

// GetUserTag handles GET /user_tags/:id
// @Summary Get a user tag
// @Tags user_tags
// @Produce json
// @Param id path int true "User tag ID"
// @Success 200 {object} models.UserTag
// @Security BearerAuth
// @Router /user_tags/{id} [get]
func (s *Server) GetUserTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ut, err := s.userTagRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionRetrieve, ut); err != nil {
		return nil
	}
	return c.JSON(ut)
}

// DeleteUserTag handles DELETE /user_tags/:id
// @Summary Remove a user tag
// @Tags user_tags
// @Param id path int true "User tag ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /user_tags/{id} [delete]
func (s *Server) DeleteUserTag(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ut, err := s.userTagRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionDestroy, ut); err != nil {
		return nil
	}
	if err := s.userTagRepo.Delete(ctx, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
