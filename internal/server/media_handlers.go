package server

import (
	"qipu/internal/models"
	"qipu/internal/policy"
	"qipu/internal/repository"
	"qipu/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type mediaRequest struct {
	Caption     *string           `json:"caption"`
	MediaType   *models.MediaKind `json:"media_type"`
	Permalink   *string           `json:"permalink"`
	Shortcode   *string           `json:"shortcode"`
	StorageFile *string           `json:"storage_file"`
	IsPublished *bool             `json:"is_published"`
	Category    *int              `json:"category"`
	TagIDs      *IDList           `json:"tagIds"`
}

func (r *mediaRequest) apply(m *models.Media, full bool) ([]string, error) {
	f := fieldSet{full: full}
	if f.opt("caption", r.Caption != nil) {
		m.Caption = *r.Caption
	}
	if f.has("media_type", r.MediaType != nil) {
		m.MediaType = *r.MediaType
	}
	if f.has("permalink", r.Permalink != nil) {
		m.Permalink = *r.Permalink
	}
	if f.opt("shortcode", r.Shortcode != nil) {
		m.Shortcode = *r.Shortcode
	}
	if f.has("storage_file", r.StorageFile != nil) {
		m.StorageFile = *r.StorageFile
	}
	if f.opt("is_published", r.IsPublished != nil) {
		m.IsPublished = *r.IsPublished
	}
	if f.has("category", r.Category != nil) {
		m.Category = *r.Category
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	if err := validation.ValidateLength("caption", m.Caption, validation.MaxCaptionSize); err != nil {
		return nil, invalid(err)
	}
	if m.MediaType != models.MediaKindImage && m.MediaType != models.MediaKindVideo {
		return nil, models.NewValidationError("media_type must be image or video")
	}
	return f.cols, nil
}

// ListMedia handles GET /media
// @Summary List your media
// @Description Without a tag filter returns the caller's media; with one, the caller's media carrying any of the tags
// @Tags media
// @Produce json
// @Param tag query string false "Comma separated tag ids"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Media
// @Security BearerAuth
// @Router /media [get]
func (s *Server) ListMedia(c *fiber.Ctx) error {
	filter := repository.ParseTagFilter(c.Query("tag"))
	media, err := s.mediaRepo.ListOwned(c.UserContext(), currentUserID(c), filter, parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(media)
}

// CreateMedia handles POST /media
// @Summary Create a media row
// @Tags media
// @Accept json
// @Produce json
// @Param request body mediaRequest true "Media"
// @Success 201 {object} models.Media
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /media [post]
func (s *Server) CreateMedia(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req mediaRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	m := &models.Media{UserID: currentUserID(c)}
	if _, err := req.apply(m, true); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if req.TagIDs != nil {
		m.TagIDs = *req.TagIDs
	}
	if err := authorize(c, policy.Owner, policy.ActionCreate, m); err != nil {
		return nil
	}

	if err := s.mediaRepo.Create(ctx, m); err != nil {
		return models.RespondWithAppError(c, err)
	}
	created, err := s.mediaRepo.GetByID(ctx, m.ID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetMedia handles GET /media/:id
// @Summary Get a media row
// @Tags media
// @Produce json
// @Param id path int true "Media ID"
// @Success 200 {object} models.Media
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /media/{id} [get]
func (s *Server) GetMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	m, err := s.mediaRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionRetrieve, m); err != nil {
		return nil
	}
	return c.JSON(m)
}

// UpdateMedia handles PUT and PATCH /media/:id
// @Summary Update a media row
// @Tags media
// @Accept json
// @Produce json
// @Param id path int true "Media ID"
// @Param request body mediaRequest true "Fields"
// @Success 200 {object} models.Media
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /media/{id} [put]
func (s *Server) UpdateMedia(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req mediaRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	m, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	action := updateAction(c)
	if err := authorize(c, policy.Owner, action, m); err != nil {
		return nil
	}

	cols, err := req.apply(m, action == policy.ActionUpdate)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if len(cols) > 0 {
		if err := s.mediaRepo.Update(ctx, m, cols...); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}
	if req.TagIDs != nil {
		if err := s.mediaRepo.SetTags(ctx, m.ID, *req.TagIDs); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}

	updated, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(updated)
}

// DeleteMedia handles DELETE /media/:id
// @Summary Delete a media row
// @Tags media
// @Param id path int true "Media ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /media/{id} [delete]
func (s *Server) DeleteMedia(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	m, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionDestroy, m); err != nil {
		return nil
	}
	if err := s.mediaRepo.Delete(ctx, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
