package server

import (
	"qipu/internal/models"
	"qipu/internal/policy"
	"qipu/internal/repository"
	"qipu/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Content *string `json:"content"`
	TagIDs  *IDList `json:"tagIds"`
}

func (r *postRequest) apply(p *models.Post, full bool) ([]string, error) {
	f := fieldSet{full: full}
	if f.has("content", r.Content != nil) {
		p.Content = *r.Content
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	if err := validation.ValidateLength("content", p.Content, models.MaxPostContentLength); err != nil {
		return nil, invalid(err)
	}
	return f.cols, nil
}

// ListPosts handles GET /posts
// @Summary List your posts
// @Tags posts
// @Produce json
// @Param tag query string false "Comma separated tag ids"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Security BearerAuth
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	filter := repository.ParseTagFilter(c.Query("tag"))
	posts, err := s.postRepo.ListOwned(c.UserContext(), currentUserID(c), filter, parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body postRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post := &models.Post{UserID: currentUserID(c)}
	if _, err := req.apply(post, true); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if req.TagIDs != nil {
		post.TagIDs = *req.TagIDs
	}
	if err := authorize(c, policy.Owner, policy.ActionCreate, post); err != nil {
		return nil
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return models.RespondWithAppError(c, err)
	}
	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetPost handles GET /posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionRetrieve, post); err != nil {
		return nil
	}
	return c.JSON(post)
}

// UpdatePost handles PUT and PATCH /posts/:id
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body postRequest true "Fields"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	action := updateAction(c)
	if err := authorize(c, policy.Owner, action, post); err != nil {
		return nil
	}

	cols, err := req.apply(post, action == policy.ActionUpdate)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if len(cols) > 0 {
		if err := s.postRepo.Update(ctx, post, cols...); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}
	if req.TagIDs != nil {
		if err := s.postRepo.SetTags(ctx, post.ID, *req.TagIDs); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}

	updated, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(updated)
}

// DeletePost handles DELETE /posts/:id
// @Summary Delete a post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionDestroy, post); err != nil {
		return nil
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
