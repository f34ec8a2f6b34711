package server

import (
	"strings"

	"qipu/internal/models"
	"qipu/internal/policy"
	"qipu/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type userRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Picture   *string `json:"picture"`
	Bio       *string `json:"bio"`
}

func (r *userRequest) apply(u *models.User, full bool) ([]string, error) {
	f := fieldSet{full: full}
	if f.has("username", r.Username != nil) {
		u.Username = strings.TrimSpace(*r.Username)
		if err := validation.ValidateUsername(u.Username); err != nil {
			return nil, invalid(err)
		}
	}
	if f.has("email", r.Email != nil) {
		u.Email = strings.TrimSpace(*r.Email)
		if err := validation.ValidateEmail(u.Email); err != nil {
			return nil, invalid(err)
		}
	}
	if f.opt("first_name", r.FirstName != nil) {
		u.FirstName = *r.FirstName
		if err := validation.ValidateName("first_name", u.FirstName); err != nil {
			return nil, invalid(err)
		}
	}
	if f.opt("last_name", r.LastName != nil) {
		u.LastName = *r.LastName
		if err := validation.ValidateName("last_name", u.LastName); err != nil {
			return nil, invalid(err)
		}
	}
	if f.opt("picture", r.Picture != nil) {
		u.Picture = *r.Picture
		if err := validation.ValidateLength("picture", u.Picture, 500); err != nil {
			return nil, invalid(err)
		}
	}
	if f.opt("bio", r.Bio != nil) {
		u.Bio = *r.Bio
		if err := validation.ValidateBio(u.Bio); err != nil {
			return nil, invalid(err)
		}
	}
	return f.cols, f.err()
}

// ListUsers handles GET /users
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.User
// @Security BearerAuth
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userRepo.List(c.UserContext(), parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(users)
}

// CreateUser handles POST /users. Accounts are opened through /signup, so
// this always answers 403.
func (s *Server) CreateUser(c *fiber.Ctx) error {
	_ = forbid(c)
	return nil
}

// GetUser handles GET /users/:id
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionRetrieve, user); err != nil {
		return nil
	}
	return c.JSON(user)
}

// UpdateUser handles PUT and PATCH /users/:id
// @Summary Update your profile
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body userRequest true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req userRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	action := updateAction(c)
	if err := authorize(c, policy.Owner, action, user); err != nil {
		return nil
	}

	cols, err := req.apply(user, action == policy.ActionUpdate)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if len(cols) > 0 {
		if err := s.userRepo.Update(ctx, user, cols...); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /users/:id
// @Summary Delete your account
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := authorize(c, policy.Owner, policy.ActionDestroy, user); err != nil {
		return nil
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
