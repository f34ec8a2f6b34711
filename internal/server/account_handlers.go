package server

import (
	"errors"
	"time"

	"qipu/internal/middleware"
	"qipu/internal/models"
	"qipu/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /signup
// @Summary User signup
// @Description Register a new user account and issue a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Signup request"
// @Success 201 {object} object{token=string,refresh=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, pair, err := s.accountService.Signup(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":   pair.Access,
		"refresh": pair.Refresh,
		"user":    user,
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /login
// @Summary User login
// @Description Authenticate and set the authToken cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} object{user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	session, err := s.accountService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	c.Cookie(authCookie(session.Token, session.ExpiresAt))
	return c.JSON(fiber.Map{"user": session.User})
}

// authCookie builds the cookie the browser client authenticates with.
// SameSite=None lets the separately hosted frontend send it.
func authCookie(token string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}

// Logout handles POST /logout
// @Summary Logout
// @Description Revoke the presented token and clear the cookie
// @Tags auth
// @Produce plain
// @Success 200 {string} string "Logged out"
// @Security BearerAuth
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.accountService.Logout(c.UserContext(), middleware.BearerToken(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}

	c.Cookie(authCookie("", time.Unix(0, 0)))
	return c.SendString("Logged out")
}

// CheckSession handles GET /check_session
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} object{user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /check_session [get]
func (s *Server) CheckSession(c *fiber.Ctx) error {
	user, err := s.accountService.CurrentUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// ObtainToken handles POST /api/token
// @Summary Obtain a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 200 {object} object{access=string,refresh=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/token [post]
func (s *Server) ObtainToken(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.accountService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"access": pair.Access, "refresh": pair.Refresh})
}

// RefreshToken handles POST /api/token/refresh
// @Summary Refresh an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refresh=string} true "Refresh token"
// @Success 200 {object} object{access=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/token/refresh [post]
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Refresh == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("refresh is required"))
	}

	access, err := s.tokens.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"access": access})
}

// RequestPasswordReset handles POST /password-reset
// @Summary Request a password reset mail
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /password-reset [post]
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.resetService.Request(c.UserContext(), req.Email, c.BaseURL()); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password reset link sent"})
}

// ConfirmPasswordReset handles POST /password-reset-confirm/:uid/:token
// @Summary Set a new password from a reset link
// @Tags auth
// @Accept json
// @Produce json
// @Param uid path string true "Encoded user id"
// @Param token path string true "Reset token"
// @Param request body object{password=string,password_confirm=string} true "New password"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Router /password-reset-confirm/{uid}/{token} [post]
func (s *Server) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	err := s.resetService.Confirm(c.UserContext(), c.Params("uid"), c.Params("token"), req.Password, req.PasswordConfirm)
	if errors.Is(err, service.ErrInvalidResetToken) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid token"})
	}
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password has been reset"})
}
