// Package middleware provides request-scoped HTTP middleware: logging
// context, the auth cookie bridge, rate limiting, tracing and metrics.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AuthCookieName is the cookie set on login that carries the access token.
const AuthCookieName = "authToken"

// AuthCookie presents the authToken cookie as a bearer Authorization header
// when the request carries no Authorization header of its own. An explicit
// header always wins.
func AuthCookie() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			if token := c.Cookies(AuthCookieName); token != "" {
				c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
			}
		}
		return c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns "" when the header is missing or malformed.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get(fiber.HeaderAuthorization), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return ""
	}
	return parts[1]
}
