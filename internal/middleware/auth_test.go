package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCookie(t *testing.T) {
	app := fiber.New()
	app.Use(AuthCookie())
	app.Get("/echo", func(c *fiber.Ctx) error {
		return c.SendString(c.Get(fiber.HeaderAuthorization))
	})

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "Cookie Only", cookie: "abc", want: "Bearer abc"},
		{name: "Header Wins", header: "Bearer fromheader", cookie: "abc", want: "Bearer fromheader"},
		{name: "Neither", want: ""},
		{name: "Empty Cookie", cookie: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/echo", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: tt.cookie})
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(BearerToken(c))
	})

	cases := map[string]string{
		"Bearer tok":   "tok",
		"Basic x":      "",
		"Bearer":       "",
		"Bearer a b":   "",
		"":             "",
		"bearer lower": "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, want, string(body), header)
	}
}
