package server

import (
	"net/http"
	"regexp"
	"testing"

	"qipu/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authCookieFrom(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AuthCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", middleware.AuthCookieName)
	return nil
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")
	assert.NotZero(t, alice.ID)
	assert.NotEmpty(t, alice.Token)
	assert.NotEmpty(t, alice.Refresh)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"Duplicate Username", map[string]string{"username": "alice", "email": "other@example.com", "password": testPassword}},
		{"Weak Password", map[string]string{"username": "bob", "email": "bob@example.com", "password": "short"}},
		{"Bad Email", map[string]string{"username": "bob", "email": "nope", "password": testPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, request{method: http.MethodPost, path: "/signup", body: tt.body})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestLoginCookieSession(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")

	resp := env.do(t, request{method: http.MethodPost, path: "/login", body: map[string]string{
		"username": "alice",
		"password": testPassword,
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := authCookieFrom(t, resp)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	body := decode[struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}](t, resp)
	assert.Equal(t, "alice", body.User.Username)

	// The cookie alone authenticates.
	sessionCookie := &http.Cookie{Name: middleware.AuthCookieName, Value: cookie.Value}
	resp = env.do(t, request{method: http.MethodGet, path: "/check_session", cookie: sessionCookie})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// An explicit header wins over the cookie.
	resp = env.do(t, request{method: http.MethodGet, path: "/check_session", cookie: sessionCookie, token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodPost, path: "/logout", cookie: sessionCookie})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := authCookieFrom(t, resp)
	assert.Empty(t, cleared.Value)

	// The token is revoked even though the client still holds it.
	resp = env.do(t, request{method: http.MethodGet, path: "/check_session", cookie: sessionCookie})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")

	for _, body := range []map[string]string{
		{"username": "alice", "password": "Wr0ng!password"},
		{"username": "nobody", "password": testPassword},
	} {
		resp := env.do(t, request{method: http.MethodPost, path: "/login", body: body})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, resp.Cookies())
	}
}

func TestTokenEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")

	resp := env.do(t, request{method: http.MethodPost, path: "/api/token", body: map[string]string{
		"username": "alice",
		"password": testPassword,
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pair := decode[struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}](t, resp)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	resp = env.do(t, request{method: http.MethodGet, path: "/check_session", token: pair.Access})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Refresh tokens are not accepted as bearer credentials.
	resp = env.do(t, request{method: http.MethodGet, path: "/check_session", token: pair.Refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodPost, path: "/api/token/refresh", body: map[string]string{"refresh": pair.Refresh}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	access := decode[struct {
		Access string `json:"access"`
	}](t, resp).Access
	resp = env.do(t, request{method: http.MethodGet, path: "/check_session", token: access})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodPost, path: "/api/token/refresh", body: map[string]string{"refresh": pair.Access}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodPost, path: "/api/token/refresh", body: map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, p := range []string{"/posts", "/media", "/tag_search?q=a", "/items/add", "/check_session"} {
		resp := env.do(t, request{method: http.MethodGet, path: p})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, p)
	}

	resp := env.do(t, request{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

var resetLinkRe = regexp.MustCompile(`/password-reset-confirm/([^/]+)/([^/]+)/$`)

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "erin")

	resp := env.do(t, request{method: http.MethodPost, path: "/password-reset", body: map[string]string{"email": "erin@example.com"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password reset link sent", decode[map[string]string](t, resp)["message"])

	m := resetLinkRe.FindStringSubmatch(env.mailer.last(t).Body)
	require.Len(t, m, 3)
	uid, token := m[1], m[2]

	resp = env.do(t, request{method: http.MethodPost, path: urlf("/password-reset-confirm/%s/bogus/", uid), body: map[string]string{
		"password":         "N3w!password",
		"password_confirm": "N3w!password",
	}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid token", decode[map[string]string](t, resp)["error"])

	resp = env.do(t, request{method: http.MethodPost, path: urlf("/password-reset-confirm/%s/%s/", uid, token), body: map[string]string{
		"password":         "N3w!password",
		"password_confirm": "N3w!password",
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password has been reset", decode[map[string]string](t, resp)["message"])

	resp = env.do(t, request{method: http.MethodPost, path: "/login", body: map[string]string{"username": "erin", "password": "N3w!password"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The link is single use: the password change invalidates it.
	resp = env.do(t, request{method: http.MethodPost, path: urlf("/password-reset-confirm/%s/%s/", uid, token), body: map[string]string{
		"password":         "An0ther!password",
		"password_confirm": "An0ther!password",
	}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown addresses succeed without sending anything.
	before := len(env.mailer.sent)
	resp = env.do(t, request{method: http.MethodPost, path: "/password-reset", body: map[string]string{"email": "ghost@example.com"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, env.mailer.sent, before)
}
