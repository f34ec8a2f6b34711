package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"qipu/internal/config"
	"qipu/internal/mail"
	"qipu/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret   = "test-secret-that-is-long-enough-for-hs256"
	testPassword = "Sup3rSecret!pw"
)

type stubSigner struct {
	mu     sync.Mutex
	object string
}

func (s *stubSigner) SignGet(_ context.Context, object string) (string, error) {
	s.mu.Lock()
	s.object = object
	s.mu.Unlock()
	return "https://signed.example/" + object + "?X-Goog-Signature=abc", nil
}

func (s *stubSigner) SignPut(_ context.Context, object, _ string) (string, error) {
	return "https://signed.example/" + object + "?X-Goog-Signature=put", nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	mr     *miniredis.Miniredis
	signer *stubSigner
	mailer *recordingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewMiniredis(t)

	cfg := &config.Config{
		JWTSecret:        testSecret,
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  24 * time.Hour,
		PasswordResetTTL: 72 * time.Hour,
		SignedURLTTL:     time.Hour,
		GCSBucket:        "qipu-media",
		GCSLegacyPrefix:  "qip_media/",
		AllowedOrigins:   "http://localhost:5173",
		Env:              "test",
	}
	env := &testEnv{db: db, mr: mr, signer: &stubSigner{}, mailer: &recordingMailer{}}

	s, err := NewServerWithDeps(cfg, db, rdb, Deps{Signer: env.signer, Mailer: env.mailer})
	require.NoError(t, err)

	env.app = fiber.New()
	s.SetupMiddleware(env.app)
	s.SetupRoutes(env.app)
	return env
}

type request struct {
	method string
	path   string
	body   any
	token  string
	cookie *http.Cookie
}

func (e *testEnv) do(t *testing.T, r request) *http.Response {
	t.Helper()
	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type account struct {
	ID      uint
	Token   string
	Refresh string
}

// signup registers username and returns its id and token pair.
func (e *testEnv) signup(t *testing.T, username string) account {
	t.Helper()
	resp := e.do(t, request{method: http.MethodPost, path: "/signup", body: map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decode[struct {
		Token   string `json:"token"`
		Refresh string `json:"refresh"`
		User    struct {
			ID uint `json:"id"`
		} `json:"user"`
	}](t, resp)
	return account{ID: out.User.ID, Token: out.Token, Refresh: out.Refresh}
}

func (e *testEnv) createTag(t *testing.T, token, name string) uint {
	t.Helper()
	resp := e.do(t, request{method: http.MethodPost, path: "/tags", token: token, body: map[string]string{"name": name}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[struct {
		ID uint `json:"id"`
	}](t, resp).ID
}

func urlf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}
