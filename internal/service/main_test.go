package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"qipu/internal/cache"
	"qipu/internal/mail"
	"qipu/internal/models"
	"qipu/internal/repository"
	"qipu/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret   = "test-secret-that-is-long-enough-for-hs256"
	testPassword = "Sup3rSecret!pw"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type publishedEvent struct {
	UserID uint
	Type   string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishUserEvent(_ context.Context, userID uint, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Type: eventType})
	return nil
}

type stubSigner struct {
	object      string
	contentType string
	err         error
}

func (s *stubSigner) SignGet(_ context.Context, object string) (string, error) {
	s.object = object
	if s.err != nil {
		return "", s.err
	}
	return "https://signed.example/" + object + "?X-Goog-Signature=abc", nil
}

func (s *stubSigner) SignPut(_ context.Context, object, contentType string) (string, error) {
	s.object, s.contentType = object, contentType
	if s.err != nil {
		return "", s.err
	}
	return "https://signed.example/" + object + "?put=1", nil
}

var errSigner = errors.New("signer unavailable")

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	cache.SetClient(nil)
	return testutil.NewSQLiteDB(t)
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{Username: username, Email: username + "@example.com", Password: hash}
	u.ApplyProfileDefaults()
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createTags(t *testing.T, db *gorm.DB, names ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(names))
	for _, n := range names {
		tag := &models.Tag{Name: n}
		require.NoError(t, db.Create(tag).Error)
		ids = append(ids, tag.ID)
	}
	return ids
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
