package service

import (
	"context"
	"testing"
	"time"

	"qipu/internal/models"
	"qipu/internal/repository"
	"qipu/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAccountService(t *testing.T) (*AccountService, repository.UserRepository, *gorm.DB) {
	db := setupDB(t)
	users := repository.NewUserRepository(db)
	return NewAccountService(users, NewTokenService(testSecret, time.Hour, 24*time.Hour)), users, db
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestAccountService_Signup(t *testing.T) {
	svc, users, _ := newAccountService(t)
	ctx := context.Background()

	user, pair, err := svc.Signup(ctx, SignupInput{
		Username:  "alice",
		Password:  testPassword,
		Email:     "alice@example.com",
		FirstName: "Alice",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.Equal(t, models.DefaultBio, user.Bio)
	assert.Equal(t, models.DefaultPicture, user.Picture)

	stored, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, testPassword, stored.Password, "password must be stored hashed")
}

func TestAccountService_SignupErrors(t *testing.T) {
	svc, _, db := newAccountService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, SignupInput{Username: "bob", Password: testPassword, Email: "bob@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      SignupInput
		wantMsg string
	}{
		{"Username Taken", SignupInput{Username: "bob", Password: "weak", Email: "other@example.com"}, "Username already exists"},
		{"Missing Fields", SignupInput{Username: "carol"}, "required"},
		{"Weak Password", SignupInput{Username: "carol", Password: "short", Email: "carol@example.com"}, "password"},
		{"Bad Email", SignupInput{Username: "carol", Password: testPassword, Email: "nope"}, "email"},
		{"Email Taken", SignupInput{Username: "carol", Password: testPassword, Email: "bob@example.com"}, "already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := countUsers(t, db)
			_, _, err := svc.Signup(ctx, tt.in)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Message, tt.wantMsg)
			assert.Equal(t, before, countUsers(t, db), "rejected signup must not create a user")
		})
	}
}

func TestAccountService_LoginAndLogout(t *testing.T) {
	_, _ = testutil.NewMiniredis(t)
	svc, users, _ := newAccountService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, SignupInput{Username: "dave", Password: testPassword, Email: "dave@example.com"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "dave", "wrong-password")
	assert.Equal(t, 401, models.StatusFor(err))
	_, err = svc.Login(ctx, "nobody", testPassword)
	assert.Equal(t, 401, models.StatusFor(err))

	session, err := svc.Login(ctx, "dave", testPassword)
	require.NoError(t, err)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	stored, err := users.GetByIDNoCache(ctx, session.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)

	claims, err := svc.tokens.ParseAccess(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.tokens.ParseAccess(ctx, session.Token)
	assert.Error(t, err)
}
