package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"qipu/internal/mail"
	"qipu/internal/middleware"
	"qipu/internal/models"
	"qipu/internal/observability"
	"qipu/internal/repository"
	"qipu/internal/validation"

	"github.com/golang-jwt/jwt/v5"
)

const (
	resetPurpose  = "password_reset"
	resetAudience = "qipu-password-reset"

	// ResetMailSubject is the subject line of reset mails.
	ResetMailSubject = "Password Reset Request"
)

// PasswordResetService issues and redeems single use reset links.
type PasswordResetService struct {
	users   repository.UserRepository
	mailer  mail.Sender
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewPasswordResetService(users repository.UserRepository, mailer mail.Sender, secret string, ttl time.Duration, baseURL string) *PasswordResetService {
	return &PasswordResetService{
		users:   users,
		mailer:  mailer,
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// EncodeUID renders a user id the way reset links carry it.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID reverses EncodeUID. Padded input is accepted.
func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// fingerprint changes whenever the password hash or last login changes,
// which retires every token issued before.
func fingerprint(u *models.User) string {
	var login string
	if u.LastLogin != nil {
		login = strconv.FormatInt(u.LastLogin.UTC().Unix(), 10)
	}
	sum := sha256.Sum256([]byte(u.Password + "|" + login))
	return hex.EncodeToString(sum[:16])
}

// MakeToken signs a reset token for u. u must carry its password hash.
func (s *PasswordResetService) MakeToken(u *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":     strconv.FormatUint(uint64(u.ID), 10),
		"aud":     resetAudience,
		"iss":     TokenIssuer,
		"purpose": resetPurpose,
		"fp":      fingerprint(u),
		"iat":     now.Unix(),
		"exp":     now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// CheckToken reports whether token is a live reset token for u.
func (s *PasswordResetService) CheckToken(u *models.User, token string) bool {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resetAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	sub, _ := claims["sub"].(string)
	purpose, _ := claims["purpose"].(string)
	fp, _ := claims["fp"].(string)
	if sub != strconv.FormatUint(uint64(u.ID), 10) || purpose != resetPurpose {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(fp), []byte(fingerprint(u))) == 1
}

// ResetLink builds the link mailed to the user. baseURL is used when the
// service has no public base URL configured.
func (s *PasswordResetService) ResetLink(baseURL string, u *models.User, token string) string {
	base := s.baseURL
	if base == "" {
		base = strings.TrimRight(baseURL, "/")
	}
	return fmt.Sprintf("%s/password-reset-confirm/%s/%s/", base, EncodeUID(u.ID), token)
}

// Request mails a reset link when an account has the address. Unknown
// addresses succeed silently.
func (s *PasswordResetService) Request(ctx context.Context, email, requestBaseURL string) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PasswordResetService", "Request")
	defer func() { observability.EndSpan(span, err) }()

	email = strings.TrimSpace(email)
	if err = validation.ValidateEmail(email); err != nil {
		return models.NewValidationError("Enter a valid email address.")
	}
	found, err := s.users.GetByEmail(ctx, email)
	if err != nil || found == nil {
		return err
	}

	token, err := s.MakeToken(found)
	if err != nil {
		return models.NewInternalError(err)
	}
	link := s.ResetLink(requestBaseURL, found, token)
	err = s.mailer.Send(ctx, mail.Message{
		To:      email,
		Subject: ResetMailSubject,
		Body:    "Please click the link to reset your password: " + link,
	})
	observability.PasswordResetMails.WithLabelValues(observability.Outcome(err)).Inc()
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "password reset mail failed", "user_id", found.ID, "error", err)
		return models.NewInternalError(err)
	}
	return nil
}

// ErrInvalidResetToken is returned for unknown users and bad tokens alike.
var ErrInvalidResetToken = models.NewValidationError("Invalid token")

// Confirm sets a new password when uid and token check out.
func (s *PasswordResetService) Confirm(ctx context.Context, uid, token, password, confirm string) error {
	if password != confirm {
		return models.NewValidationError("Passwords do not match")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}

	id, err := DecodeUID(uid)
	if err != nil {
		return ErrInvalidResetToken
	}
	user, err := s.users.GetByIDNoCache(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !s.CheckToken(user, token) {
		return ErrInvalidResetToken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}
