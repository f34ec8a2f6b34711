package service

import (
	"context"
	"strings"
	"time"

	"qipu/internal/middleware"
	"qipu/internal/models"
	"qipu/internal/observability"
	"qipu/internal/repository"
	"qipu/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// SignupInput carries the signup form.
type SignupInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Session is the result of a successful login.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AccountService handles signup, login and logout.
type AccountService struct {
	users  repository.UserRepository
	tokens *TokenService
	now    func() time.Time
}

func NewAccountService(users repository.UserRepository, tokens *TokenService) *AccountService {
	return &AccountService{users: users, tokens: tokens, now: time.Now}
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// Signup creates the account and issues a token pair for it.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, *TokenPair, error) {
	ctx, span := observability.StartServiceSpan(ctx, "AccountService", "Signup",
		attribute.String("username", in.Username))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		err = models.NewValidationError("Username, email, and password are required")
		return nil, nil, err
	}

	var existing *models.User
	if existing, err = s.users.GetByUsername(ctx, in.Username); err != nil {
		return nil, nil, err
	}
	if existing != nil {
		err = models.NewValidationError("Username already exists")
		return nil, nil, err
	}
	if err = validateSignup(in); err != nil {
		return nil, nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	user.ApplyProfileDefaults()
	if err = s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		err = models.NewInternalError(err)
		return nil, nil, err
	}
	middleware.Logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, pair, nil
}

func validateSignup(in SignupInput) error {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("first_name", in.FirstName); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("last_name", in.LastName); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// Authenticate checks a username and password pair.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Invalid credentials")
	if username == "" || password == "" {
		return nil, invalid
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, invalid
	}
	return user, nil
}

// Login authenticates, stamps last_login and issues an access token.
func (s *AccountService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	token, exp, err := s.tokens.Issue(user.ID, TokenTypeAccess)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// Logout revokes the presented token.
func (s *AccountService) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.Parse(ctx, rawToken)
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, claims)
}

// CurrentUser loads the authenticated user.
func (s *AccountService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
