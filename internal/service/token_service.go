// Package service holds the business logic behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"qipu/internal/cache"
	"qipu/internal/middleware"
	"qipu/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer   = "qipu-api"
	TokenAudience = "qipu-client"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	revokedKeyPrefix = "blacklist:"
)

// TokenPair is what the token endpoints hand out.
type TokenPair struct {
	Access          string    `json:"access"`
	Refresh         string    `json:"refresh"`
	AccessExpiresAt time.Time `json:"-"`
}

// TokenClaims is the validated content of a token.
type TokenClaims struct {
	UserID    uint
	ID        string
	Type      string
	ExpiresAt time.Time
}

// TokenService issues and validates HS256 bearer tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue signs a token of typ for userID.
func (s *TokenService) Issue(userID uint, typ string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("JWT secret not configured")
	}
	ttl := s.accessTTL
	if typ == TokenTypeRefresh {
		ttl = s.refreshTTL
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": exp.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
		"typ": typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssuePair signs an access and a refresh token.
func (s *TokenService) IssuePair(userID uint) (*TokenPair, error) {
	access, exp, err := s.Issue(userID, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.Issue(userID, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh, AccessExpiresAt: exp}, nil
}

// Parse validates signature, issuer, audience, expiry and revocation.
func (s *TokenService) Parse(ctx context.Context, raw string) (*TokenClaims, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}
	exp, _ := claims.GetExpirationTime()
	out := &TokenClaims{UserID: uint(userID), ExpiresAt: exp.Time}
	out.ID, _ = claims["jti"].(string)
	out.Type, _ = claims["typ"].(string)
	if out.Type == "" {
		out.Type = TokenTypeAccess
	}

	if s.isRevoked(ctx, out.ID) {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return out, nil
}

// ParseAccess is Parse restricted to access tokens.
func (s *TokenService) ParseAccess(ctx context.Context, raw string) (*TokenClaims, error) {
	claims, err := s.Parse(ctx, raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, models.NewUnauthorizedError("Invalid token type")
	}
	return claims, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *TokenService) Refresh(ctx context.Context, raw string) (string, error) {
	claims, err := s.Parse(ctx, raw)
	if err != nil {
		return "", err
	}
	if claims.Type != TokenTypeRefresh {
		return "", models.NewUnauthorizedError("Invalid token type")
	}
	access, _, err := s.Issue(claims.UserID, TokenTypeAccess)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return access, nil
}

// Revoke blacklists the token id until the token would have expired.
// Without Redis revocation is skipped.
func (s *TokenService) Revoke(ctx context.Context, claims *TokenClaims) error {
	if claims.ID == "" {
		return nil
	}
	rdb := cache.GetClient()
	if rdb == nil {
		middleware.Logger.WarnContext(ctx, "token revocation skipped, redis unavailable")
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := rdb.Set(ctx, revokedKeyPrefix+claims.ID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *TokenService) isRevoked(ctx context.Context, jti string) bool {
	rdb := cache.GetClient()
	if rdb == nil || jti == "" {
		return false
	}
	n, err := rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	return err == nil && n > 0
}
