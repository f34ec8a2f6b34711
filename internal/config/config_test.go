package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:             "8000",
		JWTSecret:        strings.Repeat("s", 40),
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  24 * time.Hour,
		PasswordResetTTL: 72 * time.Hour,
		SignedURLTTL:     time.Hour,
		Env:              "development",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "Valid Development", mutate: func(*Config) {}},
		{name: "Missing Port", mutate: func(c *Config) { c.Port = "" }, wantErr: "PORT"},
		{name: "Missing Secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "Zero Access TTL", mutate: func(c *Config) { c.AccessTokenTTL = 0 }, wantErr: "ACCESS_TOKEN_TTL"},
		{name: "Zero Reset TTL", mutate: func(c *Config) { c.PasswordResetTTL = 0 }, wantErr: "PASSWORD_RESET_TTL"},
		{name: "Signed URL Too Long", mutate: func(c *Config) { c.SignedURLTTL = 8 * 24 * time.Hour }, wantErr: "SIGNED_URL_TTL"},
		{
			name: "Production Default Secret",
			mutate: func(c *Config) {
				c.Env = "production"
				c.JWTSecret = defaultJWTSecret
			},
			wantErr: "changed from the default",
		},
		{
			name: "Production Weak DB Password",
			mutate: func(c *Config) {
				c.Env = "production"
				c.DBPassword = "password"
			},
			wantErr: "DB_PASSWORD",
		},
		{
			name: "Production Without Bucket",
			mutate: func(c *Config) {
				c.Env = "prod"
				c.DBPassword = "correct-horse-battery"
				c.SMTPHost = "smtp.example.com"
			},
			wantErr: "GS_BUCKET_NAME",
		},
		{
			name: "Production Complete",
			mutate: func(c *Config) {
				c.Env = "production"
				c.DBPassword = "correct-horse-battery"
				c.DBSSLMode = "require"
				c.GCSBucket = "qipu-media"
				c.SMTPHost = "smtp.example.com"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "9999")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("GS_BUCKET_NAME", "bucket-from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "bucket-from-env", cfg.GCSBucket)
	assert.Equal(t, "qip_media/", cfg.GCSLegacyPrefix)
	assert.Equal(t, time.Hour, cfg.SignedURLTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_MissingProfile(t *testing.T) {
	t.Setenv("APP_ENV", "no-such-profile")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.no-such-profile.yml")
}
