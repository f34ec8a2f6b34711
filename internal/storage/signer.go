package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"qipu/internal/observability"

	gcs "cloud.google.com/go/storage"
)

// Signer issues time limited URLs for bucket objects.
type Signer interface {
	// SignGet returns a URL that downloads object.
	SignGet(ctx context.Context, object string) (string, error)
	// SignPut returns a URL that uploads object with the given content type.
	SignPut(ctx context.Context, object, contentType string) (string, error)
}

// ErrNoBucket is returned when signing is attempted without a bucket.
var ErrNoBucket = errors.New("storage: bucket name is not configured")

// Config selects the bucket and signing identity.
type Config struct {
	Bucket string
	TTL    time.Duration
	// CredentialsFile is a service account key. When empty the client
	// signs with Application Default Credentials.
	CredentialsFile string
}

// GCSSigner signs V4 URLs for one bucket.
type GCSSigner struct {
	bucket string
	ttl    time.Duration
	now    func() time.Time

	client *gcs.Client
	// Set when signing locally from a key file.
	accessID   string
	privateKey []byte
}

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// NewGCSSigner builds a signer. A key file, when given, is used to sign
// offline; otherwise a storage client is created.
func NewGCSSigner(ctx context.Context, cfg Config) (*GCSSigner, error) {
	s := &GCSSigner{bucket: cfg.Bucket, ttl: cfg.TTL, now: time.Now}
	if cfg.CredentialsFile != "" {
		raw, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		if err := s.useKey(raw); err != nil {
			return nil, err
		}
		return s, nil
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	s.client = client
	return s, nil
}

// NewKeySigner signs with an explicit service account identity.
func NewKeySigner(bucket string, ttl time.Duration, accessID string, privateKeyPEM []byte) *GCSSigner {
	return &GCSSigner{bucket: bucket, ttl: ttl, now: time.Now, accessID: accessID, privateKey: privateKeyPEM}
}

func (s *GCSSigner) useKey(raw []byte) error {
	var key serviceAccountKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return fmt.Errorf("parse credentials: %w", err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return errors.New("credentials lack client_email or private_key")
	}
	s.accessID = key.ClientEmail
	s.privateKey = []byte(key.PrivateKey)
	return nil
}

func (s *GCSSigner) SignGet(ctx context.Context, object string) (string, error) {
	return s.sign(ctx, http.MethodGet, object, "")
}

func (s *GCSSigner) SignPut(ctx context.Context, object, contentType string) (string, error) {
	return s.sign(ctx, http.MethodPut, object, contentType)
}

func (s *GCSSigner) sign(ctx context.Context, method, object, contentType string) (signed string, err error) {
	_, span := observability.StartClientSpan(ctx, "gcs", "sign_url")
	defer func() {
		observability.SignedURLsIssued.WithLabelValues(method, observability.Outcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	if s.bucket == "" {
		return "", ErrNoBucket
	}
	opts := &gcs.SignedURLOptions{
		Scheme:      gcs.SigningSchemeV4,
		Method:      method,
		Expires:     s.now().Add(s.ttl),
		ContentType: contentType,
	}
	if s.privateKey != nil {
		opts.GoogleAccessID = s.accessID
		opts.PrivateKey = s.privateKey
		return gcs.SignedURL(s.bucket, object, opts)
	}
	if s.client == nil {
		return "", errors.New("storage: signer has no credentials")
	}
	return s.client.Bucket(s.bucket).SignedURL(object, opts)
}

// Close releases the storage client if one was created.
func (s *GCSSigner) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
