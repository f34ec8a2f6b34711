package service

import (
	"context"

	"qipu/internal/models"
	"qipu/internal/repository"
	"qipu/internal/storage"
)

// MediaDetail is a media row with a download URL.
type MediaDetail struct {
	ID        uint             `json:"id"`
	Caption   string           `json:"caption"`
	MediaType models.MediaKind `json:"media_type"`
	SignedURL string           `json:"signed_url"`
	User      string           `json:"user"`
}

// MediaService signs bucket access for media.
type MediaService struct {
	media        repository.MediaRepository
	users        repository.UserRepository
	signer       storage.Signer
	bucket       string
	legacyPrefix string
}

func NewMediaService(media repository.MediaRepository, users repository.UserRepository, signer storage.Signer, bucket, legacyPrefix string) *MediaService {
	return &MediaService{media: media, users: users, signer: signer, bucket: bucket, legacyPrefix: legacyPrefix}
}

// Detail loads media id and signs a GET URL for its object. A missing row
// yields a NotFound AppError; signer failures are returned as is.
func (s *MediaService) Detail(ctx context.Context, id uint) (*MediaDetail, error) {
	m, err := s.media.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, m.UserID)
	if err != nil {
		return nil, err
	}
	object := storage.ObjectName(m.StorageFile, s.bucket, s.legacyPrefix)
	signed, err := s.signer.SignGet(ctx, object)
	if err != nil {
		return nil, err
	}
	return &MediaDetail{
		ID:        m.ID,
		Caption:   m.Caption,
		MediaType: m.MediaType,
		SignedURL: signed,
		User:      owner.Username,
	}, nil
}

// UploadURL signs a PUT for filename bound to contentType.
func (s *MediaService) UploadURL(ctx context.Context, filename, contentType string) (string, error) {
	if filename == "" || contentType == "" {
		return "", models.NewValidationError("Missing filename or contentType")
	}
	return s.signer.SignPut(ctx, filename, contentType)
}
