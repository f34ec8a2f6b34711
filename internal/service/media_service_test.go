package service

import (
	"context"
	"testing"

	"qipu/internal/models"
	"qipu/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaService_Detail(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "ivy")
	media := repository.NewMediaRepository(db)
	signer := &stubSigner{}
	svc := NewMediaService(media, repository.NewUserRepository(db), signer, "qipu-media", "qip_media/")
	ctx := context.Background()

	m := &models.Media{
		UserID:      user.ID,
		Caption:     "cat",
		MediaType:   models.MediaKindImage,
		Permalink:   "https://storage.cloud.google.com/qipu-media/qip_media/cat.jpg",
		StorageFile: "https://storage.cloud.google.com/qipu-media/qip_media/cat.jpg",
		Category:    1,
	}
	require.NoError(t, media.Create(ctx, m))

	detail, err := svc.Detail(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", signer.object)
	assert.Equal(t, m.ID, detail.ID)
	assert.Equal(t, "cat", detail.Caption)
	assert.Equal(t, models.MediaKindImage, detail.MediaType)
	assert.Equal(t, "ivy", detail.User)
	assert.Contains(t, detail.SignedURL, "X-Goog-Signature")

	_, err = svc.Detail(ctx, 9999)
	assert.Equal(t, 404, models.StatusFor(err))

	signer.err = errSigner
	_, err = svc.Detail(ctx, m.ID)
	assert.ErrorIs(t, err, errSigner)
}

func TestMediaService_UploadURL(t *testing.T) {
	signer := &stubSigner{}
	svc := NewMediaService(nil, nil, signer, "qipu-media", "")
	ctx := context.Background()

	_, err := svc.UploadURL(ctx, "", "image/png")
	assert.EqualError(t, err, "Missing filename or contentType")
	_, err = svc.UploadURL(ctx, "a.png", "")
	assert.EqualError(t, err, "Missing filename or contentType")

	u, err := svc.UploadURL(ctx, "a.png", "image/png")
	require.NoError(t, err)
	assert.Contains(t, u, "a.png")
	assert.Equal(t, "image/png", signer.contentType)
}
