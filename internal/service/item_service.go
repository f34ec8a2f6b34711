package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qipu/internal/models"
	"qipu/internal/observability"
	"qipu/internal/repository"
	"qipu/internal/storage"
	"qipu/internal/validation"
)

// AddItemInput is the body of an ingestion request.
type AddItemInput struct {
	Content     string
	CreatedTime string
	MediaURL    string
	Tags        []uint
	IsMedia     bool
}

// ItemService ingests posts and media with their tags.
type ItemService struct {
	posts    repository.PostRepository
	media    repository.MediaRepository
	bucket   string
	location string
	now      func() time.Time
}

func NewItemService(posts repository.PostRepository, media repository.MediaRepository, bucket, location string) *ItemService {
	return &ItemService{posts: posts, media: media, bucket: bucket, location: location, now: time.Now}
}

// Layouts accepted for created_time, zoned first.
var createdTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseCreatedTime accepts ISO-8601 timestamps with or without a zone.
// Zoneless values are read as local time.
func ParseCreatedTime(raw string) (time.Time, error) {
	for _, layout := range createdTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid isoformat string: %q", raw)
}

// Add stores one item. Each kind is written atomically with its tags, so a
// missing tag leaves nothing behind.
func (s *ItemService) Add(ctx context.Context, userID uint, in AddItemInput) (err error) {
	kind := "post"
	if in.IsMedia {
		kind = "media"
	}
	ctx, span := observability.StartServiceSpan(ctx, "ItemService", "Add")
	defer func() {
		observability.EndSpan(span, err)
		if err == nil {
			observability.ItemsIngested.WithLabelValues(kind).Inc()
		}
	}()

	created := s.now()
	if in.CreatedTime != "" {
		if created, err = ParseCreatedTime(in.CreatedTime); err != nil {
			return err
		}
	}

	if !in.IsMedia {
		if err = validation.ValidateLength("content", in.Content, models.MaxPostContentLength); err != nil {
			return err
		}
		return s.posts.Create(ctx, &models.Post{
			UserID:    userID,
			Content:   in.Content,
			CreatedAt: created,
			TagIDs:    in.Tags,
		})
	}

	if strings.TrimSpace(in.MediaURL) == "" {
		return errors.New("media_url is required for media items")
	}
	if err = validation.ValidateLength("caption", in.Content, validation.MaxCaptionSize); err != nil {
		return err
	}
	shortcode := storage.Shortcode(in.MediaURL)
	canonical := storage.CanonicalURL(s.bucket, s.location, shortcode)
	return s.media.Create(ctx, &models.Media{
		UserID:      userID,
		Caption:     in.Content,
		MediaType:   storage.KindFor(in.MediaURL),
		Permalink:   canonical,
		Shortcode:   shortcode,
		StorageFile: canonical,
		IsPublished: true,
		Category:    1,
		CreatedAt:   created,
		TagIDs:      in.Tags,
	})
}
