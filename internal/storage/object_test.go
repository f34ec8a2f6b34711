package storage

import (
	"testing"

	"qipu/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	const bucket, legacy = "qipu-media", "qip_media/"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Canonical URL", "https://storage.cloud.google.com/qipu-media/qip_media/cat.jpg", "cat.jpg"},
		{"HTTP URL", "http://storage.cloud.google.com/qipu-media/cat.jpg", "cat.jpg"},
		{"Raw Legacy Path", "qip_media/cat.jpg", "cat.jpg"},
		{"Slashes Trimmed", "/qip_media/cat.jpg/", "cat.jpg"},
		{"Legacy Prefix Once", "qip_media/qip_media/cat.jpg", "qip_media/cat.jpg"},
		{"Nested Object", "uploads/2024/cat.jpg", "uploads/2024/cat.jpg"},
		{"Query Dropped", "https://storage.cloud.google.com/qipu-media/a.mp4?x=1", "a.mp4"},
		{"Bucket Only As Prefix", "qipu-media-old/cat.jpg", "qipu-media-old/cat.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectName(tt.input, bucket, legacy))
		})
	}
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, models.MediaKindVideo, KindFor("https://x/y/CLIP.MP4"))
	assert.Equal(t, models.MediaKindVideo, KindFor("a.avi"))
	assert.Equal(t, models.MediaKindVideo, KindFor("a.mov"))
	assert.Equal(t, models.MediaKindImage, KindFor("a.png"))
	assert.Equal(t, models.MediaKindImage, KindFor("mp4"))
}

func TestShortcodeAndCanonicalURL(t *testing.T) {
	assert.Equal(t, "cat.jpg", Shortcode("https://cdn.example.com/u/1/cat.jpg"))
	assert.Equal(t, "cat.jpg", Shortcode("cat.jpg"))
	assert.Equal(t, "", Shortcode("https://cdn.example.com/dir/"))

	assert.Equal(t,
		"https://storage.cloud.google.com/qipu-media/qip_media/cat.jpg",
		CanonicalURL("qipu-media", "qip_media", "cat.jpg"))
	assert.Equal(t,
		"https://storage.cloud.google.com/qipu-media/cat.jpg",
		CanonicalURL("qipu-media", "", "cat.jpg"))
}

func TestCanonicalURLRoundTripsThroughObjectName(t *testing.T) {
	u := CanonicalURL("qipu-media", "qip_media", "clip.mov")
	assert.Equal(t, "clip.mov", ObjectName(u, "qipu-media", "qip_media/"))
}
