// Package storage maps media rows to bucket objects and signs access URLs.
package storage

import (
	"net/url"
	"path"
	"strings"

	"qipu/internal/models"
)

// PublicHost serves authenticated browser downloads of bucket objects.
const PublicHost = "https://storage.cloud.google.com"

var videoExtensions = []string{".mp4", ".avi", ".mov"}

// KindFor classifies a media URL by its extension.
func KindFor(mediaURL string) models.MediaKind {
	lower := strings.ToLower(mediaURL)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return models.MediaKindVideo
		}
	}
	return models.MediaKindImage
}

// Shortcode is the last slash separated segment of a media URL.
func Shortcode(mediaURL string) string {
	return mediaURL[strings.LastIndex(mediaURL, "/")+1:]
}

// CanonicalURL is the stored permalink for name inside bucket/location.
func CanonicalURL(bucket, location, name string) string {
	return PublicHost + "/" + path.Join(bucket, location, name)
}

// ObjectName derives the bucket object from a stored storage_file value.
// URLs contribute their path; the bucket segment and one legacy prefix are
// removed when present.
func ObjectName(storageFile, bucket, legacyPrefix string) string {
	name := storageFile
	if strings.HasPrefix(name, "https://") || strings.HasPrefix(name, "http://") {
		if u, err := url.Parse(name); err == nil {
			name = u.Path
		}
	}
	name = strings.Trim(name, "/")
	if bucket != "" {
		name = strings.TrimPrefix(name, bucket+"/")
	}
	if legacyPrefix != "" && strings.HasPrefix(name, legacyPrefix) {
		name = strings.Replace(name, legacyPrefix, "", 1)
	}
	return name
}
