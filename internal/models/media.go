package models

import (
	"time"
)

// MediaKind classifies an uploaded binary.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// Media is an uploaded image or video owned by a user.
type Media struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Caption     string     `gorm:"size:150" json:"caption"`
	MediaType   MediaKind  `gorm:"size:20;not null" json:"media_type"`
	Permalink   string     `gorm:"size:500;not null" json:"permalink"`
	Shortcode   string     `gorm:"size:50" json:"shortcode"`
	StorageFile string     `gorm:"size:500;not null" json:"storage_file"`
	IsPublished bool       `gorm:"not null;default:false" json:"is_published"`
	Category    int        `gorm:"not null" json:"category"`
	Tags        []MediaTag `gorm:"foreignKey:MediaID" json:"-"`
	TagIDs      []uint     `gorm:"-" json:"tagIds"`
	CreatedAt   time.Time  `json:"created_time"`
}

// OwnedBy reports whether userID owns the media.
func (m *Media) OwnedBy(userID uint) bool {
	return m != nil && m.UserID == userID
}

// TagSubject identifies the media as a user tag target.
func (m *Media) TagSubject() (TaggableKind, uint) {
	return TaggableMedia, m.ID
}

// CollectTagIDs copies the loaded join rows into TagIDs.
func (m *Media) CollectTagIDs() {
	m.TagIDs = make([]uint, 0, len(m.Tags))
	for _, t := range m.Tags {
		m.TagIDs = append(m.TagIDs, t.TagID)
	}
}

// TableName keeps the table name independent of pluralization rules.
func (Media) TableName() string {
	return "media"
}
