package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Tag is a shared label attachable to posts, media and user tags.
type Tag struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// PostTag attaches a tag to a post.
type PostTag struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	PostID uint  `gorm:"not null;uniqueIndex:idx_post_tag" json:"post"`
	Post   *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	TagID  uint  `gorm:"not null;uniqueIndex:idx_post_tag;index" json:"tag"`
	Tag    *Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}

// MediaTag attaches a tag to a media row.
type MediaTag struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	MediaID uint   `gorm:"not null;uniqueIndex:idx_media_tag" json:"media"`
	Media   *Media `gorm:"foreignKey:MediaID;constraint:OnDelete:CASCADE" json:"-"`
	TagID   uint   `gorm:"not null;uniqueIndex:idx_media_tag;index" json:"tag"`
	Tag     *Tag   `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}

// TaggableKind is the closed set of entities a user tag can point at.
type TaggableKind string

const (
	TaggablePost  TaggableKind = "post"
	TaggableMedia TaggableKind = "media"
	TaggableEvent TaggableKind = "event"
	TaggableUser  TaggableKind = "user"
)

// Valid reports whether k names a taggable entity.
func (k TaggableKind) Valid() bool {
	switch k {
	case TaggablePost, TaggableMedia, TaggableEvent, TaggableUser:
		return true
	}
	return false
}

// Taggable is implemented by every entity a UserTag can reference.
type Taggable interface {
	TagSubject() (TaggableKind, uint)
}

// UserTag is a user's private tag on one entity. Exactly one of the
// subject columns is set, matching SubjectKind; each has its own foreign
// key so a deleted subject takes its tags with it.
type UserTag struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;uniqueIndex:idx_user_tag_subject" json:"user"`
	User         *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TagID        uint         `gorm:"not null;uniqueIndex:idx_user_tag_subject" json:"tag"`
	Tag          *Tag         `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
	SubjectKind  TaggableKind `gorm:"size:16;not null;uniqueIndex:idx_user_tag_subject" json:"subject_kind"`
	SubjectID    uint         `gorm:"not null;uniqueIndex:idx_user_tag_subject" json:"subject_id"`
	PostID       *uint        `json:"-"`
	Post         *Post        `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	MediaID      *uint        `json:"-"`
	Media        *Media       `gorm:"foreignKey:MediaID;constraint:OnDelete:CASCADE" json:"-"`
	EventID      *uint        `json:"-"`
	Event        *Event       `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	TaggedUserID *uint        `json:"-"`
	TaggedUser   *User        `gorm:"foreignKey:TaggedUserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time    `json:"created_time"`
}

// NewUserTag builds a tag by userID on subject.
func NewUserTag(userID, tagID uint, subject Taggable) *UserTag {
	ut := &UserTag{UserID: userID, TagID: tagID}
	ut.SetSubject(subject.TagSubject())
	return ut
}

// SetSubject points the tag at (kind, id), clearing the other columns.
func (ut *UserTag) SetSubject(kind TaggableKind, id uint) {
	ut.SubjectKind = kind
	ut.SubjectID = id
	ut.PostID, ut.MediaID, ut.EventID, ut.TaggedUserID = nil, nil, nil, nil
	ref := id
	switch kind {
	case TaggablePost:
		ut.PostID = &ref
	case TaggableMedia:
		ut.MediaID = &ref
	case TaggableEvent:
		ut.EventID = &ref
	case TaggableUser:
		ut.TaggedUserID = &ref
	}
}

// subjectColumn returns the id stored in the column selected by SubjectKind
// and how many subject columns are set.
func (ut *UserTag) subjectColumn() (*uint, int) {
	var selected *uint
	set := 0
	for kind, col := range map[TaggableKind]*uint{
		TaggablePost:  ut.PostID,
		TaggableMedia: ut.MediaID,
		TaggableEvent: ut.EventID,
		TaggableUser:  ut.TaggedUserID,
	} {
		if col == nil {
			continue
		}
		set++
		if kind == ut.SubjectKind {
			selected = col
		}
	}
	return selected, set
}

// Validate checks the union is well formed.
func (ut *UserTag) Validate() error {
	if !ut.SubjectKind.Valid() {
		return fmt.Errorf("unknown subject kind %q", ut.SubjectKind)
	}
	col, set := ut.subjectColumn()
	if set != 1 || col == nil {
		return fmt.Errorf("user tag must reference exactly one %s", ut.SubjectKind)
	}
	if *col != ut.SubjectID || ut.SubjectID == 0 {
		return fmt.Errorf("user tag subject id mismatch")
	}
	return nil
}

// BeforeSave rejects malformed unions.
func (ut *UserTag) BeforeSave(_ *gorm.DB) error {
	if err := ut.Validate(); err != nil {
		return NewValidationError(err.Error())
	}
	return nil
}

func (ut *UserTag) OwnedBy(userID uint) bool {
	return ut != nil && ut.UserID == userID
}

// Unique is a bare timestamped marker row.
type Unique struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_time"`
}

// TagSubject lets users be tagged too.
func (u *User) TagSubject() (TaggableKind, uint) {
	return TaggableUser, u.ID
}
