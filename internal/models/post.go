package models

import (
	"time"
)

// Post is a text post owned by a user.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Tags      []PostTag `gorm:"foreignKey:PostID" json:"-"`
	TagIDs    []uint    `gorm:"-" json:"tagIds"`
	CreatedAt time.Time `json:"created_time"`
}

// MaxPostContentLength bounds Post.Content in runes.
const MaxPostContentLength = 1000

func (p *Post) OwnedBy(userID uint) bool {
	return p != nil && p.UserID == userID
}

func (p *Post) TagSubject() (TaggableKind, uint) {
	return TaggablePost, p.ID
}

// CollectTagIDs copies the loaded join rows into TagIDs.
func (p *Post) CollectTagIDs() {
	p.TagIDs = make([]uint, 0, len(p.Tags))
	for _, t := range p.Tags {
		p.TagIDs = append(p.TagIDs, t.TagID)
	}
}
