package models

import (
	"time"
)

// Contact is a directed relationship request between two users.
type Contact struct {
	ID                 uint                `gorm:"primaryKey" json:"id"`
	RequesterID        uint                `gorm:"not null;uniqueIndex:idx_contact_pair" json:"requester"`
	Requester          *User               `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"-"`
	RecipientID        uint                `gorm:"not null;uniqueIndex:idx_contact_pair;index" json:"recipient"`
	Recipient          *User               `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"-"`
	Status             ResponseStatus      `gorm:"size:50;not null;default:'pending'" json:"status"`
	RequestSentAt      time.Time           `gorm:"autoCreateTime" json:"request_sent_at"`
	ResponseReceivedAt *time.Time          `json:"response_received_at"`
	Labels             []RelationshipLabel `gorm:"many2many:contact_labels;constraint:OnDelete:CASCADE" json:"-"`
	LabelIDs           []uint              `gorm:"-" json:"labels"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// OwnedBy is true for both ends of the relationship.
func (c *Contact) OwnedBy(userID uint) bool {
	return c != nil && (c.RequesterID == userID || c.RecipientID == userID)
}

func (c *Contact) Involves(userID uint) bool {
	return c.OwnedBy(userID)
}

// Counterpart returns the other end of the relationship as seen by userID.
func (c *Contact) Counterpart(userID uint) uint {
	if c.RequesterID == userID {
		return c.RecipientID
	}
	return c.RequesterID
}

// CollectLabelIDs copies the loaded labels into LabelIDs.
func (c *Contact) CollectLabelIDs() {
	c.LabelIDs = make([]uint, 0, len(c.Labels))
	for _, l := range c.Labels {
		c.LabelIDs = append(c.LabelIDs, l.ID)
	}
}

// RelationshipLabel annotates contacts ("family", "colleague", ...).
type RelationshipLabel struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	UserID      uint   `gorm:"not null;index" json:"user"`
	User        *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (l *RelationshipLabel) OwnedBy(userID uint) bool {
	return l != nil && l.UserID == userID
}
