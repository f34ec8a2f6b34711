package models

import (
	"time"
)

// Event is a calendar entry. Recurring instances point at their origin
// through RecurrenceID.
type Event struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title        string    `gorm:"size:100;not null" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Location     string    `gorm:"size:150;not null" json:"location"`
	StartTime    time.Time `gorm:"not null" json:"start_time"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	RecurrenceID *uint     `gorm:"index" json:"recurrence_id"`
	Recurrence   *Event    `gorm:"foreignKey:RecurrenceID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time `json:"created_time"`
}

func (e *Event) OwnedBy(userID uint) bool {
	return e != nil && e.UserID == userID
}

func (e *Event) TagSubject() (TaggableKind, uint) {
	return TaggableEvent, e.ID
}

// ResponseStatus is the answer state shared by attendees and contacts.
type ResponseStatus string

const (
	StatusPending  ResponseStatus = "pending"
	StatusAccepted ResponseStatus = "accepted"
	StatusRefused  ResponseStatus = "refused"
)

// Valid reports whether s is one of the known states.
func (s ResponseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// Attendee links a user to an event.
type Attendee struct {
	ID      uint           `gorm:"primaryKey" json:"id"`
	EventID uint           `gorm:"not null;uniqueIndex:idx_attendee_event_user" json:"event"`
	Event   *Event         `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	UserID  uint           `gorm:"not null;uniqueIndex:idx_attendee_event_user;index" json:"user"`
	User    *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Status  ResponseStatus `gorm:"size:50;not null;default:'pending'" json:"status"`
}

// OwnedBy is true for the attending user only.
func (a *Attendee) OwnedBy(userID uint) bool {
	return a != nil && a.UserID == userID
}

// Involves also admits the owner of the event. Event must be loaded for
// that branch to apply.
func (a *Attendee) Involves(userID uint) bool {
	if a == nil {
		return false
	}
	if a.UserID == userID {
		return true
	}
	return a.Event != nil && a.Event.UserID == userID
}
