// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Profile defaults applied when a user is created without them.
const (
	DefaultPicture = "default_profile_picture.jpg"
	DefaultBio     = "New user at QipU!"
)

// User represents an account.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email     string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	FirstName string     `gorm:"size:30" json:"first_name"`
	LastName  string     `gorm:"size:30" json:"last_name"`
	Picture   string     `gorm:"size:500;default:'default_profile_picture.jpg'" json:"picture"`
	Bio       string     `gorm:"size:250;default:'New user at QipU!'" json:"bio"`
	LastLogin *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_time"`
	UpdatedAt time.Time  `json:"-"`
}

// OwnedBy reports whether userID is this account.
func (u *User) OwnedBy(userID uint) bool {
	return u != nil && u.ID == userID
}

// ApplyProfileDefaults fills picture and bio when they were left empty.
func (u *User) ApplyProfileDefaults() {
	if u.Picture == "" {
		u.Picture = DefaultPicture
	}
	if u.Bio == "" {
		u.Bio = DefaultBio
	}
}
