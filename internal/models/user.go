// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Role stays empty until the user picks one after signup.
const (
	RoleParticipant = "participant"
	RoleJudge       = "judge"
	RoleOrganizer   = "organizer"
)

// Education is one entry in a user's education history.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Year        string `json:"year"`
}

// SocialLinks holds a user's public profile links.
type SocialLinks struct {
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Profile is the editable profile sub-document embedded in User.
type Profile struct {
	Bio       string      `json:"bio"`
	Location  string      `json:"location"`
	Skills    []string    `gorm:"serializer:json" json:"skills"`
	Education []Education `gorm:"serializer:json" json:"education"`
	Social    SocialLinks `gorm:"serializer:json" json:"social"`
}

// User represents an account on the platform. Users are created on signup
// and never deleted in-app.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Role      string         `gorm:"index" json:"role"`
	AvatarURL string         `json:"avatar_url"`
	Profile   Profile        `gorm:"embedded;embeddedPrefix:profile_" json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsValidRole reports whether role is one of the selectable user roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleParticipant, RoleJudge, RoleOrganizer:
		return true
	}
	return false
}

// ProfileCompleted reports whether the user filled the minimum profile
// fields used by achievement stats.
func (u *User) ProfileCompleted() bool {
	return u.Profile.Bio != "" && len(u.Profile.Skills) > 0 && u.Role != ""
}
