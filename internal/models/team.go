package models

import (
	"time"

	"gorm.io/gorm"
)

// Team member roles within a team.
const (
	TeamRoleLeader = "leader"
	TeamRoleMember = "member"
)

// Team is a group of participants registered under a hackathon. Joining is
// self-service via the random join code.
type Team struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	HackathonID uint         `gorm:"index;not null" json:"hackathon_id"`
	Hackathon   *Hackathon   `gorm:"foreignKey:HackathonID" json:"hackathon,omitempty"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description"`
	LeaderID    uint         `gorm:"not null" json:"leader_id"`
	Leader      *User        `gorm:"foreignKey:LeaderID" json:"leader,omitempty"`
	JoinCode    string       `gorm:"uniqueIndex;not null" json:"join_code"`
	Members     []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TeamMember is a user's membership in a team.
type TeamMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TeamID   uint      `gorm:"index;not null;uniqueIndex:idx_team_member" json:"team_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_team_member" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role     string    `gorm:"default:member" json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// HasMember reports whether userID is already on the team.
func (t *Team) HasMember(userID uint) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
