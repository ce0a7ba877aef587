package models

import "time"

// Achievement rule kinds. Rules are a small tagged variant evaluated by a
// single interpreter instead of per-key branching.
const (
	RuleKindBoolean   = "boolean"
	RuleKindThreshold = "threshold"
)

// Stat fields referenced by achievement rules.
const (
	StatProfileCompleted    = "profileCompleted"
	StatProjectsCreated     = "projectsCreated"
	StatProjectsSubmitted   = "projectsSubmitted"
	StatHackathonsJoined    = "hackathonsJoined"
	StatTeamsLed            = "teamsLed"
	StatScoresReceived      = "scoresReceived"
	StatHackathonsOrganized = "hackathonsOrganized"
)

// AchievementRule decides when an achievement unlocks.
//
// boolean:   unlocks iff the stat equals Equals exactly.
// threshold: unlocks iff the stat is >= Min; progress is min(stat, Min).
type AchievementRule struct {
	Kind   string  `json:"kind" yaml:"kind"`
	Field  string  `json:"field" yaml:"field"`
	Equals bool    `json:"equals,omitempty" yaml:"equals,omitempty"`
	Min    float64 `json:"min,omitempty" yaml:"min,omitempty"`
}

// Achievement is a static catalog entry.
type Achievement struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"uniqueIndex;not null" json:"code"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Rule        AchievementRule `gorm:"serializer:json" json:"rule"`
}

// UserAchievement records a user's unlock of a catalog entry.
type UserAchievement struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uint         `gorm:"index;not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint         `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	Achievement   *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	UnlockedAt    time.Time    `json:"unlocked_at"`
}

// UserStats is the snapshot achievement rules are evaluated against.
type UserStats struct {
	ProfileCompleted    bool    `json:"profileCompleted"`
	ProjectsCreated     float64 `json:"projectsCreated"`
	ProjectsSubmitted   float64 `json:"projectsSubmitted"`
	HackathonsJoined    float64 `json:"hackathonsJoined"`
	TeamsLed            float64 `json:"teamsLed"`
	ScoresReceived      float64 `json:"scoresReceived"`
	HackathonsOrganized float64 `json:"hackathonsOrganized"`
}

// Bool returns the named boolean stat.
func (s UserStats) Bool(field string) (bool, bool) {
	if field == StatProfileCompleted {
		return s.ProfileCompleted, true
	}
	return false, false
}

// Number returns the named numeric stat.
func (s UserStats) Number(field string) (float64, bool) {
	switch field {
	case StatProjectsCreated:
		return s.ProjectsCreated, true
	case StatProjectsSubmitted:
		return s.ProjectsSubmitted, true
	case StatHackathonsJoined:
		return s.HackathonsJoined, true
	case StatTeamsLed:
		return s.TeamsLed, true
	case StatScoresReceived:
		return s.ScoresReceived, true
	case StatHackathonsOrganized:
		return s.HackathonsOrganized, true
	}
	return 0, false
}
