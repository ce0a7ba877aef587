package models

import (
	"time"

	"gorm.io/gorm"
)

// Hackathon lifecycle statuses. Draft, pending_approval and rejected are
// organizer-side states; the rest are live states derived from the timeline.
const (
	HackathonStatusDraft     = "draft"
	HackathonStatusPending   = "pending_approval"
	HackathonStatusRejected  = "rejected"
	HackathonStatusPublished = "published"
	HackathonStatusUpcoming  = "upcoming"
	HackathonStatusOngoing   = "ongoing"
	HackathonStatusCompleted = "completed"
)

// Judge invitation statuses.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// JudgingCriterion is one named scoring dimension of a hackathon.
type JudgingCriterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	MaxScore    float64 `json:"max_score"`
}

// Announcement is an organizer broadcast attached to a hackathon.
type Announcement struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamSettings bounds team sizes for a hackathon.
type TeamSettings struct {
	MinTeamSize int `json:"min_team_size"`
	MaxTeamSize int `json:"max_team_size"`
}

// Hackathon is an event run by an organizer.
type Hackathon struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrganizerID uint   `gorm:"index;not null" json:"organizer_id"`
	Organizer   *User  `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
	BannerURL   string `json:"banner_url"`

	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	HackathonStart    time.Time `json:"hackathon_start"`
	HackathonEnd      time.Time `json:"hackathon_end"`
	ResultsDate       time.Time `json:"results_date"`

	TeamSettings TeamSettings `gorm:"embedded;embeddedPrefix:team_" json:"team_settings"`

	FirstPrize  string `json:"first_prize"`
	SecondPrize string `json:"second_prize"`
	ThirdPrize  string `json:"third_prize"`

	JudgingCriteria []JudgingCriterion `gorm:"serializer:json" json:"judging_criteria"`
	Announcements   []Announcement     `gorm:"serializer:json" json:"announcements"`

	Status           string `gorm:"index;default:draft" json:"status"`
	ResultsPublished bool   `json:"results_published"`

	// Version is the optimistic concurrency token guarding status writes.
	Version uint `gorm:"default:0" json:"-"`

	Invites []JudgeInvite `gorm:"foreignKey:HackathonID" json:"invites,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// JudgeInvite is an organizer's invitation for a user to judge a hackathon.
type JudgeInvite struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	HackathonID uint       `gorm:"index;not null;uniqueIndex:idx_invite_hackathon_judge" json:"hackathon_id"`
	JudgeID     uint       `gorm:"not null;uniqueIndex:idx_invite_hackathon_judge" json:"judge_id"`
	Judge       *User      `gorm:"foreignKey:JudgeID" json:"judge,omitempty"`
	Status      string     `gorm:"default:pending" json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsLiveStatus reports whether status is clock-derivable. Draft,
// pending_approval and rejected must never be altered by clock logic.
func IsLiveStatus(status string) bool {
	switch status {
	case HackathonStatusPublished, HackathonStatusUpcoming,
		HackathonStatusOngoing, HackathonStatusCompleted:
		return true
	}
	return false
}

// DisplayStatus derives the status to show for the given instant. Live
// statuses are recomputed from the timeline; everything else is returned
// untouched. The result is never written back to storage.
func (h *Hackathon) DisplayStatus(now time.Time) string {
	if !IsLiveStatus(h.Status) {
		return h.Status
	}
	switch {
	case now.Before(h.HackathonStart):
		return HackathonStatusUpcoming
	case now.After(h.HackathonEnd):
		return HackathonStatusCompleted
	default:
		return HackathonStatusOngoing
	}
}

// ResultsVisible reports whether ranked results may be exposed at now.
func (h *Hackathon) ResultsVisible(now time.Time) bool {
	return h.ResultsPublished || now.After(h.ResultsDate)
}

// AcceptedJudgeIDs returns the user IDs of judges who accepted their invite.
func (h *Hackathon) AcceptedJudgeIDs() []uint {
	var ids []uint
	for _, inv := range h.Invites {
		if inv.Status == InviteStatusAccepted {
			ids = append(ids, inv.JudgeID)
		}
	}
	return ids
}
