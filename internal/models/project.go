package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Project lifecycle statuses.
const (
	ProjectStatusDraft     = "draft"
	ProjectStatusSubmitted = "submitted"
	ProjectStatusJudging   = "judging"
	ProjectStatusJudged    = "judged"
)

// Analysis is the cached AI grading of a project's repository. It is a
// cache entry: valid until explicitly refreshed, never implicitly rechecked.
type Analysis struct {
	Summary      string             `json:"summary"`
	Scores       map[string]float64 `json:"scores"`
	Strengths    []string           `json:"strengths"`
	Improvements []string           `json:"improvements"`
	Model        string             `json:"model"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// Project is a team's submission to a hackathon.
type Project struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Title        string   `gorm:"not null" json:"title"`
	Description  string   `json:"description"`
	RepoURL      string   `json:"repo_url"`
	DemoURL      string   `json:"demo_url"`
	VideoURL     string   `json:"video_url"`
	ImageURL     string   `json:"image_url"`
	Technologies []string `gorm:"serializer:json" json:"technologies"`

	HackathonID *uint      `gorm:"index" json:"hackathon_id,omitempty"`
	Hackathon   *Hackathon `gorm:"foreignKey:HackathonID" json:"hackathon,omitempty"`
	TeamID      *uint      `gorm:"index" json:"team_id,omitempty"`
	Team        *Team      `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	CreatorID   uint       `gorm:"index;not null" json:"creator_id"`
	Creator     *User      `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Builders    []User     `gorm:"many2many:project_builders" json:"builders,omitempty"`

	Status      string     `gorm:"index;default:draft" json:"status"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	Scores     []Score  `gorm:"foreignKey:ProjectID" json:"scores,omitempty"`
	FinalScore *float64 `json:"final_score,omitempty"`

	Analysis   *Analysis  `gorm:"serializer:json" json:"analysis,omitempty"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Score is one judge's evaluation of a project. A judge has at most one
// score per project; resubmission overwrites it.
type Score struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	ProjectID uint               `gorm:"index;not null;uniqueIndex:idx_score_project_judge" json:"project_id"`
	JudgeID   uint               `gorm:"not null;uniqueIndex:idx_score_project_judge" json:"judge_id"`
	Judge     *User              `gorm:"foreignKey:JudgeID" json:"judge,omitempty"`
	Breakdown map[string]float64 `gorm:"serializer:json" json:"breakdown"`
	Total     float64            `json:"total"`
	Feedback  string             `json:"feedback"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ComputeFinalScore returns the arithmetic mean of the judges' totals,
// rounded to two decimals. Zero scores yield 0.
func ComputeFinalScore(scores []Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.Total
	}
	return math.Round(sum/float64(len(scores))*100) / 100
}
