package repository

import (
	"context"
	"errors"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"gorm.io/gorm"
)

// ProjectRepository defines persistence operations for projects and scores.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	GetByIDWithScores(ctx context.Context, id uint) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uint) error
	ListByHackathon(ctx context.Context, hackathonID uint) ([]models.Project, error)
	ListByTeam(ctx context.Context, teamID uint) ([]models.Project, error)
	ListByCreator(ctx context.Context, creatorID uint) ([]models.Project, error)
	ListSubmittedByHackathon(ctx context.Context, hackathonID uint) ([]models.Project, error)

	UpsertScore(ctx context.Context, score *models.Score) error
	ListScores(ctx context.Context, projectID uint) ([]models.Score, error)
	CountScoresForUserProjects(ctx context.Context, userID uint) (int64, error)
	CountByCreator(ctx context.Context, creatorID uint, status string) (int64, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository returns a new ProjectRepository implementation.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Project", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &project, nil
}

func (r *projectRepository) GetByIDWithScores(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Preload("Scores").
		Preload("Scores.Judge").
		Preload("Team").
		First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Project", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &project, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Project{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) ListByHackathon(ctx context.Context, hackathonID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Preload("Team").
		Where("hackathon_id = ?", hackathonID).
		Order("created_at ASC").
		Find(&projects).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

func (r *projectRepository) ListByTeam(ctx context.Context, teamID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&projects).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

func (r *projectRepository) ListByCreator(ctx context.Context, creatorID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

func (r *projectRepository) ListSubmittedByHackathon(ctx context.Context, hackathonID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Preload("Scores").
		Preload("Team").
		Where("hackathon_id = ? AND status IN ?", hackathonID, []string{
			models.ProjectStatusSubmitted,
			models.ProjectStatusJudging,
			models.ProjectStatusJudged,
		}).
		Order("submitted_at ASC").
		Find(&projects).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

// UpsertScore inserts a judge's score, or overwrites an existing one for the
// same (project, judge) pair.
func (r *projectRepository) UpsertScore(ctx context.Context, score *models.Score) error {
	var existing models.Score
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND judge_id = ?", score.ProjectID, score.JudgeID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := r.db.WithContext(ctx).Create(score).Error; err != nil {
				if isUniqueConstraintError(err) {
					return models.NewConflictError("Score submitted concurrently, retry")
				}
				return models.NewInternalError(err)
			}
			return nil
		}
		return models.NewInternalError(err)
	}

	existing.Breakdown = score.Breakdown
	existing.Total = score.Total
	existing.Feedback = score.Feedback
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return models.NewInternalError(err)
	}
	score.ID = existing.ID
	return nil
}

func (r *projectRepository) ListScores(ctx context.Context, projectID uint) ([]models.Score, error) {
	var scores []models.Score
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&scores).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return scores, nil
}

// CountScoresForUserProjects counts scores received across projects the user created.
func (r *projectRepository) CountScoresForUserProjects(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Score{}).
		Joins("JOIN projects ON projects.id = scores.project_id").
		Where("projects.creator_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// CountByCreator counts the user's projects, optionally filtered to a status.
// An empty status counts everything; "submitted" counts submitted-or-later.
func (r *projectRepository) CountByCreator(ctx context.Context, creatorID uint, status string) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Project{}).Where("creator_id = ?", creatorID)
	switch status {
	case "":
	case models.ProjectStatusSubmitted:
		q = q.Where("status IN ?", []string{
			models.ProjectStatusSubmitted,
			models.ProjectStatusJudging,
			models.ProjectStatusJudged,
		})
	default:
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
