package repository

import (
	"context"
	"errors"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"gorm.io/gorm"
)

// TeamRepository defines persistence operations for teams and memberships.
type TeamRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Team, error)
	GetByJoinCode(ctx context.Context, code string) (*models.Team, error)
	Create(ctx context.Context, team *models.Team) error
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id uint) error
	ListByHackathon(ctx context.Context, hackathonID uint) ([]models.Team, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Team, error)

	AddMember(ctx context.Context, member *models.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID uint) error
	GetMembership(ctx context.Context, hackathonID, userID uint) (*models.TeamMember, error)
	CountMembers(ctx context.Context, teamID uint) (int64, error)
	CountLedByUser(ctx context.Context, userID uint) (int64, error)
	CountJoinedByUser(ctx context.Context, userID uint) (int64, error)
}

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository returns a new TeamRepository implementation.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) GetByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Members.User").
		First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Team", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &team, nil
}

func (r *teamRepository) GetByJoinCode(ctx context.Context, code string) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Where("join_code = ?", code).
		First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &team, nil
}

func (r *teamRepository) Create(ctx context.Context, team *models.Team) error {
	if err := r.db.WithContext(ctx).Create(team).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Join code collision, retry")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *teamRepository) Update(ctx context.Context, team *models.Team) error {
	if err := r.db.WithContext(ctx).Save(team).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *teamRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Team{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *teamRepository) ListByHackathon(ctx context.Context, hackathonID uint) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Where("hackathon_id = ?", hackathonID).
		Order("created_at ASC").
		Find(&teams).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return teams, nil
}

func (r *teamRepository) ListByUser(ctx context.Context, userID uint) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("teams.created_at DESC").
		Find(&teams).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return teams, nil
}

func (r *teamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User is already a member of this team")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetMembership returns the user's membership in any team of the hackathon,
// or nil when they have not joined one.
func (r *teamRepository) GetMembership(ctx context.Context, hackathonID, userID uint) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.WithContext(ctx).
		Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("teams.hackathon_id = ? AND team_members.user_id = ?", hackathonID, userID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &member, nil
}

func (r *teamRepository) CountMembers(ctx context.Context, teamID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TeamMember{}).
		Where("team_id = ?", teamID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *teamRepository) CountLedByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Team{}).
		Where("leader_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *teamRepository) CountJoinedByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TeamMember{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
