package repository

import (
	"context"
	"errors"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic status write loses the race.
var ErrVersionConflict = errors.New("hackathon was modified concurrently")

// HackathonRepository defines persistence operations for hackathons and judge invites.
type HackathonRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Hackathon, error)
	GetByIDWithInvites(ctx context.Context, id uint) (*models.Hackathon, error)
	Create(ctx context.Context, hackathon *models.Hackathon) error
	Update(ctx context.Context, hackathon *models.Hackathon) error
	Delete(ctx context.Context, id uint) error
	ListPublished(ctx context.Context, limit, offset int) ([]models.Hackathon, error)
	ListByOrganizer(ctx context.Context, organizerID uint) ([]models.Hackathon, error)
	ListPendingApproval(ctx context.Context) ([]models.Hackathon, error)

	// UpdateStatusVersioned transitions the hackathon's status only if its
	// version still matches expectedVersion, bumping the version on success.
	UpdateStatusVersioned(ctx context.Context, id uint, expectedVersion uint, newStatus string) error

	CreateInvite(ctx context.Context, invite *models.JudgeInvite) error
	GetInvite(ctx context.Context, hackathonID, judgeID uint) (*models.JudgeInvite, error)
	UpdateInvite(ctx context.Context, invite *models.JudgeInvite) error
	ListInvitesForJudge(ctx context.Context, judgeID uint) ([]models.JudgeInvite, error)
}

type hackathonRepository struct {
	db *gorm.DB
}

// NewHackathonRepository returns a new HackathonRepository implementation.
func NewHackathonRepository(db *gorm.DB) HackathonRepository {
	return &hackathonRepository{db: db}
}

func (r *hackathonRepository) GetByID(ctx context.Context, id uint) (*models.Hackathon, error) {
	var hackathon models.Hackathon
	if err := r.db.WithContext(ctx).First(&hackathon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Hackathon", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &hackathon, nil
}

func (r *hackathonRepository) GetByIDWithInvites(ctx context.Context, id uint) (*models.Hackathon, error) {
	var hackathon models.Hackathon
	if err := r.db.WithContext(ctx).
		Preload("Invites").
		Preload("Invites.Judge").
		First(&hackathon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Hackathon", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &hackathon, nil
}

func (r *hackathonRepository) Create(ctx context.Context, hackathon *models.Hackathon) error {
	if err := r.db.WithContext(ctx).Create(hackathon).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hackathonRepository) Update(ctx context.Context, hackathon *models.Hackathon) error {
	if err := r.db.WithContext(ctx).Save(hackathon).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hackathonRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Hackathon{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hackathonRepository) ListPublished(ctx context.Context, limit, offset int) ([]models.Hackathon, error) {
	var hackathons []models.Hackathon
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			models.HackathonStatusPublished,
			models.HackathonStatusUpcoming,
			models.HackathonStatusOngoing,
			models.HackathonStatusCompleted,
		}).
		Order("hackathon_start ASC").
		Limit(limit).Offset(offset).
		Find(&hackathons).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return hackathons, nil
}

func (r *hackathonRepository) ListByOrganizer(ctx context.Context, organizerID uint) ([]models.Hackathon, error) {
	var hackathons []models.Hackathon
	if err := r.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&hackathons).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return hackathons, nil
}

func (r *hackathonRepository) ListPendingApproval(ctx context.Context) ([]models.Hackathon, error) {
	var hackathons []models.Hackathon
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.HackathonStatusPending).
		Order("updated_at ASC").
		Find(&hackathons).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return hackathons, nil
}

func (r *hackathonRepository) UpdateStatusVersioned(ctx context.Context, id uint, expectedVersion uint, newStatus string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Hackathon{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":  newStatus,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the row is gone or another writer bumped the version first.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Hackathon{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count == 0 {
			return models.NewNotFoundError("Hackathon", id)
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *hackathonRepository) CreateInvite(ctx context.Context, invite *models.JudgeInvite) error {
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Judge already invited to this hackathon")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hackathonRepository) GetInvite(ctx context.Context, hackathonID, judgeID uint) (*models.JudgeInvite, error) {
	var invite models.JudgeInvite
	if err := r.db.WithContext(ctx).
		Where("hackathon_id = ? AND judge_id = ?", hackathonID, judgeID).
		First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &invite, nil
}

func (r *hackathonRepository) UpdateInvite(ctx context.Context, invite *models.JudgeInvite) error {
	if err := r.db.WithContext(ctx).Save(invite).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hackathonRepository) ListInvitesForJudge(ctx context.Context, judgeID uint) ([]models.JudgeInvite, error) {
	var invites []models.JudgeInvite
	if err := r.db.WithContext(ctx).
		Where("judge_id = ?", judgeID).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return invites, nil
}
