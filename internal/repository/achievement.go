package repository

import (
	"context"
	"errors"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"gorm.io/gorm"
)

// AchievementRepository defines persistence operations for the achievement
// catalog and per-user unlocks.
type AchievementRepository interface {
	ListCatalog(ctx context.Context) ([]models.Achievement, error)
	GetByCode(ctx context.Context, code string) (*models.Achievement, error)
	SyncCatalog(ctx context.Context, catalog []models.Achievement) error

	ListUnlocked(ctx context.Context, userID uint) ([]models.UserAchievement, error)
	Unlock(ctx context.Context, userID, achievementID uint) (bool, error)
}

type achievementRepository struct {
	db *gorm.DB
}

// NewAchievementRepository returns a new AchievementRepository implementation.
func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) ListCatalog(ctx context.Context) ([]models.Achievement, error) {
	var achievements []models.Achievement
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&achievements).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return achievements, nil
}

func (r *achievementRepository) GetByCode(ctx context.Context, code string) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&achievement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &achievement, nil
}

// SyncCatalog upserts the YAML catalog into the achievements table, keyed by
// code. Entries removed from the catalog are left in place so existing
// unlocks keep their references.
func (r *achievementRepository) SyncCatalog(ctx context.Context, catalog []models.Achievement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range catalog {
			entry := &catalog[i]
			var existing models.Achievement
			err := tx.Where("code = ?", entry.Code).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(entry).Error; err != nil {
					return models.NewInternalError(err)
				}
				continue
			}
			if err != nil {
				return models.NewInternalError(err)
			}
			existing.Title = entry.Title
			existing.Description = entry.Description
			existing.Icon = entry.Icon
			existing.Rule = entry.Rule
			if err := tx.Save(&existing).Error; err != nil {
				return models.NewInternalError(err)
			}
			entry.ID = existing.ID
		}
		return nil
	})
}

func (r *achievementRepository) ListUnlocked(ctx context.Context, userID uint) ([]models.UserAchievement, error) {
	var unlocked []models.UserAchievement
	if err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Find(&unlocked).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return unlocked, nil
}

// Unlock records the achievement for the user. Returns false when it was
// already unlocked; the unique index makes this race-safe.
func (r *achievementRepository) Unlock(ctx context.Context, userID, achievementID uint) (bool, error) {
	ua := models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&ua).Error; err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, models.NewInternalError(err)
	}
	return true, nil
}
