package repository

import (
	"context"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"gorm.io/gorm"
)

// ChatRepository defines persistence operations for chat messages.
// Messages are append-only; there is no update or delete.
type ChatRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	ListByHackathon(ctx context.Context, hackathonID uint, limit int, beforeID uint) ([]models.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository returns a new ChatRepository implementation.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByHackathon returns up to limit messages for a room, newest first.
// A non-zero beforeID pages backwards through history.
func (r *chatRepository) ListByHackathon(ctx context.Context, hackathonID uint, limit int, beforeID uint) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	q := r.db.WithContext(ctx).
		Where("hackathon_id = ?", hackathonID).
		Order("id DESC").
		Limit(limit)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var messages []models.ChatMessage
	if err := q.Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}
