package service

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/notifications"
	"github.com/romeirofernandes/vhack-sub000/internal/observability"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"
)

const maxMessageLength = 2000

// ChatService provides hackathon room chat logic. Delivery rides Redis
// pub/sub; persistence is best-effort and never blocks delivery.
type ChatService struct {
	chatRepo repository.ChatRepository
	teamRepo repository.TeamRepository
	hackRepo repository.HackathonRepository
	userRepo repository.UserRepository
	notifier *notifications.Notifier
	now      func() time.Time
}

// NewChatService returns a new ChatService.
func NewChatService(
	chatRepo repository.ChatRepository,
	teamRepo repository.TeamRepository,
	hackRepo repository.HackathonRepository,
	userRepo repository.UserRepository,
	notifier *notifications.Notifier,
) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		teamRepo: teamRepo,
		hackRepo: hackRepo,
		userRepo: userRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// CanAccessRoom reports whether the user may read or post in the hackathon's
// room: registered participants, accepted judges, and the organizer.
func (s *ChatService) CanAccessRoom(ctx context.Context, hackathonID, userID uint) (bool, error) {
	hackathon, err := s.hackRepo.GetByIDWithInvites(ctx, hackathonID)
	if err != nil {
		return false, err
	}
	if hackathon.OrganizerID == userID {
		return true, nil
	}
	for _, judgeID := range hackathon.AcceptedJudgeIDs() {
		if judgeID == userID {
			return true, nil
		}
	}
	member, err := s.teamRepo.GetMembership(ctx, hackathonID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

// SendMessageInput is the input for posting a chat message.
type SendMessageInput struct {
	HackathonID uint
	SenderID    uint
	Body        string
}

// SendMessage publishes a message to the room and persists it. Publish
// failures surface to the caller; persistence failures only log.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.ChatMessage, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, models.NewValidationError("Message body is required")
	}
	if len(body) > maxMessageLength {
		return nil, models.NewValidationError("Message is too long")
	}

	allowed, err := s.CanAccessRoom(ctx, in.HackathonID, in.SenderID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("Not a participant of this hackathon")
	}

	sender, err := s.userRepo.GetByID(ctx, in.SenderID)
	if err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		HackathonID: in.HackathonID,
		SenderID:    in.SenderID,
		SenderName:  sender.Username,
		Body:        body,
		CreatedAt:   s.now(),
	}

	if s.notifier != nil {
		event := notifications.RoomEvent{
			Type:        "message",
			HackathonID: in.HackathonID,
			UserID:      in.SenderID,
			Username:    sender.Username,
			Payload:     message,
		}
		payload, merr := json.Marshal(event)
		if merr != nil {
			return nil, models.NewInternalError(merr)
		}
		if perr := s.notifier.PublishChatMessage(ctx, in.HackathonID, string(payload)); perr != nil {
			return nil, models.NewInternalError(perr)
		}
		observability.ChatMessagesPublished.WithLabelValues(strconv.FormatUint(uint64(in.HackathonID), 10)).Inc()
	}

	// Persistence is best-effort: a failed write must not retract a
	// message that already fanned out.
	if err := s.chatRepo.Create(ctx, message); err != nil {
		log.Printf("ChatService: failed to persist message for hackathon %d: %v", in.HackathonID, err)
	}
	return message, nil
}

// History returns a page of room history, newest first.
func (s *ChatService) History(ctx context.Context, hackathonID, userID uint, limit int, beforeID uint) ([]models.ChatMessage, error) {
	allowed, err := s.CanAccessRoom(ctx, hackathonID, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("Not a participant of this hackathon")
	}
	return s.chatRepo.ListByHackathon(ctx, hackathonID, limit, beforeID)
}
