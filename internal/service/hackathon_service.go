package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/cache"
	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/notifications"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"
)

// HackathonService provides hackathon lifecycle and judge invitation logic.
type HackathonService struct {
	hackRepo repository.HackathonRepository
	userRepo repository.UserRepository
	notifier *notifications.Notifier
	now      func() time.Time
}

// NewHackathonService returns a new HackathonService.
func NewHackathonService(
	hackRepo repository.HackathonRepository,
	userRepo repository.UserRepository,
	notifier *notifications.Notifier,
) *HackathonService {
	return &HackathonService{
		hackRepo: hackRepo,
		userRepo: userRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateHackathonInput is the input for creating a hackathon draft.
type CreateHackathonInput struct {
	OrganizerID       uint
	Title             string
	Description       string
	Theme             string
	BannerURL         string
	RegistrationStart time.Time
	RegistrationEnd   time.Time
	HackathonStart    time.Time
	HackathonEnd      time.Time
	ResultsDate       time.Time
	TeamSettings      models.TeamSettings
	FirstPrize        string
	SecondPrize       string
	ThirdPrize        string
	JudgingCriteria   []models.JudgingCriterion
}

func validateTimeline(in *CreateHackathonInput) error {
	if in.Title == "" {
		return models.NewValidationError("Title is required")
	}
	if !in.RegistrationStart.Before(in.RegistrationEnd) {
		return models.NewValidationError("Registration must open before it closes")
	}
	if in.RegistrationEnd.After(in.HackathonEnd) {
		return models.NewValidationError("Registration cannot close after the hackathon ends")
	}
	if !in.HackathonStart.Before(in.HackathonEnd) {
		return models.NewValidationError("Hackathon must start before it ends")
	}
	if in.ResultsDate.Before(in.HackathonEnd) {
		return models.NewValidationError("Results date cannot precede the hackathon end")
	}
	if in.TeamSettings.MinTeamSize < 1 {
		return models.NewValidationError("Minimum team size must be at least 1")
	}
	if in.TeamSettings.MaxTeamSize < in.TeamSettings.MinTeamSize {
		return models.NewValidationError("Maximum team size cannot be below the minimum")
	}
	for _, c := range in.JudgingCriteria {
		if c.Name == "" {
			return models.NewValidationError("Judging criteria need names")
		}
		if c.MaxScore <= 0 {
			return models.NewValidationError("Judging criteria need a positive max score")
		}
	}
	return nil
}

// CreateHackathon creates a draft hackathon owned by the organizer.
func (s *HackathonService) CreateHackathon(ctx context.Context, in CreateHackathonInput) (*models.Hackathon, error) {
	organizer, err := s.userRepo.GetByID(ctx, in.OrganizerID)
	if err != nil {
		return nil, err
	}
	if organizer.Role != models.RoleOrganizer {
		return nil, models.NewForbiddenError("Only organizers can create hackathons")
	}
	if err := validateTimeline(&in); err != nil {
		return nil, err
	}

	hackathon := &models.Hackathon{
		OrganizerID:       in.OrganizerID,
		Title:             in.Title,
		Description:       in.Description,
		Theme:             in.Theme,
		BannerURL:         in.BannerURL,
		RegistrationStart: in.RegistrationStart,
		RegistrationEnd:   in.RegistrationEnd,
		HackathonStart:    in.HackathonStart,
		HackathonEnd:      in.HackathonEnd,
		ResultsDate:       in.ResultsDate,
		TeamSettings:      in.TeamSettings,
		FirstPrize:        in.FirstPrize,
		SecondPrize:       in.SecondPrize,
		ThirdPrize:        in.ThirdPrize,
		JudgingCriteria:   in.JudgingCriteria,
		Status:            models.HackathonStatusDraft,
	}
	if err := s.hackRepo.Create(ctx, hackathon); err != nil {
		return nil, err
	}
	return hackathon, nil
}

// UpdateHackathonInput is the input for editing a draft hackathon.
type UpdateHackathonInput struct {
	HackathonID uint
	OrganizerID uint
	Title       *string
	Description *string
	Theme       *string
	BannerURL   *string
	FirstPrize  *string
	SecondPrize *string
	ThirdPrize  *string
}

// UpdateHackathon applies a partial edit. Only drafts and rejected
// hackathons are editable, and only by their organizer.
func (s *HackathonService) UpdateHackathon(ctx context.Context, in UpdateHackathonInput) (*models.Hackathon, error) {
	hackathon, err := s.hackRepo.GetByID(ctx, in.HackathonID)
	if err != nil {
		return nil, err
	}
	if hackathon.OrganizerID != in.OrganizerID {
		return nil, models.NewForbiddenError("Not your hackathon")
	}
	if hackathon.Status != models.HackathonStatusDraft && hackathon.Status != models.HackathonStatusRejected {
		return nil, models.NewConflictError("Only draft hackathons can be edited")
	}

	if in.Title != nil {
		hackathon.Title = *in.Title
	}
	if in.Description != nil {
		hackathon.Description = *in.Description
	}
	if in.Theme != nil {
		hackathon.Theme = *in.Theme
	}
	if in.BannerURL != nil {
		hackathon.BannerURL = *in.BannerURL
	}
	if in.FirstPrize != nil {
		hackathon.FirstPrize = *in.FirstPrize
	}
	if in.SecondPrize != nil {
		hackathon.SecondPrize = *in.SecondPrize
	}
	if in.ThirdPrize != nil {
		hackathon.ThirdPrize = *in.ThirdPrize
	}
	// A rejected hackathon returns to draft on edit so it can be re-approved.
	hackathon.Status = models.HackathonStatusDraft

	if err := s.hackRepo.Update(ctx, hackathon); err != nil {
		return nil, err
	}
	return hackathon, nil
}

// GetHackathon returns a hackathon with its display status derived for now.
func (s *HackathonService) GetHackathon(ctx context.Context, id uint) (*models.Hackathon, error) {
	hackathon, err := s.hackRepo.GetByIDWithInvites(ctx, id)
	if err != nil {
		return nil, err
	}
	hackathon.Status = hackathon.DisplayStatus(s.now())
	return hackathon, nil
}

// ListPublished returns browsable hackathons with derived display statuses,
// served cache-aside.
func (s *HackathonService) ListPublished(ctx context.Context, limit, offset int) ([]models.Hackathon, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var hackathons []models.Hackathon
	if offset == 0 && limit == 20 {
		err := cache.Aside(ctx, cache.HackathonListKey(), &hackathons, cache.ListTTL, func() error {
			var fetchErr error
			hackathons, fetchErr = s.hackRepo.ListPublished(ctx, limit, offset)
			return fetchErr
		})
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		hackathons, err = s.hackRepo.ListPublished(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	for i := range hackathons {
		hackathons[i].Status = hackathons[i].DisplayStatus(now)
	}
	return hackathons, nil
}

// ListByOrganizer returns the organizer's hackathons, all statuses included.
func (s *HackathonService) ListByOrganizer(ctx context.Context, organizerID uint) ([]models.Hackathon, error) {
	hackathons, err := s.hackRepo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range hackathons {
		hackathons[i].Status = hackathons[i].DisplayStatus(now)
	}
	return hackathons, nil
}

// ListPendingApproval returns hackathons awaiting platform review.
func (s *HackathonService) ListPendingApproval(ctx context.Context) ([]models.Hackathon, error) {
	return s.hackRepo.ListPendingApproval(ctx)
}

// InviteJudge invites a judge-role user to a draft hackathon.
func (s *HackathonService) InviteJudge(ctx context.Context, hackathonID, organizerID, judgeID uint) (*models.JudgeInvite, error) {
	hackathon, err := s.hackRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if hackathon.OrganizerID != organizerID {
		return nil, models.NewForbiddenError("Not your hackathon")
	}
	if hackathon.Status != models.HackathonStatusDraft {
		return nil, models.NewConflictError("Judges can only be invited while the hackathon is a draft")
	}

	judge, err := s.userRepo.GetByID(ctx, judgeID)
	if err != nil {
		return nil, err
	}
	if judge.Role != models.RoleJudge {
		return nil, models.NewValidationError("Invitee is not a judge")
	}

	invite := &models.JudgeInvite{
		HackathonID: hackathonID,
		JudgeID:     judgeID,
		Status:      models.InviteStatusPending,
	}
	if err := s.hackRepo.CreateInvite(ctx, invite); err != nil {
		return nil, err
	}

	s.notifyUser(ctx, judgeID, "judge_invite", map[string]interface{}{
		"hackathon_id":    hackathonID,
		"hackathon_title": hackathon.Title,
	})
	return invite, nil
}

// RespondToInvite records a judge's accept/decline. Once every invite is
// answered and at least one judge accepted, the draft is promoted to
// pending_approval under a version guard; a lost race against a concurrent
// answer is treated as success.
func (s *HackathonService) RespondToInvite(ctx context.Context, hackathonID, judgeID uint, accept bool) (*models.JudgeInvite, error) {
	invite, err := s.hackRepo.GetInvite(ctx, hackathonID, judgeID)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, models.NewNotFoundError("Invite", hackathonID)
	}
	if invite.Status != models.InviteStatusPending {
		return nil, models.NewConflictError("Invite already answered")
	}

	if accept {
		invite.Status = models.InviteStatusAccepted
	} else {
		invite.Status = models.InviteStatusDeclined
	}
	respondedAt := s.now()
	invite.RespondedAt = &respondedAt
	if err := s.hackRepo.UpdateInvite(ctx, invite); err != nil {
		return nil, err
	}

	// A decline can also be the last outstanding answer, so the promotion
	// check runs on both paths.
	if err := s.promoteToPending(ctx, hackathonID); err != nil {
		return nil, err
	}
	return invite, nil
}

// promoteToPending moves a draft to pending_approval exactly once, as soon
// as at least one judge has accepted and no invite is still unanswered.
func (s *HackathonService) promoteToPending(ctx context.Context, hackathonID uint) error {
	hackathon, err := s.hackRepo.GetByIDWithInvites(ctx, hackathonID)
	if err != nil {
		return err
	}
	if hackathon.Status != models.HackathonStatusDraft {
		// Already promoted (or further along). Nothing to do.
		return nil
	}

	accepted := 0
	for _, inv := range hackathon.Invites {
		switch inv.Status {
		case models.InviteStatusPending:
			return nil
		case models.InviteStatusAccepted:
			accepted++
		}
	}
	if accepted == 0 {
		return nil
	}

	err = s.hackRepo.UpdateStatusVersioned(ctx, hackathonID, hackathon.Version, models.HackathonStatusPending)
	if errors.Is(err, repository.ErrVersionConflict) {
		// A concurrent accept won the promotion race. The outcome is the
		// same, so swallow the conflict.
		return nil
	}
	return err
}

// ApproveHackathon moves a pending hackathon to published.
func (s *HackathonService) ApproveHackathon(ctx context.Context, hackathonID uint) (*models.Hackathon, error) {
	return s.review(ctx, hackathonID, models.HackathonStatusPublished)
}

// RejectHackathon moves a pending hackathon back to the organizer as rejected.
func (s *HackathonService) RejectHackathon(ctx context.Context, hackathonID uint) (*models.Hackathon, error) {
	return s.review(ctx, hackathonID, models.HackathonStatusRejected)
}

func (s *HackathonService) review(ctx context.Context, hackathonID uint, outcome string) (*models.Hackathon, error) {
	hackathon, err := s.hackRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if hackathon.Status != models.HackathonStatusPending {
		return nil, models.NewConflictError("Hackathon is not awaiting review")
	}

	if err := s.hackRepo.UpdateStatusVersioned(ctx, hackathonID, hackathon.Version, outcome); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, models.NewConflictError("Hackathon was reviewed concurrently")
		}
		return nil, err
	}

	cache.Invalidate(ctx, cache.HackathonListKey())
	s.notifyUser(ctx, hackathon.OrganizerID, "hackathon_reviewed", map[string]interface{}{
		"hackathon_id": hackathonID,
		"outcome":      outcome,
	})

	return s.hackRepo.GetByID(ctx, hackathonID)
}

// PublishResults flips early results visibility for a completed hackathon.
func (s *HackathonService) PublishResults(ctx context.Context, hackathonID, organizerID uint) (*models.Hackathon, error) {
	hackathon, err := s.hackRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if hackathon.OrganizerID != organizerID {
		return nil, models.NewForbiddenError("Not your hackathon")
	}
	if hackathon.DisplayStatus(s.now()) != models.HackathonStatusCompleted {
		return nil, models.NewConflictError("Results can only be published after the hackathon ends")
	}

	hackathon.ResultsPublished = true
	if err := s.hackRepo.Update(ctx, hackathon); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.ResultsKey(hackathonID))
	return hackathon, nil
}

// PostAnnouncement appends an organizer announcement and fans it out to the room.
func (s *HackathonService) PostAnnouncement(ctx context.Context, hackathonID, organizerID uint, title, message string) (*models.Hackathon, error) {
	if message == "" {
		return nil, models.NewValidationError("Announcement message is required")
	}

	hackathon, err := s.hackRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if hackathon.OrganizerID != organizerID {
		return nil, models.NewForbiddenError("Not your hackathon")
	}

	announcement := models.Announcement{
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	}
	hackathon.Announcements = append(hackathon.Announcements, announcement)
	if err := s.hackRepo.Update(ctx, hackathon); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		payload, _ := json.Marshal(notifications.RoomEvent{
			Type:        "announcement",
			HackathonID: hackathonID,
			Payload:     announcement,
		})
		_ = s.notifier.PublishAnnouncement(ctx, hackathonID, string(payload))
	}
	return hackathon, nil
}

// DeleteHackathon removes a draft. Published hackathons cannot be deleted.
func (s *HackathonService) DeleteHackathon(ctx context.Context, hackathonID, organizerID uint) error {
	hackathon, err := s.hackRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return err
	}
	if hackathon.OrganizerID != organizerID {
		return models.NewForbiddenError("Not your hackathon")
	}
	if models.IsLiveStatus(hackathon.Status) {
		return models.NewConflictError("Published hackathons cannot be deleted")
	}
	return s.hackRepo.Delete(ctx, hackathonID)
}

func (s *HackathonService) notifyUser(ctx context.Context, userID uint, eventType string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{"type": eventType, "payload": payload})
	if err != nil {
		return
	}
	_ = s.notifier.PublishUser(ctx, userID, string(body))
}
