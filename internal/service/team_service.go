package service

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"
)

// joinCodeAlphabet deliberately drops ambiguous characters (0/O, 1/I).
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const joinCodeLength = 6

// TeamService provides team formation and join-code logic.
type TeamService struct {
	teamRepo repository.TeamRepository
	hackRepo repository.HackathonRepository
	now      func() time.Time
}

// NewTeamService returns a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository, hackRepo repository.HackathonRepository) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		hackRepo: hackRepo,
		now:      time.Now,
	}
}

// GenerateJoinCode returns a random 6-character uppercase code.
func GenerateJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}

// CreateTeamInput is the input for creating a team.
type CreateTeamInput struct {
	HackathonID uint
	LeaderID    uint
	Name        string
	Description string
}

// registrationOpen checks the hackathon is published and inside its
// registration window.
func (s *TeamService) registrationOpen(ctx context.Context, hackathonID uint) (*models.Hackathon, error) {
	hackathon, err := s.hackRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if !models.IsLiveStatus(hackathon.Status) {
		return nil, models.NewConflictError("Hackathon is not open for registration")
	}
	now := s.now()
	if now.Before(hackathon.RegistrationStart) || now.After(hackathon.RegistrationEnd) {
		return nil, models.NewConflictError("Registration window is closed")
	}
	return hackathon, nil
}

// CreateTeam creates a team led by the caller and registers them as leader.
func (s *TeamService) CreateTeam(ctx context.Context, in CreateTeamInput) (*models.Team, error) {
	if in.Name == "" {
		return nil, models.NewValidationError("Team name is required")
	}

	if _, err := s.registrationOpen(ctx, in.HackathonID); err != nil {
		return nil, err
	}

	existing, err := s.teamRepo.GetMembership(ctx, in.HackathonID, in.LeaderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Already on a team in this hackathon")
	}

	// Retry on the astronomically unlikely join-code collision.
	var team *models.Team
	for attempt := 0; attempt < 3; attempt++ {
		code, err := GenerateJoinCode()
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		team = &models.Team{
			HackathonID: in.HackathonID,
			Name:        in.Name,
			Description: in.Description,
			LeaderID:    in.LeaderID,
			JoinCode:    code,
		}
		err = s.teamRepo.Create(ctx, team)
		if err == nil {
			break
		}
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "CONFLICT" && attempt < 2 {
			continue
		}
		return nil, err
	}

	member := &models.TeamMember{
		TeamID:   team.ID,
		UserID:   in.LeaderID,
		Role:     models.TeamRoleLeader,
		JoinedAt: s.now(),
	}
	if err := s.teamRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	return s.teamRepo.GetByID(ctx, team.ID)
}

// JoinTeam adds the caller to the team behind the join code. Rejects full
// teams, duplicate membership, and closed registration windows.
func (s *TeamService) JoinTeam(ctx context.Context, userID uint, joinCode string) (*models.Team, error) {
	if joinCode == "" {
		return nil, models.NewValidationError("Join code is required")
	}

	team, err := s.teamRepo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, models.NewNotFoundError("Team", joinCode)
	}

	hackathon, err := s.registrationOpen(ctx, team.HackathonID)
	if err != nil {
		return nil, err
	}

	existing, err := s.teamRepo.GetMembership(ctx, team.HackathonID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Already on a team in this hackathon")
	}

	count, err := s.teamRepo.CountMembers(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if int(count) >= hackathon.TeamSettings.MaxTeamSize {
		return nil, models.NewConflictError("Team is full")
	}

	member := &models.TeamMember{
		TeamID:   team.ID,
		UserID:   userID,
		Role:     models.TeamRoleMember,
		JoinedAt: s.now(),
	}
	if err := s.teamRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	return s.teamRepo.GetByID(ctx, team.ID)
}

// LeaveTeam removes a member. The leader cannot leave; they must delete
// the team instead.
func (s *TeamService) LeaveTeam(ctx context.Context, teamID, userID uint) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.LeaderID == userID {
		return models.NewConflictError("Leaders cannot leave their own team")
	}
	if !team.HasMember(userID) {
		return models.NewValidationError("Not a member of this team")
	}
	return s.teamRepo.RemoveMember(ctx, teamID, userID)
}

// RemoveMember lets the leader kick a member off the team.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, leaderID, memberID uint) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.LeaderID != leaderID {
		return models.NewForbiddenError("Only the team leader can remove members")
	}
	if memberID == leaderID {
		return models.NewConflictError("Leaders cannot remove themselves")
	}
	if !team.HasMember(memberID) {
		return models.NewValidationError("Not a member of this team")
	}
	return s.teamRepo.RemoveMember(ctx, teamID, memberID)
}

// GetTeam returns a team with its members.
func (s *TeamService) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	return s.teamRepo.GetByID(ctx, id)
}

// ListByHackathon returns all teams registered under a hackathon.
func (s *TeamService) ListByHackathon(ctx context.Context, hackathonID uint) ([]models.Team, error) {
	return s.teamRepo.ListByHackathon(ctx, hackathonID)
}

// ListByUser returns the teams a user belongs to.
func (s *TeamService) ListByUser(ctx context.Context, userID uint) ([]models.Team, error) {
	return s.teamRepo.ListByUser(ctx, userID)
}

// DeleteTeam removes a team. Only the leader may delete it.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID, userID uint) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.LeaderID != userID {
		return models.NewForbiddenError("Only the team leader can delete the team")
	}
	return s.teamRepo.Delete(ctx, teamID)
}
