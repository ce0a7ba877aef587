// Package service provides application business logic for the platform.
package service

import (
	"context"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"
)

// UserService provides user profile and dashboard business logic.
type UserService struct {
	userRepo    repository.UserRepository
	teamRepo    repository.TeamRepository
	projectRepo repository.ProjectRepository
	hackRepo    repository.HackathonRepository
}

// NewUserService returns a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	projectRepo repository.ProjectRepository,
	hackRepo repository.HackathonRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		teamRepo:    teamRepo,
		projectRepo: projectRepo,
		hackRepo:    hackRepo,
	}
}

// UpdateProfileInput is the input for updating a user's profile.
type UpdateProfileInput struct {
	UserID    uint
	Bio       *string
	Location  *string
	AvatarURL *string
	Skills    []string
	Education []models.Education
	Social    *models.SocialLinks
}

// ListUsers returns a page of users.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.userRepo.List(ctx, limit, offset)
}

// GetUserByID returns a single user.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile applies a partial profile update. Nil fields are left untouched.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		user.Profile.Bio = *in.Bio
	}
	if in.Location != nil {
		user.Profile.Location = *in.Location
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}
	if in.Skills != nil {
		user.Profile.Skills = in.Skills
	}
	if in.Education != nil {
		user.Profile.Education = in.Education
	}
	if in.Social != nil {
		user.Profile.Social = *in.Social
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SelectRole sets the user's role once. The role is immutable after selection.
func (s *UserService) SelectRole(ctx context.Context, userID uint, role string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, models.NewValidationError("Invalid role")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != "" {
		return nil, models.NewConflictError("Role already selected")
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Dashboard is the role-aware summary returned to a signed-in user.
type Dashboard struct {
	User       *models.User         `json:"user"`
	Stats      models.UserStats     `json:"stats"`
	Teams      []models.Team        `json:"teams,omitempty"`
	Projects   []models.Project     `json:"projects,omitempty"`
	Organized  []models.Hackathon   `json:"organized,omitempty"`
	JudgeQueue []models.JudgeInvite `json:"judge_queue,omitempty"`
}

// GetDashboard assembles the dashboard for the user's role.
func (s *UserService) GetDashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.CollectStats(ctx, user)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{User: user, Stats: stats}

	switch user.Role {
	case models.RoleOrganizer:
		organized, err := s.hackRepo.ListByOrganizer(ctx, userID)
		if err != nil {
			return nil, err
		}
		dash.Organized = organized
	case models.RoleJudge:
		invites, err := s.hackRepo.ListInvitesForJudge(ctx, userID)
		if err != nil {
			return nil, err
		}
		dash.JudgeQueue = invites
	default:
		teams, err := s.teamRepo.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		projects, err := s.projectRepo.ListByCreator(ctx, userID)
		if err != nil {
			return nil, err
		}
		dash.Teams = teams
		dash.Projects = projects
	}

	return dash, nil
}

// CollectStats gathers the stat snapshot achievement rules evaluate against.
func (s *UserService) CollectStats(ctx context.Context, user *models.User) (models.UserStats, error) {
	var stats models.UserStats
	stats.ProfileCompleted = user.ProfileCompleted()

	created, err := s.projectRepo.CountByCreator(ctx, user.ID, "")
	if err != nil {
		return stats, err
	}
	stats.ProjectsCreated = float64(created)

	submitted, err := s.projectRepo.CountByCreator(ctx, user.ID, models.ProjectStatusSubmitted)
	if err != nil {
		return stats, err
	}
	stats.ProjectsSubmitted = float64(submitted)

	joined, err := s.teamRepo.CountJoinedByUser(ctx, user.ID)
	if err != nil {
		return stats, err
	}
	stats.HackathonsJoined = float64(joined)

	led, err := s.teamRepo.CountLedByUser(ctx, user.ID)
	if err != nil {
		return stats, err
	}
	stats.TeamsLed = float64(led)

	received, err := s.projectRepo.CountScoresForUserProjects(ctx, user.ID)
	if err != nil {
		return stats, err
	}
	stats.ScoresReceived = float64(received)

	organized, err := s.hackRepo.ListByOrganizer(ctx, user.ID)
	if err != nil {
		return stats, err
	}
	stats.HackathonsOrganized = float64(len(organized))

	return stats, nil
}
