package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/database"
	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixture bundles a throwaway database with the repos and services under test.
type fixture struct {
	db *gorm.DB

	userRepo    repository.UserRepository
	hackRepo    repository.HackathonRepository
	teamRepo    repository.TeamRepository
	projectRepo repository.ProjectRepository
	chatRepo    repository.ChatRepository

	users     *UserService
	hacks     *HackathonService
	teams     *TeamService
	projects  *ProjectService
	results   *ResultsService
	chat      *ChatService
	clockTime time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		hackRepo:    repository.NewHackathonRepository(db),
		teamRepo:    repository.NewTeamRepository(db),
		projectRepo: repository.NewProjectRepository(db),
		chatRepo:    repository.NewChatRepository(db),
		clockTime:   time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
	}

	clock := func() time.Time { return f.clockTime }

	f.users = NewUserService(f.userRepo, f.teamRepo, f.projectRepo, f.hackRepo)
	f.hacks = NewHackathonService(f.hackRepo, f.userRepo, nil)
	f.hacks.now = clock
	f.teams = NewTeamService(f.teamRepo, f.hackRepo)
	f.teams.now = clock
	f.projects = NewProjectService(f.projectRepo, f.teamRepo, f.hackRepo)
	f.projects.now = clock
	f.results = NewResultsService(f.projectRepo, f.hackRepo)
	f.results.now = clock
	f.chat = NewChatService(f.chatRepo, f.teamRepo, f.hackRepo, f.userRepo, nil)
	f.chat.now = clock

	return f
}

// advance moves the fixture clock forward.
func (f *fixture) advance(d time.Duration) {
	f.clockTime = f.clockTime.Add(d)
}

var userSeq int

func (f *fixture) createUser(t *testing.T, role string) *models.User {
	t.Helper()
	userSeq++
	user := &models.User{
		Username: fmt.Sprintf("user%d", userSeq),
		Email:    fmt.Sprintf("user%d@example.com", userSeq),
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

// createPublishedHackathon returns a hackathon that is mid-registration and
// ongoing relative to the fixture clock.
func (f *fixture) createPublishedHackathon(t *testing.T, organizerID uint) *models.Hackathon {
	t.Helper()
	now := f.clockTime
	hackathon := &models.Hackathon{
		OrganizerID:       organizerID,
		Title:             "Test Hackathon",
		RegistrationStart: now.Add(-24 * time.Hour),
		RegistrationEnd:   now.Add(24 * time.Hour),
		HackathonStart:    now.Add(-12 * time.Hour),
		HackathonEnd:      now.Add(48 * time.Hour),
		ResultsDate:       now.Add(72 * time.Hour),
		TeamSettings:      models.TeamSettings{MinTeamSize: 1, MaxTeamSize: 2},
		JudgingCriteria: []models.JudgingCriterion{
			{Name: "Innovation", MaxScore: 10},
			{Name: "Execution", MaxScore: 10},
		},
		Status: models.HackathonStatusPublished,
	}
	require.NoError(t, f.db.Create(hackathon).Error)
	return hackathon
}

func (f *fixture) acceptJudge(t *testing.T, hackathonID, judgeID uint) {
	t.Helper()
	respondedAt := f.clockTime
	invite := &models.JudgeInvite{
		HackathonID: hackathonID,
		JudgeID:     judgeID,
		Status:      models.InviteStatusAccepted,
		RespondedAt: &respondedAt,
	}
	require.NoError(t, f.db.Create(invite).Error)
}

// submitTeamProject builds a team and a submitted project under the hackathon.
func (f *fixture) submitTeamProject(t *testing.T, hackathonID, leaderID uint) *models.Project {
	t.Helper()
	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathonID,
		LeaderID:    leaderID,
		Name:        fmt.Sprintf("team-%d", leaderID),
	})
	require.NoError(t, err)

	project, err := f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID:   leaderID,
		Title:       fmt.Sprintf("project-%d", leaderID),
		RepoURL:     "https://github.com/example/demo",
		HackathonID: &hackathonID,
		TeamID:      &team.ID,
	})
	require.NoError(t, err)

	project, err = f.projects.SubmitProject(t.Context(), project.ID, leaderID)
	require.NoError(t, err)
	return project
}
