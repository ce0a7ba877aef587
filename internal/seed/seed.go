// Package seed populates the database with realistic test data.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password shared by every seeded account.
const TestPassword = "Password123!abc"

var hackathonThemes = []string{
	"AI for Good", "Climate Tech", "Open Data", "FinTech", "HealthTech",
	"Developer Tools", "Education", "Accessibility", "Gaming", "Web3",
}

var techStacks = [][]string{
	{"Go", "PostgreSQL", "Redis"},
	{"TypeScript", "React", "Node.js"},
	{"Python", "FastAPI", "PyTorch"},
	{"Rust", "WebAssembly"},
	{"Kotlin", "Android"},
	{"Swift", "iOS", "CoreML"},
}

var defaultCriteria = []models.JudgingCriterion{
	{Name: "Innovation", Description: "Originality of the idea", MaxScore: 10},
	{Name: "Execution", Description: "Quality of the build", MaxScore: 10},
	{Name: "Impact", Description: "Potential real-world value", MaxScore: 10},
}

// Seeder creates linked test data across all tables.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder returns a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll wipes every seedable table. Order matters for FK constraints.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []interface{}{
		&models.Score{}, &models.ChatMessage{}, &models.Project{},
		&models.TeamMember{}, &models.Team{}, &models.JudgeInvite{},
		&models.Hackathon{}, &models.UserAchievement{}, &models.User{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", table, err)
		}
	}
	return nil
}

// SeedUsers creates n users split across roles: roughly one organizer and
// one judge for every five participants.
func (s *Seeder) SeedUsers(n int) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleParticipant
		switch {
		case i%7 == 0:
			role = models.RoleOrganizer
		case i%7 == 1:
			role = models.RoleJudge
		}

		user := models.User{
			Username: fmt.Sprintf("%s_%d", gofakeit.Username(), i),
			Email:    fmt.Sprintf("user%d@%s", i, gofakeit.DomainName()),
			Password: string(hashed),
			Role:     role,
			Profile: models.Profile{
				Bio:      gofakeit.Sentence(10),
				Location: gofakeit.City(),
				Skills:   techStacks[rand.Intn(len(techStacks))],
			},
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %d: %w", i, err)
		}
		users = append(users, user)
	}

	log.Printf("Created %d users", len(users))
	return users, nil
}

// SeedHackathons creates one published hackathon per organizer with accepted
// judges, mid-registration timelines, teams and draft projects.
func (s *Seeder) SeedHackathons(users []models.User, teamsPer int) ([]models.Hackathon, error) {
	var organizers, judges, participants []models.User
	for _, u := range users {
		switch u.Role {
		case models.RoleOrganizer:
			organizers = append(organizers, u)
		case models.RoleJudge:
			judges = append(judges, u)
		default:
			participants = append(participants, u)
		}
	}

	now := time.Now()
	var hackathons []models.Hackathon

	for i, org := range organizers {
		hackathon := models.Hackathon{
			OrganizerID:       org.ID,
			Title:             fmt.Sprintf("%s Hackathon %d", hackathonThemes[i%len(hackathonThemes)], i+1),
			Description:       gofakeit.Paragraph(2, 4, 8, " "),
			Theme:             hackathonThemes[i%len(hackathonThemes)],
			RegistrationStart: now.Add(-48 * time.Hour),
			RegistrationEnd:   now.Add(72 * time.Hour),
			HackathonStart:    now.Add(-24 * time.Hour),
			HackathonEnd:      now.Add(96 * time.Hour),
			ResultsDate:       now.Add(120 * time.Hour),
			TeamSettings:      models.TeamSettings{MinTeamSize: 1, MaxTeamSize: 4},
			FirstPrize:        "$5000",
			SecondPrize:       "$2000",
			ThirdPrize:        "$500",
			JudgingCriteria:   defaultCriteria,
			Status:            models.HackathonStatusPublished,
		}
		if err := s.db.Create(&hackathon).Error; err != nil {
			return nil, fmt.Errorf("failed to create hackathon: %w", err)
		}

		// Every judge accepts the first hackathon; later ones get a subset.
		for j, judge := range judges {
			if i > 0 && j%2 == 0 {
				continue
			}
			respondedAt := now.Add(-12 * time.Hour)
			invite := models.JudgeInvite{
				HackathonID: hackathon.ID,
				JudgeID:     judge.ID,
				Status:      models.InviteStatusAccepted,
				RespondedAt: &respondedAt,
			}
			if err := s.db.Create(&invite).Error; err != nil {
				return nil, fmt.Errorf("failed to create invite: %w", err)
			}
		}

		if err := s.seedTeams(&hackathon, participants, teamsPer); err != nil {
			return nil, err
		}
		hackathons = append(hackathons, hackathon)
	}

	log.Printf("Created %d hackathons", len(hackathons))
	return hackathons, nil
}

func (s *Seeder) seedTeams(hackathon *models.Hackathon, participants []models.User, count int) error {
	if len(participants) == 0 {
		return nil
	}

	for t := 0; t < count; t++ {
		leader := participants[rand.Intn(len(participants))]
		code, err := service.GenerateJoinCode()
		if err != nil {
			return err
		}

		team := models.Team{
			HackathonID: hackathon.ID,
			Name:        fmt.Sprintf("Team %s", gofakeit.HackerNoun()),
			Description: gofakeit.Sentence(8),
			LeaderID:    leader.ID,
			JoinCode:    code,
		}
		if err := s.db.Create(&team).Error; err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}

		member := models.TeamMember{
			TeamID:   team.ID,
			UserID:   leader.ID,
			Role:     models.TeamRoleLeader,
			JoinedAt: time.Now(),
		}
		if err := s.db.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to create team member: %w", err)
		}

		project := models.Project{
			Title:        gofakeit.AppName(),
			Description:  gofakeit.Paragraph(1, 3, 10, " "),
			RepoURL:      fmt.Sprintf("https://github.com/%s/%s", leader.Username, gofakeit.Word()),
			Technologies: techStacks[rand.Intn(len(techStacks))],
			HackathonID:  &hackathon.ID,
			TeamID:       &team.ID,
			CreatorID:    leader.ID,
			Status:       models.ProjectStatusDraft,
		}
		if err := s.db.Create(&project).Error; err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
	}
	return nil
}

// SeedChat fills each hackathon's room with a few messages from team leaders.
func (s *Seeder) SeedChat(hackathons []models.Hackathon, perRoom int) error {
	for _, h := range hackathons {
		var teams []models.Team
		if err := s.db.Where("hackathon_id = ?", h.ID).Find(&teams).Error; err != nil {
			return err
		}
		if len(teams) == 0 {
			continue
		}
		for m := 0; m < perRoom; m++ {
			team := teams[rand.Intn(len(teams))]
			var leader models.User
			if err := s.db.First(&leader, team.LeaderID).Error; err != nil {
				continue
			}
			msg := models.ChatMessage{
				HackathonID: h.ID,
				SenderID:    leader.ID,
				SenderName:  leader.Username,
				Body:        gofakeit.HackerPhrase(),
			}
			if err := s.db.Create(&msg).Error; err != nil {
				return fmt.Errorf("failed to create chat message: %w", err)
			}
		}
	}
	return nil
}
