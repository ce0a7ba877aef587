package service

import (
	"context"
	"sort"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/cache"
	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"
)

// ResultsService assembles ranked leaderboards for completed hackathons.
type ResultsService struct {
	projectRepo repository.ProjectRepository
	hackRepo    repository.HackathonRepository
	now         func() time.Time
}

// NewResultsService returns a new ResultsService.
func NewResultsService(projectRepo repository.ProjectRepository, hackRepo repository.HackathonRepository) *ResultsService {
	return &ResultsService{
		projectRepo: projectRepo,
		hackRepo:    hackRepo,
		now:         time.Now,
	}
}

// RankedProject is one leaderboard row.
type RankedProject struct {
	Rank       int     `json:"rank"`
	ProjectID  uint    `json:"project_id"`
	Title      string  `json:"title"`
	TeamID     *uint   `json:"team_id,omitempty"`
	TeamName   string  `json:"team_name,omitempty"`
	FinalScore float64 `json:"final_score"`
	Prize      string  `json:"prize,omitempty"`
}

// Leaderboard is the published results payload for a hackathon.
type Leaderboard struct {
	HackathonID uint            `json:"hackathon_id"`
	Title       string          `json:"title"`
	Rankings    []RankedProject `json:"rankings"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// RankProjects orders judged projects into a dense leaderboard. Projects with
// equal final scores share a rank; the next distinct score takes rank
// previous+tied-count (1,2,2,4). Ties on score order by earlier submission.
func RankProjects(projects []models.Project) []RankedProject {
	judged := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.Status == models.ProjectStatusJudged && p.FinalScore != nil {
			judged = append(judged, p)
		}
	}

	sort.SliceStable(judged, func(i, j int) bool {
		si, sj := *judged[i].FinalScore, *judged[j].FinalScore
		if si != sj {
			return si > sj
		}
		ti, tj := judged[i].SubmittedAt, judged[j].SubmittedAt
		if ti != nil && tj != nil && !ti.Equal(*tj) {
			return ti.Before(*tj)
		}
		return judged[i].ID < judged[j].ID
	})

	rankings := make([]RankedProject, 0, len(judged))
	for i, p := range judged {
		rank := i + 1
		if i > 0 && *p.FinalScore == *judged[i-1].FinalScore {
			rank = rankings[i-1].Rank
		}
		row := RankedProject{
			Rank:       rank,
			ProjectID:  p.ID,
			Title:      p.Title,
			TeamID:     p.TeamID,
			FinalScore: *p.FinalScore,
		}
		if p.Team != nil {
			row.TeamName = p.Team.Name
		}
		rankings = append(rankings, row)
	}
	return rankings
}

// assignPrizes attaches the hackathon's prizes to ranks 1-3. Tied ranks all
// receive the prize for that rank.
func assignPrizes(rankings []RankedProject, hackathon *models.Hackathon) {
	prizes := map[int]string{
		1: hackathon.FirstPrize,
		2: hackathon.SecondPrize,
		3: hackathon.ThirdPrize,
	}
	for i := range rankings {
		if prize, ok := prizes[rankings[i].Rank]; ok && prize != "" {
			rankings[i].Prize = prize
		}
	}
}

// GetLeaderboard returns the ranked results for a hackathon. Results are
// hidden until the results date passes or the organizer publishes early.
func (s *ResultsService) GetLeaderboard(ctx context.Context, hackathonID uint) (*Leaderboard, error) {
	hackathon, err := s.hackRepo.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if !models.IsLiveStatus(hackathon.Status) {
		return nil, models.NewNotFoundError("Hackathon", hackathonID)
	}
	if !hackathon.ResultsVisible(s.now()) {
		return nil, models.NewForbiddenError("Results are not yet available")
	}

	var board Leaderboard
	err = cache.Aside(ctx, cache.ResultsKey(hackathonID), &board, cache.ResultsTTL, func() error {
		projects, fetchErr := s.projectRepo.ListSubmittedByHackathon(ctx, hackathonID)
		if fetchErr != nil {
			return fetchErr
		}
		rankings := RankProjects(projects)
		assignPrizes(rankings, hackathon)
		board = Leaderboard{
			HackathonID: hackathonID,
			Title:       hackathon.Title,
			Rankings:    rankings,
			GeneratedAt: s.now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &board, nil
}
