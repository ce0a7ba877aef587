package service

import (
	"testing"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func judgedProject(id uint, score float64, submittedAt time.Time) models.Project {
	return models.Project{
		ID:          id,
		Title:       "p",
		Status:      models.ProjectStatusJudged,
		FinalScore:  &score,
		SubmittedAt: &submittedAt,
	}
}

func TestRankProjectsDenseRanking(t *testing.T) {
	base := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	projects := []models.Project{
		judgedProject(1, 90, base),
		judgedProject(2, 80, base.Add(time.Minute)),
		judgedProject(3, 80, base.Add(2*time.Minute)),
		judgedProject(4, 70, base.Add(3*time.Minute)),
	}

	rankings := RankProjects(projects)
	require.Len(t, rankings, 4)

	// Ties share a rank; the rank after a tie skips: 1, 2, 2, 4.
	assert.Equal(t, []int{1, 2, 2, 4}, []int{
		rankings[0].Rank, rankings[1].Rank, rankings[2].Rank, rankings[3].Rank,
	})
	assert.Equal(t, uint(1), rankings[0].ProjectID)
	assert.Equal(t, uint(4), rankings[3].ProjectID)
}

func TestRankProjectsTiebreakBySubmission(t *testing.T) {
	base := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	projects := []models.Project{
		judgedProject(10, 85, base.Add(time.Hour)),
		judgedProject(11, 85, base), // earlier submission lists first
	}

	rankings := RankProjects(projects)
	require.Len(t, rankings, 2)
	assert.Equal(t, uint(11), rankings[0].ProjectID)
	assert.Equal(t, uint(10), rankings[1].ProjectID)
	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, 1, rankings[1].Rank)
}

func TestRankProjectsSkipsUnjudged(t *testing.T) {
	base := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	score := 50.0
	projects := []models.Project{
		judgedProject(1, 90, base),
		{ID: 2, Status: models.ProjectStatusJudging, FinalScore: &score},
		{ID: 3, Status: models.ProjectStatusSubmitted},
	}

	rankings := RankProjects(projects)
	require.Len(t, rankings, 1)
	assert.Equal(t, uint(1), rankings[0].ProjectID)
}

func TestAssignPrizesWithTies(t *testing.T) {
	hackathon := &models.Hackathon{
		FirstPrize:  "$5000",
		SecondPrize: "$2000",
		ThirdPrize:  "$500",
	}
	rankings := []RankedProject{
		{Rank: 1}, {Rank: 2}, {Rank: 2}, {Rank: 4},
	}

	assignPrizes(rankings, hackathon)

	assert.Equal(t, "$5000", rankings[0].Prize)
	assert.Equal(t, "$2000", rankings[1].Prize)
	assert.Equal(t, "$2000", rankings[2].Prize)
	// Rank 4 after a tie at 2: the third prize is never awarded.
	assert.Empty(t, rankings[3].Prize)
}

func TestGetLeaderboardHiddenBeforeResultsDate(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	_, err := f.results.GetLeaderboard(t.Context(), hackathon.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestGetLeaderboardAfterResultsDate(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	f.advance(100 * time.Hour) // past ResultsDate

	board, err := f.results.GetLeaderboard(t.Context(), hackathon.ID)
	require.NoError(t, err)
	assert.Equal(t, hackathon.ID, board.HackathonID)
	assert.Empty(t, board.Rankings)
}

func TestGetLeaderboardEarlyPublish(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	require.NoError(t, f.db.Model(hackathon).Update("results_published", true).Error)

	board, err := f.results.GetLeaderboard(t.Context(), hackathon.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Hackathon", board.Title)
}

func TestGetLeaderboardDraftIsNotFound(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	hackathon := &models.Hackathon{
		OrganizerID: organizer.ID,
		Title:       "Secret Draft",
		Status:      models.HackathonStatusDraft,
	}
	require.NoError(t, f.db.Create(hackathon).Error)

	_, err := f.results.GetLeaderboard(t.Context(), hackathon.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
