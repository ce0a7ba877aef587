package service

import (
	"testing"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitProjectRequiresRepoURL(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    participant.ID,
		Name:        "no-repo",
	})
	require.NoError(t, err)

	project, err := f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID:   participant.ID,
		Title:       "No Repo",
		HackathonID: &hackathon.ID,
		TeamID:      &team.ID,
	})
	require.NoError(t, err)

	_, err = f.projects.SubmitProject(t.Context(), project.ID, participant.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository URL")
}

func TestSubmitProjectOutsideHackathonWindow(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    participant.ID,
		Name:        "late",
	})
	require.NoError(t, err)

	project, err := f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID:   participant.ID,
		Title:       "Late",
		RepoURL:     "https://github.com/example/late",
		HackathonID: &hackathon.ID,
		TeamID:      &team.ID,
	})
	require.NoError(t, err)

	f.advance(72 * time.Hour) // past HackathonEnd

	_, err = f.projects.SubmitProject(t.Context(), project.ID, participant.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestCreateProjectHackathonAndTeamTogether(t *testing.T) {
	f := newFixture(t)
	participant := f.createUser(t, models.RoleParticipant)
	hackathonID := uint(1)

	_, err := f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID:   participant.ID,
		Title:       "Half attached",
		HackathonID: &hackathonID,
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestScoringProgressesThroughJudging(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	judge1 := f.createUser(t, models.RoleJudge)
	judge2 := f.createUser(t, models.RoleJudge)
	hackathon := f.createPublishedHackathon(t, organizer.ID)
	f.acceptJudge(t, hackathon.ID, judge1.ID)
	f.acceptJudge(t, hackathon.ID, judge2.ID)

	project := f.submitTeamProject(t, hackathon.ID, participant.ID)
	assert.Equal(t, models.ProjectStatusSubmitted, project.Status)

	// First score: project enters judging, no final score yet.
	project, err := f.projects.SubmitScore(t.Context(), SubmitScoreInput{
		ProjectID: project.ID,
		JudgeID:   judge1.ID,
		Breakdown: map[string]float64{"Innovation": 8, "Execution": 9},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusJudging, project.Status)
	assert.Nil(t, project.FinalScore)

	// Second score completes the panel: judged with mean of totals.
	project, err = f.projects.SubmitScore(t.Context(), SubmitScoreInput{
		ProjectID: project.ID,
		JudgeID:   judge2.ID,
		Breakdown: map[string]float64{"Innovation": 6, "Execution": 7},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusJudged, project.Status)
	require.NotNil(t, project.FinalScore)
	assert.InDelta(t, 15.0, *project.FinalScore, 0.001) // (17+13)/2
}

func TestScoreResubmissionOverwrites(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	judge := f.createUser(t, models.RoleJudge)
	hackathon := f.createPublishedHackathon(t, organizer.ID)
	f.acceptJudge(t, hackathon.ID, judge.ID)

	project := f.submitTeamProject(t, hackathon.ID, participant.ID)

	_, err := f.projects.SubmitScore(t.Context(), SubmitScoreInput{
		ProjectID: project.ID,
		JudgeID:   judge.ID,
		Breakdown: map[string]float64{"Innovation": 2, "Execution": 2},
	})
	require.NoError(t, err)

	project, err = f.projects.SubmitScore(t.Context(), SubmitScoreInput{
		ProjectID: project.ID,
		JudgeID:   judge.ID,
		Breakdown: map[string]float64{"Innovation": 9, "Execution": 9},
	})
	require.NoError(t, err)

	// Single-judge panel: overwrite leaves exactly one score.
	require.Len(t, project.Scores, 1)
	assert.Equal(t, 18.0, project.Scores[0].Total)
	require.NotNil(t, project.FinalScore)
	assert.Equal(t, 18.0, *project.FinalScore)
}

func TestSubmitScoreValidatesBreakdown(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	judge := f.createUser(t, models.RoleJudge)
	hackathon := f.createPublishedHackathon(t, organizer.ID)
	f.acceptJudge(t, hackathon.ID, judge.ID)

	project := f.submitTeamProject(t, hackathon.ID, participant.ID)

	cases := []struct {
		name      string
		breakdown map[string]float64
	}{
		{"missing criterion", map[string]float64{"Innovation": 5}},
		{"out of range", map[string]float64{"Innovation": 11, "Execution": 5}},
		{"negative", map[string]float64{"Innovation": -1, "Execution": 5}},
		{"unknown criterion", map[string]float64{"Innovation": 5, "Execution": 5, "Vibes": 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.projects.SubmitScore(t.Context(), SubmitScoreInput{
				ProjectID: project.ID,
				JudgeID:   judge.ID,
				Breakdown: tc.breakdown,
			})
			require.Error(t, err)
			appErr, ok := err.(*models.AppError)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestSubmitScoreRejectsUnassignedJudge(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	judge := f.createUser(t, models.RoleJudge)
	outsider := f.createUser(t, models.RoleJudge)
	hackathon := f.createPublishedHackathon(t, organizer.ID)
	f.acceptJudge(t, hackathon.ID, judge.ID)

	project := f.submitTeamProject(t, hackathon.ID, participant.ID)

	_, err := f.projects.SubmitScore(t.Context(), SubmitScoreInput{
		ProjectID: project.ID,
		JudgeID:   outsider.ID,
		Breakdown: map[string]float64{"Innovation": 5, "Execution": 5},
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestSubmitScoreRejectsDraft(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	judge := f.createUser(t, models.RoleJudge)
	hackathon := f.createPublishedHackathon(t, organizer.ID)
	f.acceptJudge(t, hackathon.ID, judge.ID)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    participant.ID,
		Name:        "drafters",
	})
	require.NoError(t, err)
	project, err := f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID:   participant.ID,
		Title:       "Draft",
		RepoURL:     "https://github.com/example/draft",
		HackathonID: &hackathon.ID,
		TeamID:      &team.ID,
	})
	require.NoError(t, err)

	_, err = f.projects.SubmitScore(t.Context(), SubmitScoreInput{
		ProjectID: project.ID,
		JudgeID:   judge.ID,
		Breakdown: map[string]float64{"Innovation": 5, "Execution": 5},
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestJudgingQueueOmitsScoredProjects(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	p1 := f.createUser(t, models.RoleParticipant)
	p2 := f.createUser(t, models.RoleParticipant)
	judge := f.createUser(t, models.RoleJudge)
	other := f.createUser(t, models.RoleJudge)
	hackathon := f.createPublishedHackathon(t, organizer.ID)
	f.acceptJudge(t, hackathon.ID, judge.ID)
	f.acceptJudge(t, hackathon.ID, other.ID)

	projectA := f.submitTeamProject(t, hackathon.ID, p1.ID)
	projectB := f.submitTeamProject(t, hackathon.ID, p2.ID)

	_, err := f.projects.SubmitScore(t.Context(), SubmitScoreInput{
		ProjectID: projectA.ID,
		JudgeID:   judge.ID,
		Breakdown: map[string]float64{"Innovation": 5, "Execution": 5},
	})
	require.NoError(t, err)

	queue, err := f.projects.ListJudgingQueue(t.Context(), hackathon.ID, judge.ID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, projectB.ID, queue[0].ID)

	// The other judge still sees both.
	queue, err = f.projects.ListJudgingQueue(t.Context(), hackathon.ID, other.ID)
	require.NoError(t, err)
	assert.Len(t, queue, 2)
}

func TestUpdateProjectFrozenAfterSubmit(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	project := f.submitTeamProject(t, hackathon.ID, participant.ID)

	title := "New Title"
	_, err := f.projects.UpdateProject(t.Context(), UpdateProjectInput{
		ProjectID: project.ID,
		UserID:    participant.ID,
		Title:     &title,
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestComputeFinalScoreRounding(t *testing.T) {
	scores := []models.Score{
		{Total: 10},
		{Total: 11},
		{Total: 11},
	}
	// 32/3 = 10.666... rounds to 10.67
	assert.Equal(t, 10.67, models.ComputeFinalScore(scores))
	assert.Equal(t, 0.0, models.ComputeFinalScore(nil))
}
