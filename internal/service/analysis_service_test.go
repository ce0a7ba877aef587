package service

import (
	"testing"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeProjectServesStoredResult(t *testing.T) {
	f := newFixture(t)
	participant := f.createUser(t, models.RoleParticipant)
	svc := NewAnalysisService(f.projectRepo, f.teamRepo, nil)

	project, err := f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID: participant.ID,
		Title:     "Analyzed",
		RepoURL:   "https://github.com/example/analyzed",
	})
	require.NoError(t, err)

	project.Analysis = &models.Analysis{Summary: "cached verdict"}
	require.NoError(t, f.projectRepo.Update(t.Context(), project))

	// Stored analysis is served without an analyzer configured.
	result, err := svc.AnalyzeProject(t.Context(), project.ID, participant.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "cached verdict", result.Summary)

	// An explicit refresh needs the analyzer.
	_, err = svc.AnalyzeProject(t.Context(), project.ID, participant.ID, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestAnalyzeProjectRequiresRepoURL(t *testing.T) {
	f := newFixture(t)
	participant := f.createUser(t, models.RoleParticipant)
	svc := NewAnalysisService(f.projectRepo, f.teamRepo, nil)

	project, err := f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID: participant.ID,
		Title:     "No Repo",
	})
	require.NoError(t, err)

	_, err = svc.AnalyzeProject(t.Context(), project.ID, participant.ID, false)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestAnalyzeProjectAuthorization(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	leader := f.createUser(t, models.RoleParticipant)
	teammate := f.createUser(t, models.RoleParticipant)
	outsider := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)
	svc := NewAnalysisService(f.projectRepo, f.teamRepo, nil)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    leader.ID,
		Name:        "analysts",
	})
	require.NoError(t, err)
	_, err = f.teams.JoinTeam(t.Context(), teammate.ID, team.JoinCode)
	require.NoError(t, err)

	project, err := f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID:   leader.ID,
		Title:       "Team Project",
		RepoURL:     "https://github.com/example/team",
		HackathonID: &hackathon.ID,
		TeamID:      &team.ID,
	})
	require.NoError(t, err)
	project.Analysis = &models.Analysis{Summary: "shared verdict"}
	require.NoError(t, f.projectRepo.Update(t.Context(), project))

	// Creator and teammates can read; outsiders cannot.
	_, err = svc.AnalyzeProject(t.Context(), project.ID, teammate.ID, false)
	require.NoError(t, err)

	_, err = svc.AnalyzeProject(t.Context(), project.ID, outsider.ID, false)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}
