package service

import (
	"testing"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfilePartial(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, models.RoleParticipant)

	bio := "builds things"
	updated, err := f.users.UpdateProfile(t.Context(), UpdateProfileInput{
		UserID: user.ID,
		Bio:    &bio,
		Skills: []string{"go", "sql"},
	})
	require.NoError(t, err)
	assert.Equal(t, "builds things", updated.Profile.Bio)
	assert.Equal(t, []string{"go", "sql"}, updated.Profile.Skills)

	// Nil fields leave existing values untouched.
	location := "Mumbai"
	updated, err = f.users.UpdateProfile(t.Context(), UpdateProfileInput{
		UserID:   user.ID,
		Location: &location,
	})
	require.NoError(t, err)
	assert.Equal(t, "builds things", updated.Profile.Bio)
	assert.Equal(t, "Mumbai", updated.Profile.Location)
}

func TestSelectRoleIsImmutable(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "")

	_, err := f.users.SelectRole(t.Context(), user.ID, "wizard")
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	updated, err := f.users.SelectRole(t.Context(), user.ID, models.RoleJudge)
	require.NoError(t, err)
	assert.Equal(t, models.RoleJudge, updated.Role)

	_, err = f.users.SelectRole(t.Context(), user.ID, models.RoleParticipant)
	require.Error(t, err)
	appErr, ok = err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestGetDashboardByRole(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	judge := f.createUser(t, models.RoleJudge)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	_, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    participant.ID,
		Name:        "dash",
	})
	require.NoError(t, err)
	_, err = f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID: participant.ID,
		Title:     "Side Project",
	})
	require.NoError(t, err)
	_, err = f.hacks.InviteJudge(t.Context(), hackathon.ID, organizer.ID, judge.ID)
	// Published hackathons cannot invite; use a fresh draft for the judge queue.
	require.Error(t, err)
	draft, err := f.hacks.CreateHackathon(t.Context(), validCreateInput(organizer.ID, f.clockTime))
	require.NoError(t, err)
	_, err = f.hacks.InviteJudge(t.Context(), draft.ID, organizer.ID, judge.ID)
	require.NoError(t, err)

	dash, err := f.users.GetDashboard(t.Context(), participant.ID)
	require.NoError(t, err)
	assert.Len(t, dash.Teams, 1)
	assert.Len(t, dash.Projects, 1)
	assert.Empty(t, dash.Organized)
	assert.Equal(t, 1.0, dash.Stats.ProjectsCreated)
	assert.Equal(t, 1.0, dash.Stats.HackathonsJoined)
	assert.Equal(t, 1.0, dash.Stats.TeamsLed)

	dash, err = f.users.GetDashboard(t.Context(), organizer.ID)
	require.NoError(t, err)
	assert.Len(t, dash.Organized, 2)
	assert.Equal(t, 2.0, dash.Stats.HackathonsOrganized)

	dash, err = f.users.GetDashboard(t.Context(), judge.ID)
	require.NoError(t, err)
	assert.Len(t, dash.JudgeQueue, 1)
}
