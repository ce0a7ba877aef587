package service

import (
	"strings"
	"testing"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateJoinCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.Contains(t, joinCodeAlphabet, string(c))
		}
		// Ambiguous characters are never emitted.
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		seen[code] = true
	}
	// 100 draws from a 32^6 space should not all collide.
	assert.Greater(t, len(seen), 90)
}

func TestCreateTeamAssignsLeaderAndCode(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    participant.ID,
		Name:        "builders",
	})
	require.NoError(t, err)

	assert.Equal(t, participant.ID, team.LeaderID)
	assert.Len(t, team.JoinCode, 6)
	assert.Equal(t, strings.ToUpper(team.JoinCode), team.JoinCode)
	require.Len(t, team.Members, 1)
	assert.Equal(t, models.TeamRoleLeader, team.Members[0].Role)
}

func TestCreateTeamRejectsSecondTeam(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	participant := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	_, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    participant.ID,
		Name:        "first",
	})
	require.NoError(t, err)

	_, err = f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    participant.ID,
		Name:        "second",
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestJoinTeamByCode(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	leader := f.createUser(t, models.RoleParticipant)
	joiner := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    leader.ID,
		Name:        "joinable",
	})
	require.NoError(t, err)

	joined, err := f.teams.JoinTeam(t.Context(), joiner.ID, team.JoinCode)
	require.NoError(t, err)
	assert.Len(t, joined.Members, 2)
	assert.True(t, joined.HasMember(joiner.ID))
}

func TestJoinTeamRejectsWhenFull(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	leader := f.createUser(t, models.RoleParticipant)
	second := f.createUser(t, models.RoleParticipant)
	third := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID) // MaxTeamSize: 2

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    leader.ID,
		Name:        "tight",
	})
	require.NoError(t, err)

	_, err = f.teams.JoinTeam(t.Context(), second.ID, team.JoinCode)
	require.NoError(t, err)

	_, err = f.teams.JoinTeam(t.Context(), third.ID, team.JoinCode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")
}

func TestJoinTeamUnknownCode(t *testing.T) {
	f := newFixture(t)

	joiner := f.createUser(t, models.RoleParticipant)
	_, err := f.teams.JoinTeam(t.Context(), joiner.ID, "ZZZZZZ")
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestJoinTeamOutsideRegistrationWindow(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	leader := f.createUser(t, models.RoleParticipant)
	late := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    leader.ID,
		Name:        "early-birds",
	})
	require.NoError(t, err)

	f.advance(48 * time.Hour) // past RegistrationEnd

	_, err = f.teams.JoinTeam(t.Context(), late.ID, team.JoinCode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Registration window")
}

func TestLeaveTeamLeaderBlocked(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	leader := f.createUser(t, models.RoleParticipant)
	member := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    leader.ID,
		Name:        "sticky",
	})
	require.NoError(t, err)
	_, err = f.teams.JoinTeam(t.Context(), member.ID, team.JoinCode)
	require.NoError(t, err)

	err = f.teams.LeaveTeam(t.Context(), team.ID, leader.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Leaders cannot leave")

	require.NoError(t, f.teams.LeaveTeam(t.Context(), team.ID, member.ID))

	fresh, err := f.teams.GetTeam(t.Context(), team.ID)
	require.NoError(t, err)
	assert.Len(t, fresh.Members, 1)
}

func TestRemoveMemberLeaderOnly(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	leader := f.createUser(t, models.RoleParticipant)
	member := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    leader.ID,
		Name:        "kickable",
	})
	require.NoError(t, err)
	_, err = f.teams.JoinTeam(t.Context(), member.ID, team.JoinCode)
	require.NoError(t, err)

	// A plain member cannot kick.
	err = f.teams.RemoveMember(t.Context(), team.ID, member.ID, leader.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", appErr.Code)

	// The leader cannot kick themselves.
	err = f.teams.RemoveMember(t.Context(), team.ID, leader.ID, leader.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot remove themselves")

	require.NoError(t, f.teams.RemoveMember(t.Context(), team.ID, leader.ID, member.ID))

	fresh, err := f.teams.GetTeam(t.Context(), team.ID)
	require.NoError(t, err)
	assert.Len(t, fresh.Members, 1)
}

func TestDeleteTeamLeaderOnly(t *testing.T) {
	f := newFixture(t)
	organizer := f.createUser(t, models.RoleOrganizer)
	leader := f.createUser(t, models.RoleParticipant)
	member := f.createUser(t, models.RoleParticipant)
	hackathon := f.createPublishedHackathon(t, organizer.ID)

	team, err := f.teams.CreateTeam(t.Context(), CreateTeamInput{
		HackathonID: hackathon.ID,
		LeaderID:    leader.ID,
		Name:        "doomed",
	})
	require.NoError(t, err)
	_, err = f.teams.JoinTeam(t.Context(), member.ID, team.JoinCode)
	require.NoError(t, err)

	err = f.teams.DeleteTeam(t.Context(), team.ID, member.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", appErr.Code)

	require.NoError(t, f.teams.DeleteTeam(t.Context(), team.ID, leader.ID))
}
