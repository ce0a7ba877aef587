package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayStatus(t *testing.T) {
	start := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		status string
		now    time.Time
		want   string
	}{
		{"published before start", HackathonStatusPublished, start.Add(-time.Hour), HackathonStatusUpcoming},
		{"published at start", HackathonStatusPublished, start, HackathonStatusOngoing},
		{"published mid event", HackathonStatusPublished, start.Add(24 * time.Hour), HackathonStatusOngoing},
		{"published after end", HackathonStatusPublished, end.Add(time.Hour), HackathonStatusCompleted},
		{"upcoming recomputes too", HackathonStatusUpcoming, end.Add(time.Hour), HackathonStatusCompleted},
		{"draft untouched by clock", HackathonStatusDraft, end.Add(time.Hour), HackathonStatusDraft},
		{"pending untouched by clock", HackathonStatusPending, end.Add(time.Hour), HackathonStatusPending},
		{"rejected untouched by clock", HackathonStatusRejected, end.Add(time.Hour), HackathonStatusRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &Hackathon{Status: tc.status, HackathonStart: start, HackathonEnd: end}
			assert.Equal(t, tc.want, h.DisplayStatus(tc.now))
		})
	}
}

func TestResultsVisible(t *testing.T) {
	resultsDate := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)
	h := &Hackathon{ResultsDate: resultsDate}

	assert.False(t, h.ResultsVisible(resultsDate.Add(-time.Hour)))
	assert.True(t, h.ResultsVisible(resultsDate.Add(time.Hour)))

	// Early publish overrides the date.
	h.ResultsPublished = true
	assert.True(t, h.ResultsVisible(resultsDate.Add(-time.Hour)))
}

func TestAcceptedJudgeIDs(t *testing.T) {
	h := &Hackathon{Invites: []JudgeInvite{
		{JudgeID: 1, Status: InviteStatusAccepted},
		{JudgeID: 2, Status: InviteStatusPending},
		{JudgeID: 3, Status: InviteStatusDeclined},
		{JudgeID: 4, Status: InviteStatusAccepted},
	}}
	assert.Equal(t, []uint{1, 4}, h.AcceptedJudgeIDs())

	assert.Empty(t, (&Hackathon{}).AcceptedJudgeIDs())
}
