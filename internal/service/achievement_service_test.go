package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAchievementFixture(t *testing.T) (*fixture, *AchievementService, repository.AchievementRepository) {
	t.Helper()
	f := newFixture(t)
	repo := repository.NewAchievementRepository(f.db)
	svc := NewAchievementService(repo, f.users, nil)
	return f, svc, repo
}

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "achievements.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEvaluateRuleBoolean(t *testing.T) {
	rule := models.AchievementRule{
		Kind:   models.RuleKindBoolean,
		Field:  models.StatProfileCompleted,
		Equals: true,
	}

	unlocked, progress, target := EvaluateRule(rule, models.UserStats{ProfileCompleted: true})
	assert.True(t, unlocked)
	assert.Equal(t, 1.0, progress)
	assert.Equal(t, 1.0, target)

	unlocked, progress, _ = EvaluateRule(rule, models.UserStats{})
	assert.False(t, unlocked)
	assert.Equal(t, 0.0, progress)
}

func TestEvaluateRuleThresholdClampsProgress(t *testing.T) {
	rule := models.AchievementRule{
		Kind:  models.RuleKindThreshold,
		Field: models.StatProjectsSubmitted,
		Min:   5,
	}

	unlocked, progress, target := EvaluateRule(rule, models.UserStats{ProjectsSubmitted: 3})
	assert.False(t, unlocked)
	assert.Equal(t, 3.0, progress)
	assert.Equal(t, 5.0, target)

	// Progress never reports past the target.
	unlocked, progress, _ = EvaluateRule(rule, models.UserStats{ProjectsSubmitted: 12})
	assert.True(t, unlocked)
	assert.Equal(t, 5.0, progress)
}

func TestEvaluateRuleUnknownKind(t *testing.T) {
	unlocked, progress, target := EvaluateRule(models.AchievementRule{Kind: "streak"}, models.UserStats{})
	assert.False(t, unlocked)
	assert.Equal(t, 0.0, progress)
	assert.Equal(t, 0.0, target)
}

func TestLoadCatalogSyncsEntries(t *testing.T) {
	_, svc, repo := newAchievementFixture(t)
	path := writeCatalog(t, `
achievements:
  - code: first_project
    title: First Project
    rule:
      kind: threshold
      field: projectsCreated
      min: 1
  - code: profile_complete
    title: All Set
    rule:
      kind: boolean
      field: profileCompleted
      equals: true
`)

	require.NoError(t, svc.LoadCatalog(t.Context(), path))

	catalog, err := repo.ListCatalog(t.Context())
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, "first_project", catalog[0].Code)

	// Reloading is idempotent and picks up edits.
	path = writeCatalog(t, `
achievements:
  - code: first_project
    title: Shipped Something
    rule:
      kind: threshold
      field: projectsCreated
      min: 1
`)
	require.NoError(t, svc.LoadCatalog(t.Context(), path))
	entry, err := repo.GetByCode(t.Context(), "first_project")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Shipped Something", entry.Title)
}

func TestLoadCatalogRejectsBadEntries(t *testing.T) {
	_, svc, _ := newAchievementFixture(t)

	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"duplicate code",
			`
achievements:
  - code: twin
    title: A
    rule: {kind: threshold, field: projectsCreated, min: 1}
  - code: twin
    title: B
    rule: {kind: threshold, field: projectsCreated, min: 2}
`,
			"duplicate code",
		},
		{
			"missing code",
			`
achievements:
  - title: Nameless
    rule: {kind: threshold, field: projectsCreated, min: 1}
`,
			"without code",
		},
		{
			"unknown stat field",
			`
achievements:
  - code: bad_field
    title: Bad
    rule: {kind: threshold, field: karmaPoints, min: 1}
`,
			"unknown numeric stat field",
		},
		{
			"unknown rule kind",
			`
achievements:
  - code: bad_kind
    title: Bad
    rule: {kind: streak, field: projectsCreated, min: 1}
`,
			"unknown rule kind",
		},
		{
			"non-positive threshold",
			`
achievements:
  - code: zero_min
    title: Bad
    rule: {kind: threshold, field: projectsCreated, min: 0}
`,
			"positive min",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.LoadCatalog(t.Context(), writeCatalog(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCheckAndUnlockIsIdempotent(t *testing.T) {
	f, svc, _ := newAchievementFixture(t)
	participant := f.createUser(t, models.RoleParticipant)

	path := writeCatalog(t, `
achievements:
  - code: first_project
    title: First Project
    rule:
      kind: threshold
      field: projectsCreated
      min: 1
`)
	require.NoError(t, svc.LoadCatalog(t.Context(), path))

	// Nothing created yet: no unlocks.
	codes, err := svc.CheckAndUnlock(t.Context(), participant.ID)
	require.NoError(t, err)
	assert.Empty(t, codes)

	_, err = f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID: participant.ID,
		Title:     "Solo Build",
	})
	require.NoError(t, err)

	codes, err = svc.CheckAndUnlock(t.Context(), participant.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_project"}, codes)

	// A second sweep reports nothing new.
	codes, err = svc.CheckAndUnlock(t.Context(), participant.ID)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestListForUserReportsProgress(t *testing.T) {
	f, svc, _ := newAchievementFixture(t)
	participant := f.createUser(t, models.RoleParticipant)

	path := writeCatalog(t, `
achievements:
  - code: serial_builder
    title: Serial Builder
    rule:
      kind: threshold
      field: projectsCreated
      min: 3
`)
	require.NoError(t, svc.LoadCatalog(t.Context(), path))

	for _, title := range []string{"One", "Two"} {
		_, err := f.projects.CreateProject(t.Context(), CreateProjectInput{
			CreatorID: participant.ID,
			Title:     title,
		})
		require.NoError(t, err)
	}

	statuses, err := svc.ListForUser(t.Context(), participant.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Unlocked)
	assert.Equal(t, 2.0, statuses[0].Progress)
	assert.Equal(t, 3.0, statuses[0].Target)

	_, err = f.projects.CreateProject(t.Context(), CreateProjectInput{
		CreatorID: participant.ID,
		Title:     "Three",
	})
	require.NoError(t, err)
	_, err = svc.CheckAndUnlock(t.Context(), participant.ID)
	require.NoError(t, err)

	statuses, err = svc.ListForUser(t.Context(), participant.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Unlocked)
	require.NotNil(t, statuses[0].UnlockedAt)
	assert.Equal(t, 3.0, statuses[0].Progress)
}
