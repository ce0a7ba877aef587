package service

import (
	"context"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"
)

// ProjectService provides project submission and judging logic.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	teamRepo    repository.TeamRepository
	hackRepo    repository.HackathonRepository
	now         func() time.Time
}

// NewProjectService returns a new ProjectService.
func NewProjectService(
	projectRepo repository.ProjectRepository,
	teamRepo repository.TeamRepository,
	hackRepo repository.HackathonRepository,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		teamRepo:    teamRepo,
		hackRepo:    hackRepo,
		now:         time.Now,
	}
}

// CreateProjectInput is the input for creating a project draft.
type CreateProjectInput struct {
	CreatorID    uint
	Title        string
	Description  string
	RepoURL      string
	DemoURL      string
	VideoURL     string
	Technologies []string
	HackathonID  *uint
	TeamID       *uint
}

// CreateProject creates a draft project. Attaching it to a hackathon
// requires the creator to be on the named team of that hackathon.
func (s *ProjectService) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Project title is required")
	}
	if (in.HackathonID == nil) != (in.TeamID == nil) {
		return nil, models.NewValidationError("Hackathon and team must be set together")
	}

	if in.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, *in.TeamID)
		if err != nil {
			return nil, err
		}
		if team.HackathonID != *in.HackathonID {
			return nil, models.NewValidationError("Team does not belong to this hackathon")
		}
		if !team.HasMember(in.CreatorID) {
			return nil, models.NewForbiddenError("Not a member of this team")
		}
	}

	project := &models.Project{
		Title:        in.Title,
		Description:  in.Description,
		RepoURL:      in.RepoURL,
		DemoURL:      in.DemoURL,
		VideoURL:     in.VideoURL,
		Technologies: in.Technologies,
		HackathonID:  in.HackathonID,
		TeamID:       in.TeamID,
		CreatorID:    in.CreatorID,
		Status:       models.ProjectStatusDraft,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateProjectInput is the input for editing a draft project.
type UpdateProjectInput struct {
	ProjectID    uint
	UserID       uint
	Title        *string
	Description  *string
	RepoURL      *string
	DemoURL      *string
	VideoURL     *string
	Technologies []string
}

// UpdateProject applies a partial edit. Submitted projects are frozen.
func (s *ProjectService) UpdateProject(ctx context.Context, in UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(ctx, project, in.UserID); err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusDraft {
		return nil, models.NewConflictError("Submitted projects cannot be edited")
	}

	if in.Title != nil {
		project.Title = *in.Title
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.RepoURL != nil {
		project.RepoURL = *in.RepoURL
	}
	if in.DemoURL != nil {
		project.DemoURL = *in.DemoURL
	}
	if in.VideoURL != nil {
		project.VideoURL = *in.VideoURL
	}
	if in.Technologies != nil {
		project.Technologies = in.Technologies
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// authorizeEdit allows the creator or any teammate to modify the project.
func (s *ProjectService) authorizeEdit(ctx context.Context, project *models.Project, userID uint) error {
	if project.CreatorID == userID {
		return nil
	}
	if project.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, *project.TeamID)
		if err != nil {
			return err
		}
		if team.HasMember(userID) {
			return nil
		}
	}
	return models.NewForbiddenError("Not your project")
}

// SubmitProject locks the project for judging. The hackathon must still be
// running and the project must carry a repository URL.
func (s *ProjectService) SubmitProject(ctx context.Context, projectID, userID uint) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(ctx, project, userID); err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusDraft {
		return nil, models.NewConflictError("Project already submitted")
	}
	if project.HackathonID == nil {
		return nil, models.NewValidationError("Project is not attached to a hackathon")
	}
	if project.RepoURL == "" {
		return nil, models.NewValidationError("A repository URL is required to submit")
	}

	hackathon, err := s.hackRepo.GetByID(ctx, *project.HackathonID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if hackathon.DisplayStatus(now) != models.HackathonStatusOngoing {
		return nil, models.NewConflictError("Submissions are only accepted while the hackathon is ongoing")
	}

	project.Status = models.ProjectStatusSubmitted
	project.SubmittedAt = &now
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// SubmitScoreInput is one judge's evaluation of a project.
type SubmitScoreInput struct {
	ProjectID uint
	JudgeID   uint
	Breakdown map[string]float64
	Feedback  string
}

// SubmitScore records a judge's score, overwriting any earlier score by the
// same judge. The first score moves the project to judging; once every
// accepted judge has scored, the project becomes judged and its final score
// is fixed as the mean of the judges' totals.
func (s *ProjectService) SubmitScore(ctx context.Context, in SubmitScoreInput) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.HackathonID == nil {
		return nil, models.NewValidationError("Project is not attached to a hackathon")
	}
	if project.Status == models.ProjectStatusDraft {
		return nil, models.NewConflictError("Project has not been submitted")
	}

	hackathon, err := s.hackRepo.GetByIDWithInvites(ctx, *project.HackathonID)
	if err != nil {
		return nil, err
	}

	judgeIDs := hackathon.AcceptedJudgeIDs()
	assigned := false
	for _, id := range judgeIDs {
		if id == in.JudgeID {
			assigned = true
			break
		}
	}
	if !assigned {
		return nil, models.NewForbiddenError("Not an assigned judge for this hackathon")
	}

	total, err := validateBreakdown(in.Breakdown, hackathon.JudgingCriteria)
	if err != nil {
		return nil, err
	}

	score := &models.Score{
		ProjectID: in.ProjectID,
		JudgeID:   in.JudgeID,
		Breakdown: in.Breakdown,
		Total:     total,
		Feedback:  in.Feedback,
	}
	if err := s.projectRepo.UpsertScore(ctx, score); err != nil {
		return nil, err
	}

	return s.reconcileJudging(ctx, in.ProjectID, judgeIDs)
}

// validateBreakdown checks every criterion is scored within bounds and
// returns the summed total.
func validateBreakdown(breakdown map[string]float64, criteria []models.JudgingCriterion) (float64, error) {
	if len(criteria) == 0 {
		return 0, models.NewConflictError("Hackathon has no judging criteria")
	}
	var total float64
	for _, c := range criteria {
		value, ok := breakdown[c.Name]
		if !ok {
			return 0, models.NewValidationError("Missing score for criterion: " + c.Name)
		}
		if value < 0 || value > c.MaxScore {
			return 0, models.NewValidationError("Score out of range for criterion: " + c.Name)
		}
		total += value
	}
	if len(breakdown) != len(criteria) {
		return 0, models.NewValidationError("Unknown criteria in score breakdown")
	}
	return total, nil
}

// reconcileJudging recomputes the project's judging state from its scores.
func (s *ProjectService) reconcileJudging(ctx context.Context, projectID uint, judgeIDs []uint) (*models.Project, error) {
	project, err := s.projectRepo.GetByIDWithScores(ctx, projectID)
	if err != nil {
		return nil, err
	}

	scored := make(map[uint]bool, len(project.Scores))
	for _, sc := range project.Scores {
		scored[sc.JudgeID] = true
	}

	allScored := len(judgeIDs) > 0
	for _, id := range judgeIDs {
		if !scored[id] {
			allScored = false
			break
		}
	}

	if allScored {
		final := models.ComputeFinalScore(project.Scores)
		project.Status = models.ProjectStatusJudged
		project.FinalScore = &final
	} else if len(project.Scores) > 0 {
		project.Status = models.ProjectStatusJudging
		project.FinalScore = nil
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject returns a project with scores and team preloaded.
func (s *ProjectService) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	return s.projectRepo.GetByIDWithScores(ctx, id)
}

// ListByHackathon returns a hackathon's projects.
func (s *ProjectService) ListByHackathon(ctx context.Context, hackathonID uint) ([]models.Project, error) {
	return s.projectRepo.ListByHackathon(ctx, hackathonID)
}

// ListByCreator returns a user's projects.
func (s *ProjectService) ListByCreator(ctx context.Context, creatorID uint) ([]models.Project, error) {
	return s.projectRepo.ListByCreator(ctx, creatorID)
}

// ListJudgingQueue returns the submitted projects a judge still has to score.
func (s *ProjectService) ListJudgingQueue(ctx context.Context, hackathonID, judgeID uint) ([]models.Project, error) {
	hackathon, err := s.hackRepo.GetByIDWithInvites(ctx, hackathonID)
	if err != nil {
		return nil, err
	}

	assigned := false
	for _, id := range hackathon.AcceptedJudgeIDs() {
		if id == judgeID {
			assigned = true
			break
		}
	}
	if !assigned {
		return nil, models.NewForbiddenError("Not an assigned judge for this hackathon")
	}

	projects, err := s.projectRepo.ListSubmittedByHackathon(ctx, hackathonID)
	if err != nil {
		return nil, err
	}

	queue := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		done := false
		for _, sc := range p.Scores {
			if sc.JudgeID == judgeID {
				done = true
				break
			}
		}
		if !done {
			queue = append(queue, p)
		}
	}
	return queue, nil
}

// DeleteProject removes a draft project.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID, userID uint) error {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.authorizeEdit(ctx, project, userID); err != nil {
		return err
	}
	if project.Status != models.ProjectStatusDraft {
		return models.NewConflictError("Submitted projects cannot be deleted")
	}
	return s.projectRepo.Delete(ctx, projectID)
}
