package service

import (
	"context"
	"errors"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/analysis"
	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"
)

// AnalysisService caches AI repository analyses on projects. A stored
// analysis is served until the caller explicitly asks for a refresh.
type AnalysisService struct {
	projectRepo repository.ProjectRepository
	teamRepo    repository.TeamRepository
	analyzer    *analysis.Analyzer
	timeout     time.Duration
	now         func() time.Time
}

// NewAnalysisService returns a new AnalysisService.
func NewAnalysisService(
	projectRepo repository.ProjectRepository,
	teamRepo repository.TeamRepository,
	analyzer *analysis.Analyzer,
) *AnalysisService {
	return &AnalysisService{
		projectRepo: projectRepo,
		teamRepo:    teamRepo,
		analyzer:    analyzer,
		timeout:     60 * time.Second,
		now:         time.Now,
	}
}

// AnalyzeProject returns the project's analysis, generating one on first
// request or when refresh is set. The stored analysis never expires on its
// own.
func (s *AnalysisService) AnalyzeProject(ctx context.Context, projectID, userID uint, refresh bool) (*models.Analysis, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, project, userID); err != nil {
		return nil, err
	}

	if project.Analysis != nil && !refresh {
		return project.Analysis, nil
	}

	if project.RepoURL == "" {
		return nil, models.NewValidationError("Project has no repository URL")
	}
	if s.analyzer == nil {
		return nil, models.NewConflictError("Repository analysis is not configured")
	}

	analysisCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.analyzer.Analyze(analysisCtx, project.RepoURL)
	if err != nil {
		if errors.Is(err, analysis.ErrBreakerOpen) {
			return nil, models.NewConflictError("Analysis is temporarily unavailable, try again later")
		}
		return nil, models.NewInternalError(err)
	}

	analyzedAt := s.now()
	project.Analysis = result
	project.AnalyzedAt = &analyzedAt
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return result, nil
}

// authorize limits analysis to the creator and teammates.
func (s *AnalysisService) authorize(ctx context.Context, project *models.Project, userID uint) error {
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
