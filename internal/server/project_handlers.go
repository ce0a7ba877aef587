package server

import (
	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createProjectRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	RepoURL      string   `json:"repo_url"`
	DemoURL      string   `json:"demo_url"`
	VideoURL     string   `json:"video_url"`
	Technologies []string `json:"technologies"`
	HackathonID  *uint    `json:"hackathon_id"`
	TeamID       *uint    `json:"team_id"`
}

// CreateProject creates a draft project, optionally attached to a hackathon.
func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	project, err := s.projectService.CreateProject(c.UserContext(), service.CreateProjectInput{
		CreatorID:    userID,
		Title:        req.Title,
		Description:  req.Description,
		RepoURL:      req.RepoURL,
		DemoURL:      req.DemoURL,
		VideoURL:     req.VideoURL,
		Technologies: req.Technologies,
		HackathonID:  req.HackathonID,
		TeamID:       req.TeamID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.checkAchievements(c.UserContext(), userID)
	return c.Status(fiber.StatusCreated).JSON(project)
}

type updateProjectRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	RepoURL      *string  `json:"repo_url"`
	DemoURL      *string  `json:"demo_url"`
	VideoURL     *string  `json:"video_url"`
	Technologies []string `json:"technologies"`
}

// UpdateProject applies a partial edit to a draft project.
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	project, err := s.projectService.UpdateProject(c.UserContext(), service.UpdateProjectInput{
		ProjectID:    id,
		UserID:       currentUserID(c),
		Title:        req.Title,
		Description:  req.Description,
		RepoURL:      req.RepoURL,
		DemoURL:      req.DemoURL,
		VideoURL:     req.VideoURL,
		Technologies: req.Technologies,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(project)
}

// GetProject returns a single project.
func (s *Server) GetProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	project, err := s.projectService.GetProject(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(project)
}

// GetMyProjects lists projects created by the caller.
func (s *Server) GetMyProjects(c *fiber.Ctx) error {
	projects, err := s.projectService.ListByCreator(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// ListHackathonProjects lists a hackathon's projects.
func (s *Server) ListHackathonProjects(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	projects, err := s.projectService.ListByHackathon(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// SubmitProject freezes a draft for judging.
func (s *Server) SubmitProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := currentUserID(c)
	project, err := s.projectService.SubmitProject(c.UserContext(), id, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.checkAchievements(c.UserContext(), userID)
	return c.JSON(project)
}

type submitScoreRequest struct {
	Breakdown map[string]float64 `json:"breakdown"`
	Feedback  string             `json:"feedback"`
}

// SubmitScore records the judge's per-criterion scores for a project.
func (s *Server) SubmitScore(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req submitScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	project, err := s.projectService.SubmitScore(c.UserContext(), service.SubmitScoreInput{
		ProjectID: id,
		JudgeID:   currentUserID(c),
		Breakdown: req.Breakdown,
		Feedback:  req.Feedback,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(project)
}

// GetJudgingQueue lists submissions the calling judge has not scored yet.
func (s *Server) GetJudgingQueue(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	projects, err := s.projectService.ListJudgingQueue(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// DeleteProject removes a draft project.
func (s *Server) DeleteProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.projectService.DeleteProject(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Project deleted"})
}

// AnalyzeProject runs (or returns the cached) AI repository analysis.
func (s *Server) AnalyzeProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	refresh := c.QueryBool("refresh", false)

	result, err := s.analysisService.AnalyzeProject(c.UserContext(), id, currentUserID(c), refresh)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
