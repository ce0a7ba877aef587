package server

import (
	"strings"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createTeamRequest struct {
	HackathonID uint   `json:"hackathon_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateTeam registers a new team; the caller becomes its leader.
func (s *Server) CreateTeam(c *fiber.Ctx) error {
	var req createTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.HackathonID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("hackathon_id is required"))
	}

	userID := currentUserID(c)
	team, err := s.teamService.CreateTeam(c.UserContext(), service.CreateTeamInput{
		HackathonID: req.HackathonID,
		LeaderID:    userID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.checkAchievements(c.UserContext(), userID)
	return c.Status(fiber.StatusCreated).JSON(team)
}

type joinTeamRequest struct {
	JoinCode string `json:"join_code"`
}

// JoinTeam adds the caller to the team behind the join code.
func (s *Server) JoinTeam(c *fiber.Ctx) error {
	var req joinTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	team, err := s.teamService.JoinTeam(c.UserContext(), userID, strings.ToUpper(strings.TrimSpace(req.JoinCode)))
	if err != nil {
		return respondServiceError(c, err)
	}

	s.checkAchievements(c.UserContext(), userID)
	return c.JSON(team)
}

// LeaveTeam removes the caller from the team. Leaders cannot leave.
func (s *Server) LeaveTeam(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.teamService.LeaveTeam(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left team"})
}

// RemoveTeamMember kicks a member off the team. Leader only.
func (s *Server) RemoveTeamMember(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	memberID, err := parseID(c, "memberId")
	if err != nil {
		return nil
	}
	if err := s.teamService.RemoveMember(c.UserContext(), id, currentUserID(c), memberID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

// GetTeam returns a team with its members.
func (s *Server) GetTeam(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	team, err := s.teamService.GetTeam(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(team)
}

// GetMyTeams lists the caller's teams across hackathons.
func (s *Server) GetMyTeams(c *fiber.Ctx) error {
	teams, err := s.teamService.ListByUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"teams": teams})
}

// ListHackathonTeams lists a hackathon's teams.
func (s *Server) ListHackathonTeams(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	teams, err := s.teamService.ListByHackathon(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"teams": teams})
}

// DeleteTeam disbands a team. Leader only.
func (s *Server) DeleteTeam(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.teamService.DeleteTeam(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Team deleted"})
}
