package server

import (
	"context"
	"log"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile returns the authenticated user's profile.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

type updateProfileRequest struct {
	Bio       *string             `json:"bio"`
	Location  *string             `json:"location"`
	AvatarURL *string             `json:"avatar_url"`
	Skills    []string            `json:"skills"`
	Education []models.Education  `json:"education"`
	Social    *models.SocialLinks `json:"social"`
}

// UpdateMyProfile applies a partial profile update.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    userID,
		Bio:       req.Bio,
		Location:  req.Location,
		AvatarURL: req.AvatarURL,
		Skills:    req.Skills,
		Education: req.Education,
		Social:    req.Social,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.checkAchievements(c.UserContext(), userID)
	return c.JSON(user)
}

type selectRoleRequest struct {
	Role string `json:"role"`
}

// SelectRole sets the user's role. One-shot: a chosen role cannot change.
func (s *Server) SelectRole(c *fiber.Ctx) error {
	var req selectRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.SelectRole(c.UserContext(), currentUserID(c), req.Role)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetDashboard returns the role-specific dashboard payload.
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	dash, err := s.userService.GetDashboard(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(dash)
}

// GetAllUsers returns a page of users.
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	page := parsePagination(c)
	users, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"users":  users,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetUserProfile returns another user's public profile.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetMyAchievements re-evaluates and returns achievement progress.
func (s *Server) GetMyAchievements(c *fiber.Ctx) error {
	userID := currentUserID(c)
	s.checkAchievements(c.UserContext(), userID)

	statuses, err := s.achievementService.ListForUser(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"achievements": statuses})
}

// checkAchievements runs the unlock sweep best-effort; failures only log.
func (s *Server) checkAchievements(ctx context.Context, userID uint) {
	if s.achievementService == nil {
		return
	}
	if _, err := s.achievementService.CheckAndUnlock(ctx, userID); err != nil {
		log.Printf("achievement check failed for user %d: %v", userID, err)
	}
}
