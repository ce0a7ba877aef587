package server

import (
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createHackathonRequest struct {
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	Theme             string                    `json:"theme"`
	BannerURL         string                    `json:"banner_url"`
	RegistrationStart time.Time                 `json:"registration_start"`
	RegistrationEnd   time.Time                 `json:"registration_end"`
	HackathonStart    time.Time                 `json:"hackathon_start"`
	HackathonEnd      time.Time                 `json:"hackathon_end"`
	ResultsDate       time.Time                 `json:"results_date"`
	TeamSettings      models.TeamSettings       `json:"team_settings"`
	FirstPrize        string                    `json:"first_prize"`
	SecondPrize       string                    `json:"second_prize"`
	ThirdPrize        string                    `json:"third_prize"`
	JudgingCriteria   []models.JudgingCriterion `json:"judging_criteria"`
}

// CreateHackathon creates a draft hackathon owned by the caller.
func (s *Server) CreateHackathon(c *fiber.Ctx) error {
	var req createHackathonRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	hackathon, err := s.hackathonService.CreateHackathon(c.UserContext(), service.CreateHackathonInput{
		OrganizerID:       currentUserID(c),
		Title:             req.Title,
		Description:       req.Description,
		Theme:             req.Theme,
		BannerURL:         req.BannerURL,
		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
		HackathonStart:    req.HackathonStart,
		HackathonEnd:      req.HackathonEnd,
		ResultsDate:       req.ResultsDate,
		TeamSettings:      req.TeamSettings,
		FirstPrize:        req.FirstPrize,
		SecondPrize:       req.SecondPrize,
		ThirdPrize:        req.ThirdPrize,
		JudgingCriteria:   req.JudgingCriteria,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(hackathon)
}

type updateHackathonRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Theme       *string `json:"theme"`
	BannerURL   *string `json:"banner_url"`
	FirstPrize  *string `json:"first_prize"`
	SecondPrize *string `json:"second_prize"`
	ThirdPrize  *string `json:"third_prize"`
}

// UpdateHackathon edits a draft or rejected hackathon.
func (s *Server) UpdateHackathon(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateHackathonRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	hackathon, err := s.hackathonService.UpdateHackathon(c.UserContext(), service.UpdateHackathonInput{
		HackathonID: id,
		OrganizerID: currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		Theme:       req.Theme,
		BannerURL:   req.BannerURL,
		FirstPrize:  req.FirstPrize,
		SecondPrize: req.SecondPrize,
		ThirdPrize:  req.ThirdPrize,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hackathon)
}

// GetHackathon returns a single hackathon with its derived status.
func (s *Server) GetHackathon(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	hackathon, err := s.hackathonService.GetHackathon(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hackathon)
}

// ListHackathons returns the public list of published hackathons.
func (s *Server) ListHackathons(c *fiber.Ctx) error {
	page := parsePagination(c)
	hackathons, err := s.hackathonService.ListPublished(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"hackathons": hackathons,
		"limit":      page.Limit,
		"offset":     page.Offset,
	})
}

// GetMyHackathons lists the caller's hackathons, any status.
func (s *Server) GetMyHackathons(c *fiber.Ctx) error {
	hackathons, err := s.hackathonService.ListByOrganizer(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"hackathons": hackathons})
}

// ListPendingHackathons lists hackathons awaiting review.
func (s *Server) ListPendingHackathons(c *fiber.Ctx) error {
	hackathons, err := s.hackathonService.ListPendingApproval(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"hackathons": hackathons})
}

type inviteJudgeRequest struct {
	JudgeID uint `json:"judge_id"`
}

// InviteJudge invites a judge-role user to the hackathon.
func (s *Server) InviteJudge(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req inviteJudgeRequest
	if err := c.BodyParser(&req); err != nil || req.JudgeID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("judge_id is required"))
	}

	invite, err := s.hackathonService.InviteJudge(c.UserContext(), id, currentUserID(c), req.JudgeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invite)
}

type respondInviteRequest struct {
	Accept bool `json:"accept"`
}

// RespondToInvite lets an invited judge accept or decline.
func (s *Server) RespondToInvite(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req respondInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	invite, err := s.hackathonService.RespondToInvite(c.UserContext(), id, currentUserID(c), req.Accept)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(invite)
}

// GetMyInvites lists the caller's judge invites.
func (s *Server) GetMyInvites(c *fiber.Ctx) error {
	invites, err := s.hackRepo.ListInvitesForJudge(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"invites": invites})
}

// ApproveHackathon publishes a pending hackathon.
func (s *Server) ApproveHackathon(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	hackathon, err := s.hackathonService.ApproveHackathon(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hackathon)
}

// RejectHackathon sends a pending hackathon back to its organizer.
func (s *Server) RejectHackathon(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	hackathon, err := s.hackathonService.RejectHackathon(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hackathon)
}

// PublishResults makes the leaderboard publicly visible.
func (s *Server) PublishResults(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	hackathon, err := s.hackathonService.PublishResults(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hackathon)
}

type announcementRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// PostAnnouncement appends an announcement and broadcasts it to the room.
func (s *Server) PostAnnouncement(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req announcementRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	hackathon, err := s.hackathonService.PostAnnouncement(c.UserContext(), id, currentUserID(c), req.Title, req.Message)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(hackathon)
}

// DeleteHackathon removes a hackathon that is not live.
func (s *Server) DeleteHackathon(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.hackathonService.DeleteHackathon(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Hackathon deleted"})
}

// GetResults returns the ranked leaderboard for a completed hackathon.
func (s *Server) GetResults(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	leaderboard, err := s.resultsService.GetLeaderboard(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(leaderboard)
}
