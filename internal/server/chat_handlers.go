package server

import (
	"strconv"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/service"

	"github.com/gofiber/fiber/v2"
)

type sendMessageRequest struct {
	Body string `json:"body"`
}

// SendChatMessage posts a message to the hackathon room over REST.
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.chatService.SendMessage(c.UserContext(), service.SendMessageInput{
		HackathonID: id,
		SenderID:    currentUserID(c),
		Body:        req.Body,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetChatHistory returns recent room messages, newest first. Pass before_id
// to page backwards through history.
func (s *Server) GetChatHistory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	beforeID, _ := strconv.ParseUint(c.Query("before_id", "0"), 10, 32)

	messages, err := s.chatService.History(c.UserContext(), id, currentUserID(c), limit, uint(beforeID))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}
