package server

import (
	"io"

	"github.com/romeirofernandes/vhack-sub000/internal/imaging"
	"github.com/romeirofernandes/vhack-sub000/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadImage accepts a multipart image upload and stores normalized
// JPEG and WebP masters under a content hash.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	stored, err := s.imagingService.Upload(imaging.UploadInput{
		UserID:      currentUserID(c),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(stored)
}

// ServeImage serves a stored image variant from disk.
func (s *Server) ServeImage(c *fiber.Ctx) error {
	hash := c.Params("hash")
	file := c.Params("file")

	path, err := s.imagingService.ResolveForServing(hash, file)
	if err != nil {
		return respondServiceError(c, err)
	}

	// Content-addressed paths never change, cache aggressively.
	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.SendFile(path)
}
