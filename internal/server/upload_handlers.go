package server

import (
	"doneby/internal/models"

	"github.com/gofiber/fiber/v2"
)

// PresignUpload handles POST /api/uploads/presign.
// Issues a time-limited PUT URL plus the storage key the client reports back
// once its result photo is uploaded. The server never proxies image bytes.
func (s *Server) PresignUpload(c *fiber.Ctx) error {
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Filename == "" || req.ContentType == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Filename and content type are required"))
	}

	ticket, err := s.storage.PresignUpload(req.Filename, req.ContentType)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	return c.JSON(ticket)
}
