package server

import (
	"doneby/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetVideoSuggestions handles GET /api/videos/:id/suggestions.
// Returns AI-suggested action plans for the video; the first successful
// generation is cached on the catalog row.
func (s *Server) GetVideoSuggestions(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	videoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	plans, err := s.suggestionService.SuggestPlans(c.Context(), videoID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"video_id": videoID,
		"plans":    plans,
	})
}

// ConvertPlanToTitle handles POST /api/suggestions/title.
// Condenses free-form plan text into a short title.
func (s *Server) ConvertPlanToTitle(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		PlanText string `json:"plan_text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	title, err := s.suggestionService.ConvertToTitle(c.Context(), userID, req.PlanText)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"title": title,
	})
}
