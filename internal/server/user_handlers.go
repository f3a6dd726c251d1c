package server

import (
	"doneby/internal/models"
	"doneby/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetUserByID(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Username string `json:"username"`
		Bio      string `json:"bio"`
		Avatar   string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:   userID,
		Username: req.Username,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// GetMyStreak handles GET /api/users/me/streak.
// The streak counts consecutive days ending today or yesterday with at least
// one achievement.
func (s *Server) GetMyStreak(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	streak, err := s.entryService.Streak(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"streak_days": streak,
	})
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUserByID(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// GetUserEntries handles GET /api/users/:id/entries
func (s *Server) GetUserEntries(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	currentUserID, _ := s.optionalUserID(c)
	p := parsePagination(c, 20)

	entries, err := s.entryService.UserEntries(c.Context(), userID, p.Limit, p.Offset, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(entries)
}
