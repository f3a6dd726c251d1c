package server

import (
	"time"

	"doneby/internal/models"
	"doneby/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateEntry handles POST /api/entries.
// Declares a new action plan against the video at the given URL; the catalog
// row is found or created as a side effect.
func (s *Server) CreateEntry(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		VideoURL string     `json:"video_url"`
		Content  string     `json:"content"`
		Deadline *time.Time `json:"deadline,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	entry, err := s.entryService.Create(c.Context(), service.CreateEntryInput{
		UserID:   userID,
		VideoURL: req.VideoURL,
		Content:  req.Content,
		Deadline: req.Deadline,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// GetEntries handles GET /api/entries (most recent first).
func (s *Server) GetEntries(c *fiber.Ctx) error {
	currentUserID, _ := s.optionalUserID(c)
	p := parsePagination(c, 20)

	entries, err := s.entryService.Feed(c.Context(), p.Limit, p.Offset, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(entries)
}

// GetAchievedEntries handles GET /api/entries/achieved (most recently achieved first).
func (s *Server) GetAchievedEntries(c *fiber.Ctx) error {
	currentUserID, _ := s.optionalUserID(c)
	p := parsePagination(c, 20)

	entries, err := s.entryService.AchievedFeed(c.Context(), p.Limit, p.Offset, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(entries)
}

// GetEntry handles GET /api/entries/:id
func (s *Server) GetEntry(c *fiber.Ctx) error {
	entryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	currentUserID, _ := s.optionalUserID(c)

	entry, err := s.entryService.GetEntry(c.Context(), entryID, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(entry)
}

// GetMyPendingEntry handles GET /api/entries/me/pending
func (s *Server) GetMyPendingEntry(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	entry, err := s.entryService.PendingEntry(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if entry == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Pending entry", userID))
	}

	return c.JSON(entry)
}

// AchieveEntry handles POST /api/entries/:id/achieve.
// Without a reflection in the body this toggles the achieved flag (marking an
// achieved entry pending again clears its reflection and result photo). With
// a reflection it marks a pending entry achieved and records reflection plus
// optional result photo in one step.
func (s *Server) AchieveEntry(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	entryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reflection     string `json:"reflection"`
		ResultImageKey string `json:"result_image_key"`
	}
	// Body is optional for a plain toggle
	_ = c.BodyParser(&req)

	var entry *models.Entry
	if req.Reflection != "" {
		entry, err = s.entryService.AchieveWithReflection(c.Context(), service.AchieveInput{
			EntryID:    entryID,
			UserID:     userID,
			Reflection: req.Reflection,
			ImageKey:   req.ResultImageKey,
		})
	} else {
		entry, err = s.entryService.ToggleAchieve(c.Context(), entryID, userID)
	}
	if err != nil {
		return respondServiceError(c, err)
	}

	if entry.Achieved() {
		s.engagementService.NotifyAchievement(c.Context(), entry)
	}

	return c.JSON(entry)
}

// UpdateReflection handles PUT /api/entries/:id/reflection.
// Only valid on achieved entries.
func (s *Server) UpdateReflection(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	entryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reflection     string  `json:"reflection"`
		ResultImageKey *string `json:"result_image_key,omitempty"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	entry, err := s.entryService.UpdateReflection(c.Context(), service.UpdateReflectionInput{
		EntryID:    entryID,
		UserID:     userID,
		Reflection: req.Reflection,
		ImageKey:   req.ResultImageKey,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(entry)
}

// UpdateEntry handles PUT /api/entries/:id.
// Pending entries only: edit content or deadline, or retarget the plan to a
// different video (the old video is garbage-collected if orphaned).
func (s *Server) UpdateEntry(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	entryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		VideoURL     *string    `json:"video_url,omitempty"`
		Content      *string    `json:"content,omitempty"`
		Deadline     *time.Time `json:"deadline,omitempty"`
		ThumbnailKey *string    `json:"thumbnail_key,omitempty"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	entry, err := s.entryService.RetargetAndUpdate(c.Context(), service.RetargetInput{
		EntryID:      entryID,
		UserID:       userID,
		VideoURL:     req.VideoURL,
		Content:      req.Content,
		Deadline:     req.Deadline,
		ThumbnailKey: req.ThumbnailKey,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(entry)
}

// DeleteEntry handles DELETE /api/entries/:id
func (s *Server) DeleteEntry(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	entryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.entryService.Destroy(c.Context(), entryID, userID); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleEntryLike handles POST /api/entries/:id/like.
// Toggles the like: if already liked, it unlikes; if not liked, it likes.
func (s *Server) ToggleEntryLike(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	entryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.engagementService.ToggleLike(c.Context(), userID, entryID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}
