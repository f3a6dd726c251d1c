package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetVideo handles GET /api/videos/:id
func (s *Server) GetVideo(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	video, err := s.catalogService.GetVideo(c.Context(), videoID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(video)
}

// GetVideoEntries handles GET /api/videos/:id/entries
func (s *Server) GetVideoEntries(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	currentUserID, _ := s.optionalUserID(c)
	p := parsePagination(c, 20)

	entries, err := s.entryService.VideoEntries(c.Context(), videoID, p.Limit, p.Offset, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(entries)
}

// ToggleVideoCheer handles POST /api/videos/:id/cheer.
// Toggles the cheer: if already cheered, it removes it; if not, it cheers.
func (s *Server) ToggleVideoCheer(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	videoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.engagementService.ToggleCheer(c.Context(), userID, videoID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}

// GetChannelRankings handles GET /api/videos/rankings/channels.
// Channels are ranked by how many action plans their videos attracted.
func (s *Server) GetChannelRankings(c *fiber.Ctx) error {
	p := parsePagination(c, 10)

	rankings, err := s.catalogService.PopularChannels(c.Context(), p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(rankings)
}

// GetVideoRankings handles GET /api/videos/rankings/videos.
// Videos are ranked by entry count.
func (s *Server) GetVideoRankings(c *fiber.Ctx) error {
	p := parsePagination(c, 10)

	videos, err := s.catalogService.ByActionCount(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(videos)
}
