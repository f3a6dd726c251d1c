// Package service contains the application's business logic, sitting between
// the HTTP handlers and the repositories.
package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"doneby/internal/gateway"
	"doneby/internal/models"
	"doneby/internal/repository"
)

// CatalogService maintains the video catalog: one row per distinct YouTube
// video, created on demand when an entry targets it and garbage-collected
// when the last entry leaves.
type CatalogService struct {
	videoRepo repository.VideoRepository
	metadata  gateway.MetadataLookup
}

// NewCatalogService returns a catalog service. metadata may be nil, in which
// case videos are created without channel enrichment.
func NewCatalogService(videoRepo repository.VideoRepository, metadata gateway.MetadataLookup) *CatalogService {
	return &CatalogService{videoRepo: videoRepo, metadata: metadata}
}

const youtubeIDLen = 11

// ExtractVideoID pulls the 11-character video ID out of a watch URL. Both the
// long form (youtube.com/watch?v=ID) and the short form (youtu.be/ID) are
// accepted; anything else yields "".
func ExtractVideoID(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}

	var id string
	host := strings.TrimPrefix(parsed.Host, "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		id = parsed.Query().Get("v")
	case "youtu.be":
		id = strings.Trim(parsed.Path, "/")
	default:
		return ""
	}

	if len(id) != youtubeIDLen || !isYoutubeIDCharset(id) {
		return ""
	}
	return id
}

func isYoutubeIDCharset(id string) bool {
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// FindOrCreateByVideo resolves a raw watch URL to the catalog row for its
// video, creating the row on first sight. Metadata enrichment is advisory: a
// failed lookup is logged and the bare row is returned.
func (s *CatalogService) FindOrCreateByVideo(ctx context.Context, rawURL string) (*models.Video, error) {
	youtubeID := ExtractVideoID(rawURL)
	if youtubeID == "" {
		return nil, models.NewValidationError("Not a recognizable YouTube watch URL")
	}

	existing, err := s.videoRepo.GetByYoutubeID(ctx, youtubeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.URL != rawURL {
			existing.URL = rawURL
			s.enrich(ctx, existing)
			if err := s.videoRepo.Update(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	video := &models.Video{YoutubeID: youtubeID, URL: rawURL}
	s.enrich(ctx, video)

	if err := s.videoRepo.Create(ctx, video); err != nil {
		// A concurrent creation for the same video can win the race; the
		// unique index surfaces that as a validation error, so re-read.
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "VALIDATION_ERROR" {
			if winner, getErr := s.videoRepo.GetByYoutubeID(ctx, youtubeID); getErr == nil && winner != nil {
				return winner, nil
			}
		}
		return nil, err
	}
	return video, nil
}

func (s *CatalogService) enrich(ctx context.Context, video *models.Video) {
	if s.metadata == nil {
		return
	}
	md, err := s.metadata.Fetch(ctx, video.URL)
	if err != nil {
		slog.WarnContext(ctx, "video metadata lookup failed",
			slog.String("youtube_id", video.YoutubeID),
			slog.String("error", err.Error()))
		return
	}
	video.Title = md.Title
	video.ChannelName = md.ChannelName
	video.ChannelID = md.ChannelID
	video.ChannelThumbnail = md.ChannelThumbnail
}

// DeleteIfOrphaned removes the video when no entry references it. Cleanup is
// best-effort: failures are logged, never surfaced, because the caller's own
// mutation already committed.
func (s *CatalogService) DeleteIfOrphaned(ctx context.Context, videoID uint) {
	if videoID == 0 {
		return
	}
	deleted, err := s.videoRepo.DeleteIfOrphaned(ctx, videoID)
	if err != nil {
		slog.ErrorContext(ctx, "orphan video cleanup failed",
			slog.Uint64("video_id", uint64(videoID)),
			slog.String("error", err.Error()))
		return
	}
	if deleted {
		slog.InfoContext(ctx, "orphan video deleted", slog.Uint64("video_id", uint64(videoID)))
	}
}

// GetVideo returns one catalog row with computed engagement counts.
func (s *CatalogService) GetVideo(ctx context.Context, videoID uint) (*models.Video, error) {
	return s.videoRepo.GetByID(ctx, videoID)
}

// PopularChannels ranks channels by how many entries their videos attracted.
func (s *CatalogService) PopularChannels(ctx context.Context, limit int) ([]models.ChannelRanking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.videoRepo.PopularChannels(ctx, limit)
}

// ByActionCount lists videos ordered by how many entries target them.
func (s *CatalogService) ByActionCount(ctx context.Context, limit, offset int) ([]*models.Video, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.videoRepo.ByEntryCount(ctx, limit, offset)
}
