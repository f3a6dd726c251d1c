package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"doneby/internal/featureflags"
	"doneby/internal/gateway"
	"doneby/internal/models"
	"doneby/internal/repository"
)

// SuggestionService serves AI plan suggestions for catalog videos. The first
// successful response is cached on the video row and reused forever; the
// model's nondeterminism makes re-asking pointless.
type SuggestionService struct {
	videoRepo repository.VideoRepository
	client    gateway.SuggestionClient
	flags     *featureflags.Manager
}

// NewSuggestionService returns a suggestion service. flags may be nil, which
// leaves the surface enabled.
func NewSuggestionService(
	videoRepo repository.VideoRepository,
	client gateway.SuggestionClient,
	flags *featureflags.Manager,
) *SuggestionService {
	return &SuggestionService{videoRepo: videoRepo, client: client, flags: flags}
}

func (s *SuggestionService) enabled(userID uint) bool {
	if s.flags == nil {
		return true
	}
	return s.flags.Enabled(featureflags.FlagAISuggestions, userID)
}

// SuggestPlans returns plan suggestions for the video, from the row cache when
// a previous call already paid for them. Unlike metadata enrichment the LLM
// call is the point of the request, so its failure surfaces to the caller.
func (s *SuggestionService) SuggestPlans(ctx context.Context, videoID uint, userID uint) ([]string, error) {
	if !s.enabled(userID) {
		return nil, models.NewValidationError("Suggestions are not available right now")
	}

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video.SuggestedPlans != nil && *video.SuggestedPlans != "" {
		var cached []string
		if err := json.Unmarshal([]byte(*video.SuggestedPlans), &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
		// Corrupt cache payload: fall through and regenerate.
		slog.WarnContext(ctx, "discarding unparsable suggestion cache",
			slog.Uint64("video_id", uint64(videoID)))
	}

	title := video.Title
	if strings.TrimSpace(title) == "" {
		title = video.URL
	}

	plans, err := s.client.SuggestPlans(ctx, title)
	if err != nil {
		return nil, models.NewExternalError("suggestions", err)
	}

	payload, err := json.Marshal(plans)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.videoRepo.UpdateSuggestedPlans(ctx, videoID, string(payload)); err != nil {
		// The caller still gets the plans; only the cache write failed.
		slog.WarnContext(ctx, "suggestion cache write failed",
			slog.Uint64("video_id", uint64(videoID)),
			slog.String("error", err.Error()))
	}
	return plans, nil
}

// ConvertToTitle condenses free-form plan text into a short title.
func (s *SuggestionService) ConvertToTitle(ctx context.Context, userID uint, planText string) (string, error) {
	if !s.enabled(userID) {
		return "", models.NewValidationError("Suggestions are not available right now")
	}
	planText = strings.TrimSpace(planText)
	if planText == "" {
		return "", models.NewValidationError("Plan text is required")
	}

	title, err := s.client.ConvertToTitle(ctx, planText)
	if err != nil {
		return "", models.NewExternalError("suggestions", err)
	}
	return title, nil
}
