package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"doneby/internal/models"
	"doneby/internal/notifications"
	"doneby/internal/repository"
)

func jsonMarshalEvent(ev notifications.Event) (string, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	return string(b), err
}

// EngagementService toggles likes and cheers and emits an event when a new
// mark lands. Event publication is best-effort; the toggle result stands even
// when Redis is down.
type EngagementService struct {
	engagementRepo repository.EngagementRepository
	entryRepo      repository.EntryRepository
	notifier       *notifications.Notifier
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"likes_count"`
}

// CheerResult is the outcome of a cheer toggle.
type CheerResult struct {
	Cheered bool  `json:"cheered"`
	Count   int64 `json:"cheers_count"`
}

// NewEngagementService returns an engagement service. notifier may be nil.
func NewEngagementService(
	engagementRepo repository.EngagementRepository,
	entryRepo repository.EntryRepository,
	notifier *notifications.Notifier,
) *EngagementService {
	return &EngagementService{
		engagementRepo: engagementRepo,
		entryRepo:      entryRepo,
		notifier:       notifier,
	}
}

// ToggleLike flips the user's like on an entry. A newly-created like notifies
// the entry's author; removal is silent.
func (s *EngagementService) ToggleLike(ctx context.Context, userID, entryID uint) (*LikeResult, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID, 0)
	if err != nil {
		return nil, err
	}

	liked, count, err := s.engagementRepo.ToggleLike(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	if liked && s.notifier != nil && entry.UserID != userID {
		ev := notifications.Event{Type: notifications.EventLikeCreated, ActorID: userID, TargetID: entryID}
		if pubErr := s.notifier.PublishEvent(ctx, entry.UserID, ev); pubErr != nil {
			slog.WarnContext(ctx, "like event publish failed", slog.String("error", pubErr.Error()))
		}
	}
	return &LikeResult{Liked: liked, Count: count}, nil
}

// ToggleCheer flips the user's cheer on a catalog video. Cheers have no single
// recipient, so new cheers go out on the broadcast channel.
func (s *EngagementService) ToggleCheer(ctx context.Context, userID, videoID uint) (*CheerResult, error) {
	cheered, count, err := s.engagementRepo.ToggleCheer(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}

	if cheered && s.notifier != nil {
		ev := notifications.Event{Type: notifications.EventCheerCreated, ActorID: userID, TargetID: videoID}
		payload, _ := jsonMarshalEvent(ev)
		if pubErr := s.notifier.PublishBroadcast(ctx, payload); pubErr != nil {
			slog.WarnContext(ctx, "cheer event publish failed", slog.String("error", pubErr.Error()))
		}
	}
	return &CheerResult{Cheered: cheered, Count: count}, nil
}

// NotifyAchievement announces an achievement on the broadcast channel.
func (s *EngagementService) NotifyAchievement(ctx context.Context, entry *models.Entry) {
	if s.notifier == nil || entry == nil {
		return
	}
	ev := notifications.Event{Type: notifications.EventEntryAchieved, ActorID: entry.UserID, TargetID: entry.ID}
	payload, _ := jsonMarshalEvent(ev)
	if err := s.notifier.PublishBroadcast(ctx, payload); err != nil {
		slog.WarnContext(ctx, "achievement event publish failed", slog.String("error", err.Error()))
	}
}
