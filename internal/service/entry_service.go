package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"doneby/internal/cache"
	"doneby/internal/gateway"
	"doneby/internal/models"
	"doneby/internal/observability"
	"doneby/internal/repository"
)

const presignTTL = 1 * time.Hour

// EntryService owns the action-plan lifecycle: create while watching, achieve
// with a reflection later, retarget to another video, or delete. Catalog
// cleanup for videos left without entries happens here too, always after the
// entry's own transaction committed.
type EntryService struct {
	entryRepo repository.EntryRepository
	catalog   *CatalogService
	storage   gateway.BlobStorage
	thumbs    *ThumbnailService
	now       func() time.Time
}

// NewEntryService returns an entry service. storage and thumbs may be nil;
// media URLs then fall back to the default video frame and no thumbnails are
// generated.
func NewEntryService(
	entryRepo repository.EntryRepository,
	catalog *CatalogService,
	storage gateway.BlobStorage,
	thumbs *ThumbnailService,
) *EntryService {
	return &EntryService{
		entryRepo: entryRepo,
		catalog:   catalog,
		storage:   storage,
		thumbs:    thumbs,
		now:       time.Now,
	}
}

type CreateEntryInput struct {
	UserID   uint
	VideoURL string
	Content  string
	Deadline *time.Time
}

type AchieveInput struct {
	EntryID    uint
	UserID     uint
	Reflection string
	ImageKey   string
}

type UpdateReflectionInput struct {
	EntryID    uint
	UserID     uint
	Reflection string
	ImageKey   *string
}

type RetargetInput struct {
	EntryID      uint
	UserID       uint
	VideoURL     *string
	Content      *string
	Deadline     *time.Time
	ThumbnailKey *string
}

// Create declares a new action plan against the video at the given URL. A
// user can hold at most one pending entry; the partial unique index backs the
// precondition check under concurrency.
func (s *EntryService) Create(ctx context.Context, in CreateEntryInput) (*models.Entry, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Action plan content is required")
	}
	if len(content) > models.MaxContentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Action plan too long (max %d characters)", models.MaxContentLen))
	}

	pending, err := s.entryRepo.GetPendingByUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, models.NewValidationError("You already have a pending action plan; achieve or delete it first")
	}

	video, err := s.catalog.FindOrCreateByVideo(ctx, in.VideoURL)
	if err != nil {
		return nil, err
	}

	deadline := in.Deadline
	if deadline == nil {
		d := s.now().AddDate(0, 0, models.DefaultDeadlineDays)
		deadline = &d
	}

	entry := &models.Entry{
		UserID:   in.UserID,
		VideoID:  video.ID,
		Content:  content,
		Deadline: deadline,
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		if err == repository.ErrPendingEntryExists {
			return nil, models.NewValidationError("You already have a pending action plan; achieve or delete it first")
		}
		return nil, err
	}
	observability.EntriesCreated.Inc()

	if s.thumbs != nil {
		s.thumbs.Enqueue(entry.ID, content)
	}

	entry.Video = video
	s.resolveMediaURLs(entry)
	return entry, nil
}

// ToggleAchieve flips the entry between pending and achieved. Reverting to
// pending clears the reflection and result image in the same UPDATE, so an
// entry can never be pending while carrying achievement artifacts.
func (s *EntryService) ToggleAchieve(ctx context.Context, entryID, userID uint) (*models.Entry, error) {
	entry, err := s.ownedEntry(ctx, entryID, userID)
	if err != nil {
		return nil, err
	}

	if entry.Achieved() {
		// Reverting would make this the user's pending entry, so the
		// one-pending rule applies here just like in Create.
		pending, perr := s.entryRepo.GetPendingByUser(ctx, userID)
		if perr != nil {
			return nil, perr
		}
		if pending != nil {
			return nil, models.NewValidationError("Achieve or delete your current pending plan before reverting this one")
		}

		err = s.entryRepo.UpdateFields(ctx, entryID, map[string]any{
			"achieved_at":      nil,
			"reflection":       nil,
			"result_image_key": nil,
		})
	} else {
		err = s.entryRepo.UpdateFields(ctx, entryID, map[string]any{
			"achieved_at": s.now(),
		})
		if err == nil {
			observability.EntriesAchieved.Inc()
			cache.InvalidateUser(ctx, userID)
		}
	}
	if err != nil {
		// Backstop for the race the precondition check cannot close.
		if err == repository.ErrPendingEntryExists {
			return nil, models.NewValidationError("Achieve or delete your current pending plan before reverting this one")
		}
		return nil, err
	}
	return s.GetEntry(ctx, entryID, userID)
}

// AchieveWithReflection marks a pending entry achieved and attaches the
// reflection text and result photo in one transition.
func (s *EntryService) AchieveWithReflection(ctx context.Context, in AchieveInput) (*models.Entry, error) {
	entry, err := s.ownedEntry(ctx, in.EntryID, in.UserID)
	if err != nil {
		return nil, err
	}
	if entry.Achieved() {
		return nil, models.NewValidationError("Entry is already achieved")
	}
	if err := validateReflection(in.Reflection); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"achieved_at": s.now(),
		"reflection":  strings.TrimSpace(in.Reflection),
	}
	if key := gateway.NormalizeStorageKey(in.ImageKey); key != "" {
		fields["result_image_key"] = key
	}
	if err := s.entryRepo.UpdateFields(ctx, in.EntryID, fields); err != nil {
		return nil, err
	}
	observability.EntriesAchieved.Inc()
	cache.InvalidateUser(ctx, in.UserID)
	return s.GetEntry(ctx, in.EntryID, in.UserID)
}

// UpdateReflection edits the reflection on an already-achieved entry.
func (s *EntryService) UpdateReflection(ctx context.Context, in UpdateReflectionInput) (*models.Entry, error) {
	entry, err := s.ownedEntry(ctx, in.EntryID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !entry.Achieved() {
		return nil, models.NewValidationError("Only achieved entries carry a reflection")
	}
	if err := validateReflection(in.Reflection); err != nil {
		return nil, err
	}

	fields := map[string]any{"reflection": strings.TrimSpace(in.Reflection)}
	if in.ImageKey != nil {
		if key := gateway.NormalizeStorageKey(*in.ImageKey); key != "" {
			fields["result_image_key"] = key
		} else {
			fields["result_image_key"] = nil
		}
	}
	if err := s.entryRepo.UpdateFields(ctx, in.EntryID, fields); err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, in.EntryID, in.UserID)
}

// RetargetAndUpdate edits a pending entry: optionally points it at another
// video, rewrites the plan text, moves the deadline or swaps the custom
// thumbnail. When the entry leaves its old video, the old row is
// garbage-collected after the entry's update committed.
func (s *EntryService) RetargetAndUpdate(ctx context.Context, in RetargetInput) (*models.Entry, error) {
	entry, err := s.ownedEntry(ctx, in.EntryID, in.UserID)
	if err != nil {
		return nil, err
	}
	if entry.Achieved() {
		return nil, models.NewValidationError("Achieved entries cannot be edited; revert to pending first")
	}

	oldVideoID := entry.VideoID
	fields := map[string]any{}

	if in.VideoURL != nil {
		video, err := s.catalog.FindOrCreateByVideo(ctx, *in.VideoURL)
		if err != nil {
			return nil, err
		}
		if video.ID != entry.VideoID {
			fields["video_id"] = video.ID
		}
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, models.NewValidationError("Action plan content is required")
		}
		if len(content) > models.MaxContentLen {
			return nil, models.NewValidationError(fmt.Sprintf("Action plan too long (max %d characters)", models.MaxContentLen))
		}
		fields["content"] = content
	}
	if in.Deadline != nil {
		fields["deadline"] = *in.Deadline
	}
	if in.ThumbnailKey != nil {
		if key := gateway.NormalizeStorageKey(*in.ThumbnailKey); key != "" {
			fields["thumbnail_key"] = key
		} else {
			fields["thumbnail_key"] = nil
		}
	}

	if len(fields) == 0 {
		s.resolveMediaURLs(entry)
		return entry, nil
	}

	if err := s.entryRepo.UpdateFields(ctx, in.EntryID, fields); err != nil {
		return nil, err
	}

	if _, retargeted := fields["video_id"]; retargeted {
		s.catalog.DeleteIfOrphaned(ctx, oldVideoID)
	}
	return s.GetEntry(ctx, in.EntryID, in.UserID)
}

// Destroy deletes the entry and then garbage-collects its video if nothing
// else references it.
func (s *EntryService) Destroy(ctx context.Context, entryID, userID uint) error {
	entry, err := s.ownedEntry(ctx, entryID, userID)
	if err != nil {
		return err
	}
	videoID := entry.VideoID

	if err := s.entryRepo.Delete(ctx, entryID); err != nil {
		return err
	}
	s.catalog.DeleteIfOrphaned(ctx, videoID)
	return nil
}

// GetEntry returns one entry with computed engagement and resolved media URLs.
func (s *EntryService) GetEntry(ctx context.Context, entryID, currentUserID uint) (*models.Entry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID, currentUserID)
	if err != nil {
		return nil, err
	}
	s.resolveMediaURLs(entry)
	return entry, nil
}

// PendingEntry returns the user's current pending entry, nil when none exists.
func (s *EntryService) PendingEntry(ctx context.Context, userID uint) (*models.Entry, error) {
	entry, err := s.entryRepo.GetPendingByUser(ctx, userID)
	if err != nil || entry == nil {
		return nil, err
	}
	s.resolveMediaURLs(entry)
	return entry, nil
}

func (s *EntryService) ownedEntry(ctx context.Context, entryID, userID uint) (*models.Entry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID, userID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, models.NewUnauthorizedError("You do not own this entry")
	}
	return entry, nil
}

func validateReflection(text string) error {
	if len(strings.TrimSpace(text)) > models.MaxReflectionLen {
		return models.NewValidationError(fmt.Sprintf("Reflection too long (max %d characters)", models.MaxReflectionLen))
	}
	return nil
}

// resolveMediaURLs turns stored storage keys into presigned URLs. Presign
// failures fall back to the deterministic YouTube frame so a thumbnail is
// always renderable.
func (s *EntryService) resolveMediaURLs(entry *models.Entry) {
	if entry == nil {
		return
	}

	if s.storage != nil && entry.ResultImageKey != nil {
		if signed, err := s.storage.Presign(*entry.ResultImageKey, presignTTL); err == nil {
			entry.ResultImageURL = signed
		}
	}

	if s.storage != nil && entry.ThumbnailKey != nil {
		if signed, err := s.storage.Presign(*entry.ThumbnailKey, presignTTL); err == nil {
			entry.ThumbnailURL = signed
		}
	}
	if entry.ThumbnailURL == "" && entry.Video != nil {
		entry.ThumbnailURL = entry.Video.DefaultThumbnailURL()
	}
}

// Feed returns the global recent-entries feed. The anonymous variant is
// cache-aside; a signed-in read bypasses the cache because liked status is
// viewer-specific.
func (s *EntryService) Feed(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	limit, offset = clampPage(limit, offset)

	var entries []*models.Entry
	var err error
	if currentUserID == 0 && offset == 0 {
		err = cache.Aside(ctx, cache.FeedKey, &entries, cache.FeedTTL, func() error {
			var fetchErr error
			entries, fetchErr = s.entryRepo.ListRecent(ctx, limit, offset, 0)
			return fetchErr
		})
	} else {
		entries, err = s.entryRepo.ListRecent(ctx, limit, offset, currentUserID)
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		s.resolveMediaURLs(e)
	}
	return entries, nil
}

// AchievedFeed returns recently-achieved entries, newest achievement first.
func (s *EntryService) AchievedFeed(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	limit, offset = clampPage(limit, offset)
	entries, err := s.entryRepo.ListAchieved(ctx, limit, offset, currentUserID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		s.resolveMediaURLs(e)
	}
	return entries, nil
}

// UserEntries lists a user's entries, newest first.
func (s *EntryService) UserEntries(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	limit, offset = clampPage(limit, offset)
	entries, err := s.entryRepo.ListByUser(ctx, userID, limit, offset, currentUserID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		s.resolveMediaURLs(e)
	}
	return entries, nil
}

// VideoEntries lists entries targeting one catalog video.
func (s *EntryService) VideoEntries(ctx context.Context, videoID uint, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	limit, offset = clampPage(limit, offset)
	entries, err := s.entryRepo.ListByVideo(ctx, videoID, limit, offset, currentUserID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		s.resolveMediaURLs(e)
	}
	return entries, nil
}

// Streak counts consecutive days with at least one achievement, ending today
// or yesterday (an unbroken streak survives until a full day is missed).
func (s *EntryService) Streak(ctx context.Context, userID uint) (int, error) {
	var streak int
	err := cache.Aside(ctx, cache.StreakKey(userID), &streak, cache.StreakTTL, func() error {
		dates, err := s.entryRepo.AchievedDates(ctx, userID)
		if err != nil {
			return err
		}
		streak = countStreak(dates, s.now())
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "streak computation failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()))
		return 0, err
	}
	return streak, nil
}

// countStreak expects dates sorted most recent first.
func countStreak(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	day := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}

	cursor := day(now)
	latest := day(dates[0].In(now.Location()))
	if latest.Before(cursor.AddDate(0, 0, -1)) {
		return 0
	}
	cursor = latest

	streak := 1
	for _, d := range dates[1:] {
		dd := day(d.In(now.Location()))
		switch {
		case dd.Equal(cursor):
			// Same day; already counted.
		case dd.Equal(cursor.AddDate(0, 0, -1)):
			streak++
			cursor = dd
		default:
			return streak
		}
	}
	return streak
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
