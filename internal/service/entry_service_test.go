package service

import (
	"context"
	"testing"
	"time"

	"doneby/internal/models"
	"doneby/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
}

func newTestEntryService(entryRepo *entryRepoStub, videoRepo *videoRepoStub) *EntryService {
	svc := NewEntryService(entryRepo, NewCatalogService(videoRepo, nil), nil, nil)
	svc.now = fixedNow
	return svc
}

func TestEntryCreate_DefaultsDeadlineToSevenDays(t *testing.T) {
	entryRepo := noopEntryRepo()
	videoRepo := noopVideoRepo()
	videoRepo.createFn = func(_ context.Context, v *models.Video) error { v.ID = 1; return nil }

	var created *models.Entry
	entryRepo.createFn = func(_ context.Context, e *models.Entry) error {
		e.ID = 10
		created = e
		return nil
	}

	svc := newTestEntryService(entryRepo, videoRepo)
	_, err := svc.Create(context.Background(), CreateEntryInput{
		UserID:   1,
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Content:  "Bake a loaf",
	})
	require.NoError(t, err)
	require.NotNil(t, created.Deadline)
	assert.Equal(t, fixedNow().AddDate(0, 0, 7), *created.Deadline)
}

func TestEntryCreate_RespectsExplicitDeadline(t *testing.T) {
	entryRepo := noopEntryRepo()
	videoRepo := noopVideoRepo()
	videoRepo.createFn = func(_ context.Context, v *models.Video) error { v.ID = 1; return nil }

	var created *models.Entry
	entryRepo.createFn = func(_ context.Context, e *models.Entry) error { created = e; return nil }

	deadline := fixedNow().AddDate(0, 0, 2)
	svc := newTestEntryService(entryRepo, videoRepo)
	_, err := svc.Create(context.Background(), CreateEntryInput{
		UserID:   1,
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Content:  "Bake a loaf",
		Deadline: &deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, deadline, *created.Deadline)
}

func TestEntryCreate_RejectsSecondPending(t *testing.T) {
	entryRepo := noopEntryRepo()
	entryRepo.getPendingByUserFn = func(_ context.Context, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: 4}, nil
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	_, err := svc.Create(context.Background(), CreateEntryInput{
		UserID:   1,
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Content:  "Bake a loaf",
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestEntryCreate_MapsStorageRaceToValidationError(t *testing.T) {
	entryRepo := noopEntryRepo()
	entryRepo.createFn = func(_ context.Context, _ *models.Entry) error {
		return repository.ErrPendingEntryExists
	}
	videoRepo := noopVideoRepo()
	videoRepo.createFn = func(_ context.Context, v *models.Video) error { v.ID = 1; return nil }

	svc := newTestEntryService(entryRepo, videoRepo)
	_, err := svc.Create(context.Background(), CreateEntryInput{
		UserID:   1,
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Content:  "Bake a loaf",
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestEntryCreate_ValidatesContent(t *testing.T) {
	svc := newTestEntryService(noopEntryRepo(), noopVideoRepo())

	_, err := svc.Create(context.Background(), CreateEntryInput{UserID: 1, VideoURL: "https://youtu.be/dQw4w9WgXcQ", Content: "   "})
	assert.Error(t, err)

	long := make([]byte, models.MaxContentLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Create(context.Background(), CreateEntryInput{UserID: 1, VideoURL: "https://youtu.be/dQw4w9WgXcQ", Content: string(long)})
	assert.Error(t, err)
}

func TestToggleAchieve_PendingToAchieved(t *testing.T) {
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1}, nil
	}
	var applied map[string]any
	entryRepo.updateFieldsFn = func(_ context.Context, _ uint, fields map[string]any) error {
		applied = fields
		return nil
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	_, err := svc.ToggleAchieve(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"achieved_at": fixedNow()}, applied)
}

func TestToggleAchieve_RevertClearsAllAchievementFields(t *testing.T) {
	achieved := fixedNow().Add(-time.Hour)
	reflection := "did it"
	key := "uploads/2026/03/x.jpg"
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1, AchievedAt: &achieved, Reflection: &reflection, ResultImageKey: &key}, nil
	}
	var applied map[string]any
	entryRepo.updateFieldsFn = func(_ context.Context, _ uint, fields map[string]any) error {
		applied = fields
		return nil
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	_, err := svc.ToggleAchieve(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"achieved_at":      nil,
		"reflection":       nil,
		"result_image_key": nil,
	}, applied)
}

func TestToggleAchieve_RevertBlockedByExistingPendingEntry(t *testing.T) {
	achieved := fixedNow().Add(-time.Hour)
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1, AchievedAt: &achieved}, nil
	}
	entryRepo.getPendingByUserFn = func(_ context.Context, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: 20, UserID: 1}, nil
	}
	entryRepo.updateFieldsFn = func(_ context.Context, _ uint, _ map[string]any) error {
		t.Fatal("revert must not reach the repository when a pending entry exists")
		return nil
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	_, err := svc.ToggleAchieve(context.Background(), 10, 1)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestToggleAchieve_RevertConstraintRaceMapsToValidationError(t *testing.T) {
	// A pending entry created between the precondition check and the UPDATE
	// surfaces as the unique-constraint sentinel; callers must still see a
	// validation error, not an internal one.
	achieved := fixedNow().Add(-time.Hour)
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1, AchievedAt: &achieved}, nil
	}
	entryRepo.updateFieldsFn = func(_ context.Context, _ uint, _ map[string]any) error {
		return repository.ErrPendingEntryExists
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	_, err := svc.ToggleAchieve(context.Background(), 10, 1)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestToggleAchieve_RejectsForeignEntry(t *testing.T) {
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 99}, nil
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	_, err := svc.ToggleAchieve(context.Background(), 10, 1)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestAchieveWithReflection_SetsAllFieldsAtOnce(t *testing.T) {
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1}, nil
	}
	var applied map[string]any
	entryRepo.updateFieldsFn = func(_ context.Context, _ uint, fields map[string]any) error {
		applied = fields
		return nil
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	_, err := svc.AchieveWithReflection(context.Background(), AchieveInput{
		EntryID:    10,
		UserID:     1,
		Reflection: "Crusty and delicious",
		ImageKey:   "uploads/2026/03/loaf.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow(), applied["achieved_at"])
	assert.Equal(t, "Crusty and delicious", applied["reflection"])
	assert.Equal(t, "uploads/2026/03/loaf.jpg", applied["result_image_key"])
}

func TestAchieveWithReflection_RejectsAlreadyAchieved(t *testing.T) {
	achieved := fixedNow()
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1, AchievedAt: &achieved}, nil
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	_, err := svc.AchieveWithReflection(context.Background(), AchieveInput{EntryID: 10, UserID: 1, Reflection: "x"})
	assert.Error(t, err)
}

func TestUpdateReflection_RequiresAchievedEntry(t *testing.T) {
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1}, nil
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	_, err := svc.UpdateReflection(context.Background(), UpdateReflectionInput{EntryID: 10, UserID: 1, Reflection: "later thoughts"})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestRetarget_SameVideoIsNoop(t *testing.T) {
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1, VideoID: 3}, nil
	}
	entryRepo.updateFieldsFn = func(_ context.Context, _ uint, _ map[string]any) error {
		t.Fatal("no update expected for a same-video retarget")
		return nil
	}
	videoRepo := noopVideoRepo()
	videoRepo.getByYoutubeIDFn = func(_ context.Context, _ string) (*models.Video, error) {
		return &models.Video{ID: 3, YoutubeID: "dQw4w9WgXcQ"}, nil
	}
	videoRepo.deleteIfOrphanedFn = func(_ context.Context, _ uint) (bool, error) {
		t.Fatal("no orphan cleanup expected for a same-video retarget")
		return false, nil
	}

	svc := newTestEntryService(entryRepo, videoRepo)
	url := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	_, err := svc.RetargetAndUpdate(context.Background(), RetargetInput{EntryID: 10, UserID: 1, VideoURL: &url})
	require.NoError(t, err)
}

func TestRetarget_CleansUpOldVideoAfterUpdate(t *testing.T) {
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1, VideoID: 3}, nil
	}
	updated := false
	entryRepo.updateFieldsFn = func(_ context.Context, _ uint, fields map[string]any) error {
		assert.Equal(t, uint(8), fields["video_id"])
		updated = true
		return nil
	}

	videoRepo := noopVideoRepo()
	videoRepo.getByYoutubeIDFn = func(_ context.Context, _ string) (*models.Video, error) {
		return &models.Video{ID: 8, YoutubeID: "aaaaaaaaaaa"}, nil
	}
	var cleanedUp uint
	videoRepo.deleteIfOrphanedFn = func(_ context.Context, id uint) (bool, error) {
		assert.True(t, updated, "cleanup must run after the entry update")
		cleanedUp = id
		return true, nil
	}

	svc := newTestEntryService(entryRepo, videoRepo)
	url := "https://www.youtube.com/watch?v=aaaaaaaaaaa"
	_, err := svc.RetargetAndUpdate(context.Background(), RetargetInput{EntryID: 10, UserID: 1, VideoURL: &url})
	require.NoError(t, err)
	assert.Equal(t, uint(3), cleanedUp)
}

func TestRetarget_RejectsAchievedEntry(t *testing.T) {
	achieved := fixedNow()
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1, VideoID: 3, AchievedAt: &achieved}, nil
	}

	svc := newTestEntryService(entryRepo, noopVideoRepo())
	content := "new plan"
	_, err := svc.RetargetAndUpdate(context.Background(), RetargetInput{EntryID: 10, UserID: 1, Content: &content})
	assert.Error(t, err)
}

func TestDestroy_TriggersOrphanCleanup(t *testing.T) {
	entryRepo := noopEntryRepo()
	entryRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Entry, error) {
		return &models.Entry{ID: id, UserID: 1, VideoID: 3}, nil
	}
	deleted := false
	entryRepo.deleteFn = func(_ context.Context, _ uint) error { deleted = true; return nil }

	videoRepo := noopVideoRepo()
	var cleanedUp uint
	videoRepo.deleteIfOrphanedFn = func(_ context.Context, id uint) (bool, error) {
		assert.True(t, deleted, "cleanup must run after the entry delete")
		cleanedUp = id
		return true, nil
	}

	svc := newTestEntryService(entryRepo, videoRepo)
	require.NoError(t, svc.Destroy(context.Background(), 10, 1))
	assert.Equal(t, uint(3), cleanedUp)
}

func TestResolveMediaURLs_FallsBackToDefaultFrame(t *testing.T) {
	entry := &models.Entry{
		ID:    1,
		Video: &models.Video{YoutubeID: "dQw4w9WgXcQ"},
	}
	svc := newTestEntryService(noopEntryRepo(), noopVideoRepo())
	svc.resolveMediaURLs(entry)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", entry.ThumbnailURL)
}

func TestResolveMediaURLs_PresignsStoredKeys(t *testing.T) {
	key := "uploads/2026/03/loaf.jpg"
	thumb := "uploads/2026/03/thumb.webp"
	entry := &models.Entry{
		ID:             1,
		ResultImageKey: &key,
		ThumbnailKey:   &thumb,
		Video:          &models.Video{YoutubeID: "dQw4w9WgXcQ"},
	}

	storage := &storageStub{presignFn: func(k string, _ time.Duration) (string, error) {
		return "https://blobs.example.com/signed/" + k, nil
	}}
	svc := NewEntryService(noopEntryRepo(), NewCatalogService(noopVideoRepo(), nil), storage, nil)
	svc.resolveMediaURLs(entry)

	assert.Equal(t, "https://blobs.example.com/signed/uploads/2026/03/loaf.jpg", entry.ResultImageURL)
	assert.Equal(t, "https://blobs.example.com/signed/uploads/2026/03/thumb.webp", entry.ThumbnailURL)
}

func TestCountStreak(t *testing.T) {
	now := time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC)
	day := func(daysAgo int) time.Time { return now.AddDate(0, 0, -daysAgo) }

	tests := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"no achievements", nil, 0},
		{"achieved today", []time.Time{day(0)}, 1},
		{"achieved yesterday only", []time.Time{day(1)}, 1},
		{"broken two days ago", []time.Time{day(2)}, 0},
		{"three day run", []time.Time{day(0), day(1), day(2)}, 3},
		{"two same day then gap", []time.Time{day(0), day(0), day(3)}, 1},
		{"run ending yesterday", []time.Time{day(1), day(2), day(3)}, 3},
		{"gap inside run", []time.Time{day(0), day(1), day(4)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countStreak(tt.dates, now))
		})
	}
}
