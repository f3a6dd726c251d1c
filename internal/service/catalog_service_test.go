package service

import (
	"context"
	"errors"
	"testing"

	"doneby/internal/gateway"
	"doneby/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url without www", "https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile watch url", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url with slash", "https://youtu.be/dQw4w9WgXcQ/", "dQw4w9WgXcQ"},
		{"watch url with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"id with underscore and dash", "https://youtu.be/a_b-C1d2E3f", "a_b-C1d2E3f"},
		{"wrong host", "https://vimeo.com/watch?v=dQw4w9WgXcQ", ""},
		{"id too short", "https://youtu.be/short", ""},
		{"id too long", "https://youtu.be/dQw4w9WgXcQtoolong", ""},
		{"bad charset", "https://youtu.be/dQw4w9WgX!Q", ""},
		{"no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", ""},
		{"empty", "", ""},
		{"garbage", "not a url at all", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.url))
		})
	}
}

func TestFindOrCreateByVideo_RejectsUnrecognizableURL(t *testing.T) {
	svc := NewCatalogService(noopVideoRepo(), nil)

	_, err := svc.FindOrCreateByVideo(context.Background(), "https://example.com/clip")
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestFindOrCreateByVideo_CreatesWithMetadata(t *testing.T) {
	repo := noopVideoRepo()
	var created *models.Video
	repo.createFn = func(_ context.Context, v *models.Video) error {
		v.ID = 5
		created = v
		return nil
	}
	md := &metadataStub{fetchFn: func(_ context.Context, _ string) (*gateway.VideoMetadata, error) {
		return &gateway.VideoMetadata{Title: "Sourdough", ChannelName: "Bread", ChannelID: "UCbread"}, nil
	}}

	svc := NewCatalogService(repo, md)
	video, err := svc.FindOrCreateByVideo(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, uint(5), video.ID)
	assert.Equal(t, "dQw4w9WgXcQ", video.YoutubeID)
	assert.Equal(t, "Sourdough", video.Title)
	assert.Equal(t, "UCbread", video.ChannelID)
}

func TestFindOrCreateByVideo_MetadataFailureIsSwallowed(t *testing.T) {
	repo := noopVideoRepo()
	repo.createFn = func(_ context.Context, v *models.Video) error { v.ID = 5; return nil }
	md := &metadataStub{fetchFn: func(_ context.Context, _ string) (*gateway.VideoMetadata, error) {
		return nil, errors.New("lookup down")
	}}

	svc := NewCatalogService(repo, md)
	video, err := svc.FindOrCreateByVideo(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", video.YoutubeID)
	assert.Empty(t, video.Title)
}

func TestFindOrCreateByVideo_ReturnsExistingWithoutCreate(t *testing.T) {
	repo := noopVideoRepo()
	existing := &models.Video{ID: 9, YoutubeID: "dQw4w9WgXcQ", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}
	repo.getByYoutubeIDFn = func(_ context.Context, id string) (*models.Video, error) { return existing, nil }
	repo.createFn = func(_ context.Context, _ *models.Video) error {
		t.Fatal("create must not be called for an existing video")
		return nil
	}

	svc := NewCatalogService(repo, nil)
	video, err := svc.FindOrCreateByVideo(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, uint(9), video.ID)
}

func TestFindOrCreateByVideo_LosingCreateRaceReturnsWinner(t *testing.T) {
	repo := noopVideoRepo()
	winner := &models.Video{ID: 3, YoutubeID: "dQw4w9WgXcQ"}
	first := true
	repo.getByYoutubeIDFn = func(_ context.Context, _ string) (*models.Video, error) {
		if first {
			first = false
			return nil, nil
		}
		return winner, nil
	}
	repo.createFn = func(_ context.Context, _ *models.Video) error {
		return models.NewValidationError("Video already exists")
	}

	svc := NewCatalogService(repo, nil)
	video, err := svc.FindOrCreateByVideo(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, uint(3), video.ID)
}

func TestDeleteIfOrphaned_SwallowsErrors(t *testing.T) {
	repo := noopVideoRepo()
	repo.deleteIfOrphanedFn = func(_ context.Context, _ uint) (bool, error) {
		return false, models.NewInternalError(errors.New("db down"))
	}

	svc := NewCatalogService(repo, nil)
	// Must not panic or surface the error.
	svc.DeleteIfOrphaned(context.Background(), 7)
}
