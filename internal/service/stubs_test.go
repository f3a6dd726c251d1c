package service

import (
	"context"
	"time"

	"doneby/internal/gateway"
	"doneby/internal/models"
)

// videoRepoStub is a stub for repository.VideoRepository.
type videoRepoStub struct {
	createFn               func(context.Context, *models.Video) error
	getByIDFn              func(context.Context, uint) (*models.Video, error)
	getByYoutubeIDFn       func(context.Context, string) (*models.Video, error)
	updateFn               func(context.Context, *models.Video) error
	updateSuggestedPlansFn func(context.Context, uint, string) error
	deleteIfOrphanedFn     func(context.Context, uint) (bool, error)
	popularChannelsFn      func(context.Context, int) ([]models.ChannelRanking, error)
	byEntryCountFn         func(context.Context, int, int) ([]*models.Video, error)
}

func (s *videoRepoStub) Create(ctx context.Context, v *models.Video) error {
	return s.createFn(ctx, v)
}
func (s *videoRepoStub) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	return s.getByIDFn(ctx, id)
}
func (s *videoRepoStub) GetByYoutubeID(ctx context.Context, youtubeID string) (*models.Video, error) {
	return s.getByYoutubeIDFn(ctx, youtubeID)
}
func (s *videoRepoStub) Update(ctx context.Context, v *models.Video) error {
	return s.updateFn(ctx, v)
}
func (s *videoRepoStub) UpdateSuggestedPlans(ctx context.Context, id uint, plansJSON string) error {
	return s.updateSuggestedPlansFn(ctx, id, plansJSON)
}
func (s *videoRepoStub) DeleteIfOrphaned(ctx context.Context, id uint) (bool, error) {
	return s.deleteIfOrphanedFn(ctx, id)
}
func (s *videoRepoStub) PopularChannels(ctx context.Context, limit int) ([]models.ChannelRanking, error) {
	return s.popularChannelsFn(ctx, limit)
}
func (s *videoRepoStub) ByEntryCount(ctx context.Context, limit, offset int) ([]*models.Video, error) {
	return s.byEntryCountFn(ctx, limit, offset)
}

func noopVideoRepo() *videoRepoStub {
	return &videoRepoStub{
		createFn:               func(_ context.Context, _ *models.Video) error { return nil },
		getByIDFn:              func(_ context.Context, _ uint) (*models.Video, error) { return &models.Video{}, nil },
		getByYoutubeIDFn:       func(_ context.Context, _ string) (*models.Video, error) { return nil, nil },
		updateFn:               func(_ context.Context, _ *models.Video) error { return nil },
		updateSuggestedPlansFn: func(_ context.Context, _ uint, _ string) error { return nil },
		deleteIfOrphanedFn:     func(_ context.Context, _ uint) (bool, error) { return false, nil },
		popularChannelsFn:      func(_ context.Context, _ int) ([]models.ChannelRanking, error) { return nil, nil },
		byEntryCountFn:         func(_ context.Context, _, _ int) ([]*models.Video, error) { return nil, nil },
	}
}

// entryRepoStub is a stub for repository.EntryRepository.
type entryRepoStub struct {
	createFn           func(context.Context, *models.Entry) error
	getByIDFn          func(context.Context, uint, uint) (*models.Entry, error)
	getPendingByUserFn func(context.Context, uint) (*models.Entry, error)
	listRecentFn       func(context.Context, int, int, uint) ([]*models.Entry, error)
	listAchievedFn     func(context.Context, int, int, uint) ([]*models.Entry, error)
	listByUserFn       func(context.Context, uint, int, int, uint) ([]*models.Entry, error)
	listByVideoFn      func(context.Context, uint, int, int, uint) ([]*models.Entry, error)
	updateFieldsFn     func(context.Context, uint, map[string]any) error
	deleteFn           func(context.Context, uint) error
	countByVideoFn     func(context.Context, uint) (int64, error)
	achievedDatesFn    func(context.Context, uint) ([]time.Time, error)
}

func (s *entryRepoStub) Create(ctx context.Context, e *models.Entry) error {
	return s.createFn(ctx, e)
}
func (s *entryRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Entry, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *entryRepoStub) GetPendingByUser(ctx context.Context, userID uint) (*models.Entry, error) {
	return s.getPendingByUserFn(ctx, userID)
}
func (s *entryRepoStub) ListRecent(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	return s.listRecentFn(ctx, limit, offset, currentUserID)
}
func (s *entryRepoStub) ListAchieved(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	return s.listAchievedFn(ctx, limit, offset, currentUserID)
}
func (s *entryRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	return s.listByUserFn(ctx, userID, limit, offset, currentUserID)
}
func (s *entryRepoStub) ListByVideo(ctx context.Context, videoID uint, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	return s.listByVideoFn(ctx, videoID, limit, offset, currentUserID)
}
func (s *entryRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *entryRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *entryRepoStub) CountByVideo(ctx context.Context, videoID uint) (int64, error) {
	return s.countByVideoFn(ctx, videoID)
}
func (s *entryRepoStub) AchievedDates(ctx context.Context, userID uint) ([]time.Time, error) {
	return s.achievedDatesFn(ctx, userID)
}

func noopEntryRepo() *entryRepoStub {
	return &entryRepoStub{
		createFn:           func(_ context.Context, _ *models.Entry) error { return nil },
		getByIDFn:          func(_ context.Context, _, _ uint) (*models.Entry, error) { return &models.Entry{}, nil },
		getPendingByUserFn: func(_ context.Context, _ uint) (*models.Entry, error) { return nil, nil },
		listRecentFn:       func(_ context.Context, _, _ int, _ uint) ([]*models.Entry, error) { return nil, nil },
		listAchievedFn:     func(_ context.Context, _, _ int, _ uint) ([]*models.Entry, error) { return nil, nil },
		listByUserFn:       func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Entry, error) { return nil, nil },
		listByVideoFn:      func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Entry, error) { return nil, nil },
		updateFieldsFn:     func(_ context.Context, _ uint, _ map[string]any) error { return nil },
		deleteFn:           func(_ context.Context, _ uint) error { return nil },
		countByVideoFn:     func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		achievedDatesFn:    func(_ context.Context, _ uint) ([]time.Time, error) { return nil, nil },
	}
}

// metadataStub is a stub for gateway.MetadataLookup.
type metadataStub struct {
	fetchFn func(context.Context, string) (*gateway.VideoMetadata, error)
}

func (s *metadataStub) Fetch(ctx context.Context, videoURL string) (*gateway.VideoMetadata, error) {
	return s.fetchFn(ctx, videoURL)
}

// storageStub is a stub for gateway.BlobStorage.
type storageStub struct {
	presignFn       func(string, time.Duration) (string, error)
	presignUploadFn func(string, string) (*gateway.UploadTicket, error)
}

func (s *storageStub) Presign(key string, ttl time.Duration) (string, error) {
	return s.presignFn(key, ttl)
}
func (s *storageStub) PresignUpload(filename, contentType string) (*gateway.UploadTicket, error) {
	return s.presignUploadFn(filename, contentType)
}

// suggestionClientStub is a stub for gateway.SuggestionClient.
type suggestionClientStub struct {
	suggestPlansFn   func(context.Context, string) ([]string, error)
	convertToTitleFn func(context.Context, string) (string, error)
}

func (s *suggestionClientStub) SuggestPlans(ctx context.Context, title string) ([]string, error) {
	return s.suggestPlansFn(ctx, title)
}
func (s *suggestionClientStub) ConvertToTitle(ctx context.Context, planText string) (string, error) {
	return s.convertToTitleFn(ctx, planText)
}
