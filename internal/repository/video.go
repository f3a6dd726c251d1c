package repository

import (
	"context"
	"errors"

	"doneby/internal/cache"
	"doneby/internal/models"
	"doneby/internal/observability"

	"gorm.io/gorm"
)

// VideoRepository defines persistence operations for the video catalog.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id uint) (*models.Video, error)
	GetByYoutubeID(ctx context.Context, youtubeID string) (*models.Video, error)
	Update(ctx context.Context, video *models.Video) error
	UpdateSuggestedPlans(ctx context.Context, id uint, plansJSON string) error
	DeleteIfOrphaned(ctx context.Context, id uint) (bool, error)
	PopularChannels(ctx context.Context, limit int) ([]models.ChannelRanking, error)
	ByEntryCount(ctx context.Context, limit, offset int) ([]*models.Video, error)
}

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository returns a new VideoRepository implementation.
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Video already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	err := r.applyVideoDetails(r.db.WithContext(ctx)).First(&video, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Video", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &video, nil
}

func (r *videoRepository) GetByYoutubeID(ctx context.Context, youtubeID string) (*models.Video, error) {
	var video models.Video
	err := r.applyVideoDetails(r.db.WithContext(ctx)).
		Where("youtube_id = ?", youtubeID).
		First(&video).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &video, nil
}

func (r *videoRepository) Update(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Save(video).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateVideo(ctx, video.ID)
	return nil
}

// UpdateSuggestedPlans stores the cached suggestion payload without touching
// other columns, so concurrent metadata enrichment cannot be clobbered.
func (r *videoRepository) UpdateSuggestedPlans(ctx context.Context, id uint, plansJSON string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Update("suggested_plans", plansJSON).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateVideo(ctx, id)
	return nil
}

// DeleteIfOrphaned removes the video when no entry references it anymore. The
// count and the delete run in one transaction so a concurrent entry creation
// cannot slip between them. Returns whether a row was deleted.
func (r *videoRepository) DeleteIfOrphaned(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Entry{}).Where("video_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		res := tx.Delete(&models.Video{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if deleted {
		observability.OrphanVideosDeleted.Inc()
		cache.InvalidateVideo(ctx, id)
		cache.InvalidateRankings(ctx)
	}
	return deleted, nil
}

// PopularChannels aggregates channels by how many entries their videos
// attracted. Videos whose metadata enrichment never ran fall into a single
// "unknown" bucket rather than being dropped.
func (r *videoRepository) PopularChannels(ctx context.Context, limit int) ([]models.ChannelRanking, error) {
	var rankings []models.ChannelRanking
	err := cache.Aside(ctx, cache.ChannelRankKey, &rankings, cache.RankTTL, func() error {
		return r.db.WithContext(ctx).
			Model(&models.Video{}).
			Select("CASE WHEN videos.channel_id = '' THEN 'unknown' ELSE videos.channel_id END as channel_id, " +
				"MAX(CASE WHEN videos.channel_name = '' THEN 'unknown' ELSE videos.channel_name END) as channel_name, " +
				"COUNT(DISTINCT videos.id) as video_count, COUNT(entries.id) as entry_count").
			Joins("JOIN entries ON entries.video_id = videos.id").
			Group("CASE WHEN videos.channel_id = '' THEN 'unknown' ELSE videos.channel_id END").
			Order("entry_count DESC").
			Limit(limit).
			Scan(&rankings).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rankings, nil
}

// ByEntryCount lists catalog videos ordered by how many entries target them.
func (r *videoRepository) ByEntryCount(ctx context.Context, limit, offset int) ([]*models.Video, error) {
	var videos []*models.Video
	err := r.applyVideoDetails(r.db.WithContext(ctx)).
		Order("entries_count DESC, videos.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&videos).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return videos, nil
}

// applyVideoDetails adds subqueries to fetch counts in a single query.
func (r *videoRepository) applyVideoDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Video{}).Select("videos.*, " +
		"(SELECT COUNT(*) FROM cheers WHERE cheers.video_id = videos.id) as cheers_count, " +
		"(SELECT COUNT(*) FROM entries WHERE entries.video_id = videos.id) as entries_count")
}
