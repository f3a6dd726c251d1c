package repository

import (
	"context"

	"doneby/internal/cache"
	"doneby/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository records likes on entries and cheers on videos. Both are
// toggles: the same call adds the mark when absent and removes it when
// present.
type EngagementRepository interface {
	ToggleLike(ctx context.Context, userID, entryID uint) (liked bool, count int64, err error)
	ToggleCheer(ctx context.Context, userID, videoID uint) (cheered bool, count int64, err error)
	IsLiked(ctx context.Context, userID, entryID uint) (bool, error)
	HasCheered(ctx context.Context, userID, videoID uint) (bool, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository returns a new EngagementRepository implementation.
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// ToggleLike inserts with ON CONFLICT DO NOTHING so concurrent double-taps are
// race-free: exactly one of two racing inserts lands, and a toggle that loses
// the race falls through to the delete branch.
func (r *engagementRepository) ToggleLike(ctx context.Context, userID, entryID uint) (bool, int64, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.EntryLike{UserID: userID, EntryID: entryID})
	if res.Error != nil {
		return false, 0, models.NewInternalError(res.Error)
	}

	liked := res.RowsAffected > 0
	if !liked {
		// Already liked; the toggle removes it.
		err := r.db.WithContext(ctx).
			Where("user_id = ? AND entry_id = ?", userID, entryID).
			Delete(&models.EntryLike{}).Error
		if err != nil {
			return false, 0, models.NewInternalError(err)
		}
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EntryLike{}).
		Where("entry_id = ?", entryID).
		Count(&count).Error
	if err != nil {
		return liked, 0, models.NewInternalError(err)
	}

	cache.InvalidateEntry(ctx, entryID)
	return liked, count, nil
}

// ToggleCheer mirrors ToggleLike for videos.
func (r *engagementRepository) ToggleCheer(ctx context.Context, userID, videoID uint) (bool, int64, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Cheer{UserID: userID, VideoID: videoID})
	if res.Error != nil {
		return false, 0, models.NewInternalError(res.Error)
	}

	cheered := res.RowsAffected > 0
	if !cheered {
		err := r.db.WithContext(ctx).
			Where("user_id = ? AND video_id = ?", userID, videoID).
			Delete(&models.Cheer{}).Error
		if err != nil {
			return false, 0, models.NewInternalError(err)
		}
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Cheer{}).
		Where("video_id = ?", videoID).
		Count(&count).Error
	if err != nil {
		return cheered, 0, models.NewInternalError(err)
	}

	cache.InvalidateVideo(ctx, videoID)
	cache.InvalidateRankings(ctx)
	return cheered, count, nil
}

func (r *engagementRepository) IsLiked(ctx context.Context, userID, entryID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EntryLike{}).
		Where("user_id = ? AND entry_id = ?", userID, entryID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *engagementRepository) HasCheered(ctx context.Context, userID, videoID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Cheer{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
