package repository

import (
	"context"
	"errors"
	"time"

	"doneby/internal/cache"
	"doneby/internal/models"

	"gorm.io/gorm"
)

// ErrPendingEntryExists is returned when a user already has an unachieved
// entry; the partial unique index on (user_id) WHERE achieved_at IS NULL
// enforces this at the storage level.
var ErrPendingEntryExists = errors.New("user already has a pending entry")

// EntryRepository defines persistence operations for action-plan entries.
type EntryRepository interface {
	Create(ctx context.Context, entry *models.Entry) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Entry, error)
	GetPendingByUser(ctx context.Context, userID uint) (*models.Entry, error)
	ListRecent(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Entry, error)
	ListAchieved(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Entry, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Entry, error)
	ListByVideo(ctx context.Context, videoID uint, limit, offset int, currentUserID uint) ([]*models.Entry, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	CountByVideo(ctx context.Context, videoID uint) (int64, error)
	AchievedDates(ctx context.Context, userID uint) ([]time.Time, error)
}

type entryRepository struct {
	db *gorm.DB
}

// NewEntryRepository returns a new EntryRepository implementation.
func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) Create(ctx context.Context, entry *models.Entry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrPendingEntryExists
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateFeed(ctx)
	cache.InvalidateRankings(ctx)
	return nil
}

func (r *entryRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Entry, error) {
	var entry models.Entry
	err := r.applyEntryDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("Video").
		First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Entry", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

// GetPendingByUser returns the user's unachieved entry, or nil when the user
// has none. At most one can exist.
func (r *entryRepository) GetPendingByUser(ctx context.Context, userID uint) (*models.Entry, error) {
	var entry models.Entry
	err := r.applyEntryDetails(r.db.WithContext(ctx), userID).
		Preload("Video").
		Where("user_id = ? AND achieved_at IS NULL", userID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

func (r *entryRepository) ListRecent(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	return r.list(ctx, currentUserID, limit, offset, func(db *gorm.DB) *gorm.DB {
		return db.Order("entries.created_at DESC")
	})
}

// ListAchieved returns the achievement feed, most recently achieved first.
func (r *entryRepository) ListAchieved(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	return r.list(ctx, currentUserID, limit, offset, func(db *gorm.DB) *gorm.DB {
		return db.Where("entries.achieved_at IS NOT NULL").Order("entries.achieved_at DESC")
	})
}

func (r *entryRepository) ListByUser(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	return r.list(ctx, currentUserID, limit, offset, func(db *gorm.DB) *gorm.DB {
		return db.Where("entries.user_id = ?", userID).Order("entries.created_at DESC")
	})
}

func (r *entryRepository) ListByVideo(ctx context.Context, videoID uint, limit, offset int, currentUserID uint) ([]*models.Entry, error) {
	return r.list(ctx, currentUserID, limit, offset, func(db *gorm.DB) *gorm.DB {
		return db.Where("entries.video_id = ?", videoID).Order("entries.created_at DESC")
	})
}

func (r *entryRepository) list(ctx context.Context, currentUserID uint, limit, offset int, scope func(*gorm.DB) *gorm.DB) ([]*models.Entry, error) {
	var entries []*models.Entry
	err := scope(r.applyEntryDetails(r.db.WithContext(ctx), currentUserID)).
		Preload("User").
		Preload("Video").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

// UpdateFields applies the given column set in a single UPDATE so lifecycle
// transitions (achieve, revert, retarget) are atomic.
func (r *entryRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Entry{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return ErrPendingEntryExists
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Entry", id)
	}
	cache.InvalidateEntry(ctx, id)
	cache.InvalidateFeed(ctx)
	return nil
}

func (r *entryRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Entry{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateEntry(ctx, id)
	cache.InvalidateFeed(ctx)
	cache.InvalidateRankings(ctx)
	return nil
}

func (r *entryRepository) CountByVideo(ctx context.Context, videoID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("video_id = ?", videoID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// AchievedDates returns achievement timestamps for streak calculation, most
// recent first.
func (r *entryRepository) AchievedDates(ctx context.Context, userID uint) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("user_id = ? AND achieved_at IS NOT NULL", userID).
		Order("achieved_at DESC").
		Pluck("achieved_at", &dates).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return dates, nil
}

// applyEntryDetails adds subqueries to fetch like counts and liked status in a
// single query.
func (r *entryRepository) applyEntryDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "entries.*, " +
		"(SELECT COUNT(*) FROM entry_likes WHERE entry_likes.entry_id = entries.id) as likes_count"

	if currentUserID != 0 {
		return db.Model(&models.Entry{}).
			Select(selectQuery+", EXISTS(SELECT 1 FROM entry_likes WHERE entry_likes.entry_id = entries.id AND entry_likes.user_id = ?) as liked", currentUserID)
	}
	return db.Model(&models.Entry{}).Select(selectQuery + ", false as liked")
}
