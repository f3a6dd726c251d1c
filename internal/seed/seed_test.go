package seed

import (
	"testing"

	"doneby/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Video{}, &models.Entry{},
		&models.EntryLike{}, &models.Cheer{},
	))
	return db
}

func TestDemoVideosParse(t *testing.T) {
	videos, err := DemoVideos()
	require.NoError(t, err)
	require.NotEmpty(t, videos)

	for _, v := range videos {
		assert.Len(t, v.YoutubeID, 11)
		assert.NotEmpty(t, v.Title)
		assert.Contains(t, v.URL, v.YoutubeID)
		assert.NotEmpty(t, v.ChannelID)
	}
}

func TestSeedPopulatesAllTables(t *testing.T) {
	db := setupTestDB(t)

	err := Seed(db, Options{NumUsers: 5, NumEntries: 20})
	require.NoError(t, err)

	var users, videos, entries int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Video{}).Count(&videos).Error)
	require.NoError(t, db.Model(&models.Entry{}).Count(&entries).Error)

	assert.Equal(t, int64(5), users)
	assert.GreaterOrEqual(t, videos, int64(8))
	assert.Equal(t, int64(20), entries)
}

func TestSeedKeepsAtMostOnePendingPerUser(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Seed(db, Options{NumUsers: 4, NumEntries: 40}))

	type row struct {
		UserID uint
		N      int64
	}
	var rows []row
	require.NoError(t, db.Model(&models.Entry{}).
		Select("user_id, COUNT(*) as n").
		Where("achieved_at IS NULL").
		Group("user_id").
		Scan(&rows).Error)

	for _, r := range rows {
		assert.LessOrEqual(t, r.N, int64(1), "user %d has %d pending entries", r.UserID, r.N)
	}
}

func TestSeedIsIdempotentForVideos(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Seed(db, Options{NumUsers: 1, NumEntries: 1}))
	require.NoError(t, Seed(db, Options{NumUsers: 1, NumEntries: 1}))

	var videos int64
	require.NoError(t, db.Model(&models.Video{}).Count(&videos).Error)
	assert.Equal(t, int64(8), videos)
}
