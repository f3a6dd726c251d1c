package repository

import (
	"testing"

	"doneby/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Video{},
		&models.Entry{},
		&models.EntryLike{},
		&models.Cheer{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Password: "hashed"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestVideo(t *testing.T, db *gorm.DB, youtubeID string) *models.Video {
	t.Helper()
	video := &models.Video{
		YoutubeID: youtubeID,
		URL:       "https://www.youtube.com/watch?v=" + youtubeID,
		Title:     "Video " + youtubeID,
	}
	require.NoError(t, db.Create(video).Error)
	return video
}
