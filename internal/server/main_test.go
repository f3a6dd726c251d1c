package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"doneby/internal/cache"
	"doneby/internal/config"
	"doneby/internal/database"
	"doneby/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test_secret",
		Port:              "0",
		FeatureFlags:      "ai_suggestions=on,thumbnail_generation=off",
		StorageBaseURL:    "http://storage.test",
		StorageBucket:     "doneby",
		StorageSigningKey: "test-signing-key",
	}
}

// setupTestServer builds a full server over an in-memory database with no
// Redis and no external collaborators configured.
func setupTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	// Package-level cache client leaks between tests otherwise
	cache.SetClient(nil)

	s, err := NewServerWithDeps(testConfig(), db, nil)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func createTestUser(t *testing.T, s *Server, username string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func tokenFor(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return token
}

// doJSON performs a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, app *fiber.App, method, target, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}
