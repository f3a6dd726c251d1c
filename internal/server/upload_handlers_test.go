package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignUpload(t *testing.T) {
	s, app := setupTestServer(t)
	user := createTestUser(t, s, "uploader")
	token := tokenFor(t, s, user)

	t.Run("issues ticket", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/uploads/presign", token, map[string]string{
			"filename":     "result.jpg",
			"content_type": "image/jpeg",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var ticket struct {
			UploadURL  string `json:"upload_url"`
			StorageKey string `json:"storage_key"`
		}
		decodeBody(t, resp, &ticket)
		assert.True(t, strings.HasPrefix(ticket.StorageKey, "uploads/"))
		assert.True(t, strings.HasSuffix(ticket.StorageKey, ".jpg"))
		assert.Contains(t, ticket.UploadURL, "signature=")
		assert.Contains(t, ticket.UploadURL, ticket.StorageKey)
	})

	t.Run("rejects non-image content type", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/uploads/presign", token, map[string]string{
			"filename":     "script.sh",
			"content_type": "application/x-sh",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/uploads/presign", token, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("requires auth", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/uploads/presign", "", map[string]string{
			"filename":     "result.jpg",
			"content_type": "image/jpeg",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
