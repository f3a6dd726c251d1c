package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"doneby/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param string
		want  string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"videoId", "video ID"},
		{"entryId", "entry ID"},
		{"slug", "slug"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeParam(tt.param))
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = parsePagination(c, 20)
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name   string
		query  string
		limit  int
		offset int
	}{
		{"defaults", "", 20, 0},
		{"explicit", "?limit=5&offset=10", 5, 10},
		{"negative clamped", "?limit=-1&offset=-5", 20, 0},
		{"capped at max", "?limit=1000", maxPaginationLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			_, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.limit, got.Limit)
			assert.Equal(t, tt.offset, got.Offset)
		})
	}
}

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/42", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/items/abc", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/items/0", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRespondServiceErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", models.NewValidationError("bad input"), http.StatusBadRequest},
		{"not found", models.NewNotFoundError("Entry", 1), http.StatusNotFound},
		{"unauthorized", models.NewUnauthorizedError("not yours"), http.StatusForbidden},
		{"external", models.NewExternalError("suggestions", assert.AnError), http.StatusBadGateway},
		{"internal", models.NewInternalError(assert.AnError), http.StatusInternalServerError},
		{"plain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondServiceError(c, tt.err)
			})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
