package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", 2, "storewatch")
	id := uuid.New()

	token, expiresAt, err := m.GenerateToken(id, "a@example.com", "superadmin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), expiresAt, time.Minute)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "superadmin", claims.Role)
	assert.InDelta(t, (2 * time.Hour).Seconds(), m.RemainingValidity(claims).Seconds(), 60)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", 1, "storewatch")
	token, _, err := m.GenerateToken(uuid.New(), "a@example.com", "user")
	require.NoError(t, err)

	_, err = NewJWTManager("other", 1, "storewatch").ValidateToken(token)
	assert.Error(t, err)

	_, err = NewJWTManager("secret", 1, "someone-else").ValidateToken(token)
	assert.Error(t, err)

	expired := NewJWTManager("secret", -1, "storewatch")
	old, _, err := expired.GenerateToken(uuid.New(), "a@example.com", "user")
	require.NoError(t, err)
	_, err = m.ValidateToken(old)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword("hunter22", hash))
	assert.False(t, CheckPassword("hunter23", hash))
}

func TestErrorResponse_Codes(t *testing.T) {
	app := fiber.New()
	app.Get("/generic", func(c *fiber.Ctx) error {
		return ErrorResponse(c, fiber.StatusNotFound, "Incident not found")
	})
	app.Get("/coded", func(c *fiber.Ctx) error {
		return CodedErrorResponse(c, fiber.StatusBadRequest, CodeInsufficientEvidence, "add a description, photo or audio")
	})

	decode := func(path string) (int, Response) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		var body Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	status, body := decode("/generic")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, body.Success)
	assert.Equal(t, CodeNotFound, body.Code)
	assert.Equal(t, "Incident not found", body.Error)

	status, body = decode("/coded")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, CodeInsufficientEvidence, body.Code)
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, CodeUnauthorized, CodeForStatus(fiber.StatusUnauthorized))
	assert.Equal(t, CodePayloadTooLarge, CodeForStatus(fiber.StatusRequestEntityTooLarge))
	assert.Equal(t, CodeBadRequest, CodeForStatus(fiber.StatusMethodNotAllowed))
	assert.Equal(t, CodeInternal, CodeForStatus(fiber.StatusInternalServerError))
}

func TestPaginatedSuccessResponse_TotalPages(t *testing.T) {
	tests := []struct {
		limit int
		total int64
		want  int
	}{
		{limit: 20, total: 0, want: 0},
		{limit: 20, total: 20, want: 1},
		{limit: 20, total: 21, want: 2},
		{limit: 0, total: 5, want: 0},
	}
	for _, tt := range tests {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			return PaginatedSuccessResponse(c, []string{}, 1, tt.limit, tt.total)
		})
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		var body PaginatedResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, tt.want, body.TotalPages, "limit=%d total=%d", tt.limit, tt.total)
	}
}
