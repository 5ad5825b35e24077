package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/access"
	"github.com/storewatch/backend/internal/database"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/pkg/utils"
)

type profileMap map[uuid.UUID]*models.UserProfile

func (p profileMap) FindByID(_ context.Context, id uuid.UUID) (*models.UserProfile, error) {
	profile, ok := p[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return profile, nil
}

type authFixture struct {
	app      *fiber.App
	jwt      *utils.JWTManager
	sessions *database.SessionStore
	user     *models.UserProfile
	admin    *models.UserProfile
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	policy, err := access.NewPolicy()
	require.NoError(t, err)

	f := &authFixture{
		jwt:      utils.NewJWTManager("test-secret", 1, "storewatch-test"),
		sessions: database.NewSessionStore(client),
		user:     &models.UserProfile{ID: uuid.New(), Email: "clerk@example.com", Role: models.RoleUser},
		admin:    &models.UserProfile{ID: uuid.New(), Email: "owner@example.com", Role: models.RoleSuperAdmin},
	}
	profiles := profileMap{f.user.ID: f.user, f.admin.ID: f.admin}
	auth := NewAuthMiddleware(f.jwt, f.sessions, profiles, policy)

	f.app = fiber.New()
	f.app.Use(ActionLogger(ActionLoggerConfig{Enabled: true, Logger: zap.NewNop()}))
	f.app.Get("/me", auth.Authenticate(), func(c *fiber.Ctx) error {
		return c.SendString(CurrentProfile(c).Email)
	})
	f.app.Put("/settings", auth.Authenticate(), auth.RequirePermission(access.ResourceSettings, access.ActionUpdate), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return f
}

func (f *authFixture) token(t *testing.T, profile *models.UserProfile) string {
	t.Helper()
	token, _, err := f.jwt.GenerateToken(profile.ID, profile.Email, string(profile.Role))
	require.NoError(t, err)
	return token
}

func bearer(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("missing token", func(t *testing.T) {
		resp, err := f.app.Test(bearer(http.MethodGet, "/me", ""))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed token", func(t *testing.T) {
		resp, err := f.app.Test(bearer(http.MethodGet, "/me", "not-a-jwt"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token loads profile", func(t *testing.T) {
		resp, err := f.app.Test(bearer(http.MethodGet, "/me", f.token(t, f.user)))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("query token", func(t *testing.T) {
		resp, err := f.app.Test(bearer(http.MethodGet, "/me?token="+f.token(t, f.user), ""))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("revoked token", func(t *testing.T) {
		token := f.token(t, f.user)
		require.NoError(t, f.sessions.BlacklistToken(context.Background(), token, time.Hour))

		resp, err := f.app.Test(bearer(http.MethodGet, "/me", token))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("deleted profile", func(t *testing.T) {
		ghost := &models.UserProfile{ID: uuid.New(), Email: "ghost@example.com", Role: models.RoleUser}
		resp, err := f.app.Test(bearer(http.MethodGet, "/me", f.token(t, ghost)))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRequirePermission(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.app.Test(bearer(http.MethodPut, "/settings", f.token(t, f.user)))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = f.app.Test(bearer(http.MethodPut, "/settings", f.token(t, f.admin)))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
