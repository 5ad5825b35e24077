package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/storewatch/backend/internal/access"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/pkg/utils"
)

// TokenRevocations reports whether a token was revoked at logout.
type TokenRevocations interface {
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

// ProfileLoader loads the caller's profile with its assigned branches.
type ProfileLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
}

type AuthMiddleware struct {
	jwtManager  *utils.JWTManager
	revocations TokenRevocations
	profiles    ProfileLoader
	policy      *access.Policy
}

func NewAuthMiddleware(jwtManager *utils.JWTManager, revocations TokenRevocations, profiles ProfileLoader, policy *access.Policy) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:  jwtManager,
		revocations: revocations,
		profiles:    profiles,
		policy:      policy,
	}
}

func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		authHeader := c.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		// Export links are opened directly by the browser
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing authorization token")
		}

		isBlacklisted, err := m.revocations.IsTokenBlacklisted(c.UserContext(), token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to validate token")
		}
		if isBlacklisted {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Token has been revoked")
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		profile, err := m.profiles.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return utils.ErrorResponse(c, fiber.StatusUnauthorized, "User no longer exists")
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load user")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("role", string(profile.Role))
		c.Locals("token", token)
		c.Locals("token_claims", claims)
		c.Locals("profile", profile)

		return c.Next()
	}
}

// RequirePermission checks the caller's role against the access policy for resource and action.
func (m *AuthMiddleware) RequirePermission(resource, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile := CurrentProfile(c)
		if profile == nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "User not authenticated")
		}

		allowed, err := m.policy.Allowed(profile.Role, resource, action)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to evaluate permissions")
		}
		if !allowed {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions")
		}

		return c.Next()
	}
}

func CurrentProfile(c *fiber.Ctx) *models.UserProfile {
	profile, _ := c.Locals("profile").(*models.UserProfile)
	return profile
}

func CurrentClaims(c *fiber.Ctx) *utils.JWTClaims {
	claims, _ := c.Locals("token_claims").(*utils.JWTClaims)
	return claims
}

func CurrentToken(c *fiber.Ctx) string {
	token, _ := c.Locals("token").(string)
	return token
}
