package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sync/internal/domain"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

const principalKey = "principal"

// Middleware extracts and verifies the bearer token, storing the claims for
// downstream handlers.
func Middleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperrors.NewUnauthorized("missing authorization header")
		}
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			return apperrors.NewUnauthorized("malformed authorization header")
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			return err
		}
		c.Locals(principalKey, claims)
		return c.Next()
	}
}

// OptionalMiddleware verifies a bearer token when one is present but lets
// anonymous requests through. Handlers fall back to query identity.
func OptionalMiddleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if raw, found := strings.CutPrefix(header, "Bearer "); found && raw != "" {
			if claims, err := tokens.Verify(raw); err == nil {
				c.Locals(principalKey, claims)
			}
		}
		return c.Next()
	}
}

// Principal returns the verified claims for the request, or nil when the
// route is not behind the auth middleware.
func Principal(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(principalKey).(*Claims)
	return claims
}

// RequireManager rejects callers whose token does not carry the manager role.
func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Principal(c)
		if claims == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if claims.Role != domain.RoleManager {
			return apperrors.NewForbidden("manager role required")
		}
		return c.Next()
	}
}
