package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sync/internal/api/dto"
	"github.com/spec-kit/ticket-sync/internal/auth"
	"github.com/spec-kit/ticket-sync/internal/service"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

// AuthHandler issues session tokens for registered people.
type AuthHandler struct {
	people *service.PersonService
	tokens *auth.TokenManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(people *service.PersonService, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{people: people, tokens: tokens}
}

// Token POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", map[string]any{"field": "email"})
	}

	person, err := h.people.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		return apperrors.MapError(err)
	}
	token, err := h.tokens.Issue(person)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.TokenResponse{Token: token, Role: person.Role},
	})
}
