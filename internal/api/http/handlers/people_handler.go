package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sync/internal/api/dto"
	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/service"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

// PeopleHandler manages person registration endpoints.
type PeopleHandler struct {
	service *service.PersonService
}

// NewPeopleHandler constructs handler.
func NewPeopleHandler(personService *service.PersonService) *PeopleHandler {
	return &PeopleHandler{service: personService}
}

// Register POST /people.
func (h *PeopleHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterPersonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	person, err := h.service.Register(c.UserContext(), service.PersonRegisterInput{
		Kind:       domain.PersonKind(req.Kind),
		Name:       req.Name,
		JiraUserID: req.JiraUserID,
		Email:      req.Email,
		Region:     req.Region,
		Role:       req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    personResponse(person),
	})
}

func personResponse(person *domain.Person) dto.PersonResponse {
	return dto.PersonResponse{
		PersonID:   person.PersonID,
		Kind:       string(person.Kind),
		Name:       person.Name,
		JiraUserID: person.JiraUserID,
		Email:      person.Email,
		Region:     person.Region,
		Role:       person.Role,
	}
}
