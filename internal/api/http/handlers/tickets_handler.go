package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sync/internal/api/dto"
	"github.com/spec-kit/ticket-sync/internal/auth"
	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/service"
	"github.com/spec-kit/ticket-sync/internal/sla"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RequesterName == "" || req.RequesterEmail == "" {
		return apperrors.NewValidationError("requester_name and requester_email required", nil)
	}

	input := service.TicketCreateInput{
		ExternalKey:     req.ExternalKey,
		RequesterName:   req.RequesterName,
		RequesterEmail:  req.RequesterEmail,
		RequesterRegion: req.RequesterRegion,
		ManagerName:     req.ManagerName,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Status:          req.Status,
		SLA:             req.SLA,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	snapshot := sla.Compute(ticket.Updated, time.Now())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    ticketResponse(ticket, snapshot),
	})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	query, err := parseListQuery(c)
	if err != nil {
		return err
	}
	result, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(result.Tickets))
	for i := range result.Tickets {
		items = append(items, ticketResponse(&result.Tickets[i], result.Snapshots[i]))
	}
	return c.JSON(dto.TicketListResponse{
		Success:     true,
		Count:       len(items),
		Total:       result.Total,
		TotalPages:  result.TotalPages,
		CurrentPage: result.CurrentPage,
		Role:        result.Role,
		Data:        items,
		Metrics: dto.ListMetricsResponse{
			TotalTickets:    result.Metrics.TotalTickets,
			AssignedTickets: result.Metrics.AssignedTickets,
			ClosedTickets:   result.Metrics.ClosedTickets,
			SLATiers: dto.TierCountsResponse{
				Normal:   result.Metrics.Tiers.Normal,
				Critical: result.Metrics.Tiers.Critical,
				Breached: result.Metrics.Tiers.Breached,
			},
		},
	})
}

// GetTicket GET /tickets/:ticketID.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller := service.ListQuery{Email: strings.TrimSpace(c.Query("email"))}
	if claims := auth.Principal(c); claims != nil && caller.Email == "" {
		caller.Email = claims.Email
		role := claims.Role
		caller.Role = &role
	}
	if caller.Email == "" {
		return apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	if role, ok, err := parseRole(c.Query("role")); err != nil {
		return err
	} else if ok {
		caller.Role = &role
	}

	ticket, snapshot, err := h.service.GetTicket(c.UserContext(), caller, c.Params("ticketID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ticketResponse(ticket, snapshot),
	})
}

// UpdateTicket PATCH /tickets/:externalKey.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), c.Params("externalKey"), service.TicketUpdateInput{
		Status:    req.Status,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		SLA:       req.SLA,
	})
	if err != nil {
		return err
	}
	snapshot := sla.Compute(ticket.Updated, time.Now())
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ticketResponse(ticket, snapshot),
	})
}

func parseListQuery(c *fiber.Ctx) (service.ListQuery, error) {
	query := service.ListQuery{
		Email:  strings.TrimSpace(c.Query("email")),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if claims := auth.Principal(c); claims != nil && query.Email == "" {
		query.Email = claims.Email
		role := claims.Role
		query.Role = &role
	}
	if role, ok, err := parseRole(c.Query("role")); err != nil {
		return query, err
	} else if ok {
		query.Role = &role
	}

	query.TicketIDs = parseList(c.Query("ticket_id"))
	query.ExternalKeys = parseList(c.Query("external_key"))
	query.RequesterNames = parseList(c.Query("requester_name"))
	query.RequesterEmails = parseList(c.Query("requester_email"))
	query.ManagerNames = parseList(c.Query("manager_name"))
	query.Regions = parseList(c.Query("region"))
	query.Statuses = parseList(c.Query("status"))

	if v := strings.TrimSpace(c.Query("start_time")); v != "" {
		query.StartTime = &v
	}
	if v := strings.TrimSpace(c.Query("end_time")); v != "" {
		query.EndTime = &v
	}
	query.CreatedFrom = parseTimeQuery(c.Query("created_from"))
	query.CreatedTo = parseTimeQuery(c.Query("created_to"))
	query.UpdatedFrom = parseTimeQuery(c.Query("updated_from"))
	query.UpdatedTo = parseTimeQuery(c.Query("updated_to"))

	query.Page = parseInt(c.Query("page"), 0)
	query.PageSize = parseInt(c.Query("page_size"), 0)
	return query, nil
}

// parseRole distinguishes an absent role parameter from an unparseable one.
func parseRole(raw string) (int, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	role, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, apperrors.NewValidationError("role must be numeric", map[string]any{"field": "role"})
	}
	return role, true, nil
}

// parseList splits a comma separated query value into trimmed entries.
func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// parseTimeQuery accepts RFC 3339 or the feed's own timestamp layout.
func parseTimeQuery(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := sla.ParseSourceTime(raw); err == nil {
		return &t
	}
	return nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket, snapshot sla.Snapshot) dto.TicketResponse {
	return dto.TicketResponse{
		TicketID:        ticket.TicketID,
		ExternalKey:     ticket.ExternalKey,
		RequesterName:   ticket.RequesterName,
		RequesterEmail:  ticket.RequesterEmail,
		RequesterRegion: ticket.RequesterRegion,
		ManagerName:     ticket.ManagerName,
		Status:          ticket.Status,
		StartTime:       ticket.StartTime,
		EndTime:         ticket.EndTime,
		PauseTime:       ticket.PauseTime,
		SLA:             ticket.SLA,
		Created:         ticket.Created,
		Updated:         ticket.Updated,
		Deadline:        snapshot.DeadlineText,
		Countdown:       snapshot.Countdown,
		Tier:            string(snapshot.Tier),
		Breached:        snapshot.Breached,
	}
}
