package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/events"
	"github.com/spec-kit/ticket-sync/internal/repository"
	"github.com/spec-kit/ticket-sync/internal/sla"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

// TicketService coordinates ticket read and write workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	people     *PersonService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	PersonService *PersonService
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		people:     deps.PersonService,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// TicketCreateInput describes ticket creation payload. Optional fields keep
// their documented defaults when empty.
type TicketCreateInput struct {
	ExternalKey     string
	RequesterName   string
	RequesterEmail  string
	RequesterRegion string
	ManagerName     string
	StartTime       string
	EndTime         string
	Status          string
	SLA             string
}

// TicketUpdateInput carries the updatable subset; nil leaves a field at its
// existing value.
type TicketUpdateInput struct {
	Status    *string
	StartTime *string
	EndTime   *string
	SLA       *string
}

// ListQuery is the raw, request-scoped filter set.
type ListQuery struct {
	Email string
	Role  *int

	TicketIDs       []string
	ExternalKeys    []string
	RequesterNames  []string
	RequesterEmails []string
	ManagerNames    []string
	Regions         []string
	Statuses        []string
	StartTime       *string
	EndTime         *string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	UpdatedFrom     *time.Time
	UpdatedTo       *time.Time
	Search          string

	Page     int
	PageSize int
}

// ListMetrics is the aggregate block returned with every page.
type ListMetrics struct {
	TotalTickets    int64
	AssignedTickets int64
	ClosedTickets   int64
	Tiers           sla.TierCounts
}

// ListResult is a visibility-scoped, paginated read with per-record SLA
// snapshots and aggregate metrics.
type ListResult struct {
	Tickets     []domain.Ticket
	Snapshots   []sla.Snapshot
	Total       int64
	TotalPages  int
	CurrentPage int
	Role        int
	Metrics     ListMetrics
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CreateTicket persists a new ticket. The identifier is allocated inside the
// repository transaction; creation is all-or-nothing.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if input.RequesterEmail != "" && !emailPattern.MatchString(input.RequesterEmail) {
		return nil, apperrors.NewValidationError("invalid requester email", map[string]any{"field": "requesterEmail"})
	}

	now := s.now()
	stamp := sla.FormatSourceTime(now)
	instant := now.In(sla.SourceZone)

	ticket := &domain.Ticket{
		ExternalKey:     input.ExternalKey,
		RequesterName:   input.RequesterName,
		RequesterEmail:  input.RequesterEmail,
		RequesterRegion: input.RequesterRegion,
		ManagerName:     input.ManagerName,
		Status:          input.Status,
		StartTime:       defaultIfEmpty(input.StartTime, "00:00:00"),
		EndTime:         defaultIfEmpty(input.EndTime, "00:00:00"),
		PauseTime:       "00:00:00",
		SLA:             input.SLA,
		Created:         stamp,
		Updated:         stamp,
		CreatedTS:       &instant,
		UpdatedTS:       &instant,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		Type: events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{
			TicketID:    ticket.TicketID,
			ExternalKey: ticket.ExternalKey,
		},
	})
	return ticket, nil
}

// UpdateTicket applies a partial update to the ticket carrying the external
// key. An update naming no fields is rejected as a no-op error. A status
// change publishes the write-back event after the store commit.
func (s *TicketService) UpdateTicket(ctx context.Context, externalKey string, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.Status == nil && input.StartTime == nil && input.EndTime == nil && input.SLA == nil {
		return nil, apperrors.NewValidationError(
			"at least one of status, startTime, endTime or sla is required", nil)
	}

	ticket, err := s.tickets.GetByExternalKey(ctx, externalKey)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	oldStatus := ticket.Status
	if input.Status != nil {
		ticket.Status = *input.Status
	}
	if input.StartTime != nil {
		ticket.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		ticket.EndTime = *input.EndTime
	}
	if input.SLA != nil {
		ticket.SLA = *input.SLA
	}

	now := s.now()
	instant := now.In(sla.SourceZone)
	ticket.Updated = sla.FormatSourceTime(now)
	ticket.UpdatedTS = &instant

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.Status != nil && *input.Status != oldStatus {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type: events.EventTicketStatusChanged,
			Payload: events.TicketStatusChangedPayload{
				TicketID:    ticket.TicketID,
				ExternalKey: ticket.ExternalKey,
				OldStatus:   oldStatus,
				NewStatus:   ticket.Status,
			},
		})
	}
	return ticket, nil
}

// GetTicket fetches a single ticket by its allocated identifier, enforcing
// requester visibility, and attaches its SLA snapshot.
func (s *TicketService) GetTicket(ctx context.Context, caller ListQuery, ticketID string) (*domain.Ticket, sla.Snapshot, error) {
	role, err := s.resolveRole(ctx, caller.Email, caller.Role)
	if err != nil {
		return nil, sla.Snapshot{}, err
	}

	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, sla.Snapshot{}, apperrors.MapError(err)
	}
	if role == domain.RoleRequester && ticket.RequesterEmail != caller.Email {
		return nil, sla.Snapshot{}, apperrors.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
	}
	return ticket, sla.Compute(ticket.Updated, s.now()), nil
}

// List executes the composed, visibility-scoped, paginated read plus its
// aggregate counts.
func (s *TicketService) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	if query.Email == "" {
		return nil, apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}

	role, err := s.resolveRole(ctx, query.Email, query.Role)
	if err != nil {
		return nil, err
	}

	// Scope filter: visibility plus region, without the caller's ad-hoc
	// predicates. The status aggregates stay meaningful denominators no
	// matter what the caller is currently viewing.
	scope := repository.TicketFilter{Regions: query.Regions}
	if role == domain.RoleRequester {
		scope.RequesterEmails = []string{query.Email}

		visible, err := s.tickets.Count(ctx, repository.TicketFilter{RequesterEmails: scope.RequesterEmails})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if visible == 0 {
			return nil, apperrors.NewNotFound("tickets for this user", map[string]any{"email": query.Email})
		}
	}

	filter := repository.TicketFilter{
		TicketIDs:       query.TicketIDs,
		ExternalKeys:    query.ExternalKeys,
		RequesterNames:  query.RequesterNames,
		RequesterEmails: query.RequesterEmails,
		ManagerNames:    query.ManagerNames,
		Regions:         query.Regions,
		Statuses:        query.Statuses,
		StartTime:       query.StartTime,
		EndTime:         query.EndTime,
		CreatedFrom:     query.CreatedFrom,
		CreatedTo:       query.CreatedTo,
		UpdatedFrom:     query.UpdatedFrom,
		UpdatedTo:       query.UpdatedTo,
	}
	if query.Search != "" {
		search := query.Search
		filter.SearchTerm = &search
	}
	if role == domain.RoleRequester {
		// Visibility overrides any requester-email filter the caller sent.
		filter.RequesterEmails = []string{query.Email}
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	assigned, err := s.countWithStatus(ctx, scope, domain.StatusAssigned)
	if err != nil {
		return nil, err
	}
	closed, err := s.countWithStatus(ctx, scope, domain.StatusClosed)
	if err != nil {
		return nil, err
	}

	now := s.now()
	snapshots := make([]sla.Snapshot, len(tickets))
	for i := range tickets {
		snapshots[i] = sla.Compute(tickets[i].Updated, now)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &ListResult{
		Tickets:     tickets,
		Snapshots:   snapshots,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Role:        role,
		Metrics: ListMetrics{
			TotalTickets:    total,
			AssignedTickets: assigned,
			ClosedTickets:   closed,
			Tiers:           sla.TallyTiers(snapshots),
		},
	}, nil
}

func (s *TicketService) countWithStatus(ctx context.Context, scope repository.TicketFilter, status string) (int64, error) {
	scoped := scope
	scoped.Statuses = []string{status}
	count, err := s.tickets.Count(ctx, scoped)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// resolveRole prefers the explicit role parameter; otherwise the person
// collection decides. Unknown callers are scoped as requesters.
func (s *TicketService) resolveRole(ctx context.Context, email string, explicit *int) (int, error) {
	if explicit != nil {
		switch *explicit {
		case domain.RoleManager, domain.RoleRequester, domain.RoleCoordinator:
			return *explicit, nil
		default:
			return 0, apperrors.NewValidationError("invalid role specified", map[string]any{"field": "role"})
		}
	}
	role, err := s.people.ResolveRole(ctx, email)
	if err != nil {
		s.logger.Debug("role lookup fell back to requester scope",
			zap.String("email", email), zap.Error(err))
		return domain.RoleRequester, nil
	}
	return role, nil
}

func defaultIfEmpty(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}
