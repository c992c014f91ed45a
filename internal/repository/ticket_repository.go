package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/sequence"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

// TicketFilter captures the composed predicate set for ticket reads. Empty
// lists and nil bounds mean "no filter on this field".
type TicketFilter struct {
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
	SearchTerm      *string
	Limit           int
	Offset          int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error)
	DeleteAll(ctx context.Context) (int64, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_id, external_key, requester_name, requester_email, requester_region,
               manager_name, status, start_time, end_time, pause_time, sla,
               created, updated, created_ts, updated_ts, created_at, updated_at`

// Create allocates the ticket identifier and persists the record in one
// transaction, so no record ever commits without its identifier.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	seq, err := sequence.Next(ctx, tx, sequence.CounterTicket)
	if err != nil {
		return err
	}
	ticket.TicketID = sequence.FormatID(sequence.PrefixTicket, seq)

	const query = `
        INSERT INTO tickets (ticket_id, external_key, requester_name, requester_email, requester_region,
                             manager_name, status, start_time, end_time, pause_time, sla,
                             created, updated, created_ts, updated_ts)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		ticket.TicketID,
		ticket.ExternalKey,
		ticket.RequesterName,
		ticket.RequesterEmail,
		ticket.RequesterRegion,
		ticket.ManagerName,
		ticket.Status,
		ticket.StartTime,
		ticket.EndTime,
		ticket.PauseTime,
		ticket.SLA,
		ticket.Created,
		ticket.Updated,
		ticket.CreatedTS,
		ticket.UpdatedTS,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return mapTicketConstraint(err)
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, start_time=$2, end_time=$3, pause_time=$4, sla=$5,
            updated=$6, updated_ts=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.StartTime,
		ticket.EndTime,
		ticket.PauseTime,
		ticket.SLA,
		ticket.Updated,
		ticket.UpdatedTS,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *ticketRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE external_key=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, key)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// DeleteAll empties the ticket store ahead of a full-replace ingest.
func (r *ticketRepository) DeleteAll(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := buildTicketClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_ts ASC NULLS LAST LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	where, args := buildTicketClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, where)

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// buildTicketClauses composes the WHERE fragment for a filter: exact and
// list-membership predicates, inclusive range bounds, and a case-insensitive
// substring OR across the searchable fields.
func buildTicketClauses(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	appendList := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
	}

	appendList("ticket_id", filter.TicketIDs)
	appendList("external_key", filter.ExternalKeys)
	appendList("requester_name", filter.RequesterNames)
	appendList("requester_email", filter.RequesterEmails)
	appendList("manager_name", filter.ManagerNames)
	appendList("requester_region", filter.Regions)
	appendList("status", filter.Statuses)

	if filter.StartTime != nil {
		args = append(args, *filter.StartTime)
		clauses = append(clauses, fmt.Sprintf("start_time=$%d", len(args)))
	}
	if filter.EndTime != nil {
		args = append(args, *filter.EndTime)
		clauses = append(clauses, fmt.Sprintf("end_time=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_ts >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_ts <= $%d", len(args)))
	}
	if filter.UpdatedFrom != nil {
		args = append(args, *filter.UpdatedFrom)
		clauses = append(clauses, fmt.Sprintf("updated_ts >= $%d", len(args)))
	}
	if filter.UpdatedTo != nil {
		args = append(args, *filter.UpdatedTo)
		clauses = append(clauses, fmt.Sprintf("updated_ts <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		ph := fmt.Sprintf("$%d", len(args))
		searchable := []string{
			"ticket_id", "external_key", "requester_name", "requester_email",
			"manager_name", "requester_region", "status",
		}
		parts := make([]string, len(searchable))
		for i, column := range searchable {
			parts[i] = fmt.Sprintf("LOWER(%s) LIKE %s", column, ph)
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}

	return strings.Join(clauses, " AND "), args
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.ExternalKey,
		&ticket.RequesterName,
		&ticket.RequesterEmail,
		&ticket.RequesterRegion,
		&ticket.ManagerName,
		&ticket.Status,
		&ticket.StartTime,
		&ticket.EndTime,
		&ticket.PauseTime,
		&ticket.SLA,
		&ticket.Created,
		&ticket.Updated,
		&ticket.CreatedTS,
		&ticket.UpdatedTS,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func mapTicketConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperrors.NewConflict("duplicate ticket identifier", "ticketID")
	}
	return err
}
