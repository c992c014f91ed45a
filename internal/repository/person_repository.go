package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/sequence"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

// PersonRepository defines persistence access for registered people.
type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) error
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
}

type personRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository returns a Postgres-backed implementation.
func NewPersonRepository(pool *pgxpool.Pool) PersonRepository {
	return &personRepository{pool: pool}
}

func counterForKind(kind domain.PersonKind) (name, prefix string) {
	switch kind {
	case domain.KindManager:
		return sequence.CounterManager, sequence.PrefixManager
	case domain.KindCoordinator:
		return sequence.CounterCoordinator, sequence.PrefixCoordinator
	default:
		return sequence.CounterRequester, sequence.PrefixRequester
	}
}

// Create allocates the person identifier and inserts the record in one
// transaction. A uniqueness violation surfaces as a field-identified conflict.
func (r *personRepository) Create(ctx context.Context, person *domain.Person) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	name, prefix := counterForKind(person.Kind)
	seq, err := sequence.Next(ctx, tx, name)
	if err != nil {
		return err
	}
	person.PersonID = sequence.FormatID(prefix, seq)

	const query = `
        INSERT INTO people (person_id, kind, name, jira_user_id, email, region, role)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		person.PersonID,
		person.Kind,
		person.Name,
		person.JiraUserID,
		person.Email,
		person.Region,
		person.Role,
	).Scan(&person.ID, &person.CreatedAt, &person.UpdatedAt); err != nil {
		return mapPersonConstraint(err)
	}

	return tx.Commit(ctx)
}

// GetByEmail resolves a person by email. Manager and coordinator records win
// over requester records when the same address is registered in more than
// one collection.
func (r *personRepository) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	const query = `
        SELECT id, person_id, kind, name, jira_user_id, email, region, role, created_at, updated_at
        FROM people WHERE email=$1
        ORDER BY CASE kind WHEN 'manager' THEN 0 WHEN 'coordinator' THEN 1 ELSE 2 END
        LIMIT 1`

	var person domain.Person
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&person.ID,
		&person.PersonID,
		&person.Kind,
		&person.Name,
		&person.JiraUserID,
		&person.Email,
		&person.Region,
		&person.Role,
		&person.CreatedAt,
		&person.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("person", map[string]any{"email": email})
		}
		return nil, err
	}
	return &person, nil
}

func mapPersonConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field := "email"
		if strings.Contains(pgErr.ConstraintName, "jira_user_id") {
			field = "jiraUserId"
		} else if strings.Contains(pgErr.ConstraintName, "person_id") {
			field = "personId"
		}
		return apperrors.NewConflict("duplicate person record", field)
	}
	return err
}
