// Package sequence mints stable, human-readable identifiers from named
// atomic counters. Ordinals are strictly increasing per counter name and are
// never issued twice; gaps are acceptable when a surrounding transaction
// rolls back.
package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Counter names, one per entity type that needs a prefixed code.
const (
	CounterTicket      = "ticket"
	CounterRequester   = "requester"
	CounterCoordinator = "coordinator"
	CounterManager     = "manager"
)

// Identifier prefixes matching the counter names above.
const (
	PrefixTicket      = "TKT"
	PrefixRequester   = "REQ"
	PrefixCoordinator = "CRD"
	PrefixManager     = "MGR"
)

// Querier is the slice of pgx needed to run the increment. Both pgxpool.Pool
// and pgx.Tx satisfy it; callers that must commit the allocation together
// with an entity insert pass their transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// The increment is a single atomic read-modify-write: create-if-absent with
// the first ordinal, otherwise bump and return. Concurrent callers serialize
// on the counter row.
const allocateQuery = `
        INSERT INTO counters (name, seq) VALUES ($1, 1)
        ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
        RETURNING seq`

// Next returns the next ordinal for the named counter. A failed increment is
// retried exactly once before the error surfaces to abort the creating
// operation.
func Next(ctx context.Context, q Querier, name string) (int64, error) {
	seq, err := allocate(ctx, q, name)
	if err == nil {
		return seq, nil
	}

	seq, retryErr := allocate(ctx, q, name)
	if retryErr != nil {
		return 0, fmt.Errorf("allocate %s (after retry): %w", name, retryErr)
	}
	return seq, nil
}

func allocate(ctx context.Context, q Querier, name string) (int64, error) {
	var seq int64
	if err := q.QueryRow(ctx, allocateQuery, name).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// FormatID renders the emitted identifier, e.g. TKT-000042.
func FormatID(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%06d", prefix, seq)
}
