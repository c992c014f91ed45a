package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/events"
	"github.com/spec-kit/ticket-sync/internal/feed"
	"github.com/spec-kit/ticket-sync/internal/observability"
	"github.com/spec-kit/ticket-sync/internal/repository"
	"github.com/spec-kit/ticket-sync/internal/sla"
)

// ErrSyncBusy is returned when a run is requested while another is active.
// The run performs a destructive replace; overlap is never allowed.
var ErrSyncBusy = errors.New("sync run already in progress")

// RunLocker is the cross-instance lease around a sync run. The in-process
// flag alone is not enough when more than one replica shares the store.
type RunLocker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// SyncReport summarizes a completed run.
type SyncReport struct {
	Deleted   int64
	Processed int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// SyncService is the full-refresh synchronization pipeline: fetch the feed,
// validate its column layout, replace the ticket store, ingest rows with
// per-row fault isolation.
type SyncService struct {
	source     feed.Source
	tickets    repository.TicketRepository
	lock       RunLocker
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	running    atomic.Bool
}

// SyncDependencies bundles collaborators for the pipeline.
type SyncDependencies struct {
	Source     feed.Source
	TicketRepo repository.TicketRepository
	Lock       RunLocker
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewSyncService constructs the pipeline.
func NewSyncService(deps SyncDependencies) *SyncService {
	return &SyncService{
		source:     deps.Source,
		tickets:    deps.TicketRepo,
		lock:       deps.Lock,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Run executes one synchronization pass. A trigger while another run is
// active returns ErrSyncBusy without touching the store.
func (s *SyncService) Run(ctx context.Context) (*SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.RecordSyncRun("skipped", 0)
		return nil, ErrSyncBusy
	}
	defer s.running.Store(false)

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			s.metrics.RecordSyncRun("error", 0)
			return nil, err
		}
		if !acquired {
			s.logger.Info("sync run lock held elsewhere; skipping")
			s.metrics.RecordSyncRun("skipped", 0)
			return nil, ErrSyncBusy
		}
		defer s.lock.Release(ctx)
	}

	started := time.Now()
	report, err := s.run(ctx)
	elapsed := time.Since(started)

	if err != nil {
		s.metrics.RecordSyncRun("error", elapsed)
		return nil, err
	}

	report.Elapsed = elapsed
	s.metrics.RecordSyncRun("ok", elapsed)
	s.metrics.RecordSyncRows(report.Succeeded, report.Failed)

	s.logger.Info("sync run completed",
		zap.Int64("deleted", report.Deleted),
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed),
	)
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type: events.EventSyncCompleted,
		Payload: events.SyncCompletedPayload{
			Deleted:   report.Deleted,
			Processed: report.Processed,
			Succeeded: report.Succeeded,
			Failed:    report.Failed,
			Elapsed:   report.Elapsed,
		},
	})
	return report, nil
}

func (s *SyncService) run(ctx context.Context) (*SyncReport, error) {
	s.logger.Info("sync state", zap.String("state", "fetching"))
	table, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sync state", zap.String("state", "validating"), zap.Int("rows", len(table.Rows)))
	columns, err := table.ColumnMap()
	if err != nil {
		// Abort before any mutation: the store still holds the previous snapshot.
		return nil, err
	}

	s.logger.Info("sync state", zap.String("state", "replacing"))
	deleted, err := s.tickets.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sync state", zap.String("state", "ingesting"))
	report := &SyncReport{Deleted: deleted, Processed: len(table.Rows)}
	for i, row := range table.Rows {
		if err := s.ingestRow(ctx, columns, row); err != nil {
			report.Failed++
			s.logger.Warn("sync row failed",
				zap.Int("row", i+1),
				zap.Error(err),
			)
			continue
		}
		report.Succeeded++
	}

	return report, nil
}

// ingestRow builds a ticket straight from the mapped columns and persists
// it. Timestamps carry through as source strings; their normalized instants
// are computed here, in the source timezone, and left nil when unparseable.
func (s *SyncService) ingestRow(ctx context.Context, columns map[string]int, row []string) error {
	cell := func(name string) string {
		idx := columns[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	externalKey := cell(feed.ColumnExternalKey)
	if externalKey == "" {
		return errors.New("row has no external key")
	}

	ticket := &domain.Ticket{
		ExternalKey:     externalKey,
		Created:         cell(feed.ColumnCreated),
		Updated:         cell(feed.ColumnUpdated),
		ManagerName:     cell(feed.ColumnManagerName),
		RequesterName:   cell(feed.ColumnRequesterName),
		RequesterEmail:  cell(feed.ColumnRequesterEmail),
		RequesterRegion: cell(feed.ColumnRequesterRegion),
		Status:          cell(feed.ColumnStatus),
		StartTime:       "00:00:00",
		EndTime:         "00:00:00",
		PauseTime:       "00:00:00",
	}
	if ts, err := sla.ParseSourceTime(ticket.Created); err == nil {
		ticket.CreatedTS = &ts
	}
	if ts, err := sla.ParseSourceTime(ticket.Updated); err == nil {
		ticket.UpdatedTS = &ts
	}

	return s.tickets.Create(ctx, ticket)
}
