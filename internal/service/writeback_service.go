package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/events"
	"github.com/spec-kit/ticket-sync/internal/feed"
	"github.com/spec-kit/ticket-sync/internal/observability"
)

const writebackTimeout = 10 * time.Second

// WritebackService propagates ticket status changes back to the external
// feed. The propagation is strictly best-effort: it runs off the triggering
// request's goroutine, failures are logged and counted, never surfaced to
// the update that triggered them, and the store stays authoritative.
type WritebackService struct {
	source     feed.Source
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	inflight   sync.WaitGroup
}

// NewWritebackService creates the service.
func NewWritebackService(source feed.Source, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *WritebackService {
	return &WritebackService{
		source:     source,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to status-change events.
func (w *WritebackService) RegisterHandlers() {
	if w.dispatcher == nil {
		return
	}
	w.dispatcher.Subscribe(events.EventTicketStatusChanged, w.handleStatusChanged)
}

// Wait blocks until in-flight write-backs finish. Called on shutdown.
func (w *WritebackService) Wait() {
	w.inflight.Wait()
}

func (w *WritebackService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	if payload.ExternalKey == "" {
		// Manually created tickets have no feed row to update.
		w.metrics.RecordWriteback("skipped")
		return nil
	}

	// The write-back must never inherit the triggering request's locks,
	// deadline or goroutine: a slow feed call cannot hold up the update
	// response. It gets its own bounded context off to the side.
	detached := context.WithoutCancel(ctx)
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		callCtx, cancel := context.WithTimeout(detached, writebackTimeout)
		defer cancel()
		w.propagate(callCtx, payload)
	}()
	return nil
}

func (w *WritebackService) propagate(callCtx context.Context, payload events.TicketStatusChangedPayload) {
	if err := w.source.UpdateStatus(callCtx, payload.ExternalKey, payload.NewStatus); err != nil {
		w.metrics.RecordWriteback("error")
		if errors.Is(err, feed.ErrRowNotFound) {
			w.logger.Warn("write-back row not found in feed",
				zap.String("external_key", payload.ExternalKey))
			return
		}
		w.logger.Error("write-back failed",
			zap.String("external_key", payload.ExternalKey),
			zap.String("status", payload.NewStatus),
			zap.Error(err))
		return
	}

	w.metrics.RecordWriteback("ok")
	w.logger.Info("status written back to feed",
		zap.String("external_key", payload.ExternalKey),
		zap.String("status", payload.NewStatus))
}
