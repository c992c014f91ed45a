package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/events"
	"github.com/spec-kit/ticket-sync/internal/feed"
	"github.com/spec-kit/ticket-sync/internal/observability"
)

func publishStatusChange(t *testing.T, dispatcher events.Dispatcher, externalKey, oldStatus, newStatus string) {
	t.Helper()
	if err := dispatcher.Publish(context.Background(), events.Event{
		Type: events.EventTicketStatusChanged,
		Payload: events.TicketStatusChangedPayload{
			TicketID:    "TKT-000001",
			ExternalKey: externalKey,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
		},
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestWritebackPropagatesStatusChange(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewWritebackService(source, dispatcher, observability.NewMetrics(), zap.NewNop())
	svc.RegisterHandlers()

	publishStatusChange(t, dispatcher, "NFLX-1", "Assigned", "Closed")
	svc.Wait()

	calls := source.calls()
	if len(calls) != 1 {
		t.Fatalf("UpdateStatus called %d times, want 1", len(calls))
	}
	if calls[0] != "NFLX-1=Closed" {
		t.Errorf("call = %q, want NFLX-1=Closed", calls[0])
	}
}

func TestWritebackDoesNotBlockPublisher(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	source := &fakeSource{updateGate: gate}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewWritebackService(source, dispatcher, observability.NewMetrics(), zap.NewNop())
	svc.RegisterHandlers()

	// The feed call is still held on the gate when Publish returns; the
	// triggering update never waits on it.
	publishStatusChange(t, dispatcher, "NFLX-1", "Assigned", "Closed")
	if got := source.calls(); len(got) != 0 {
		t.Fatalf("write-back completed synchronously: %v", got)
	}

	close(gate)
	svc.Wait()
	if got := source.calls(); len(got) != 1 {
		t.Fatalf("UpdateStatus called %d times after Wait, want 1", len(got))
	}
}

func TestWritebackFailureNeverPropagates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "upstream failure", err: errors.New("sheet unavailable")},
		{name: "row missing", err: feed.ErrRowNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			source := &fakeSource{updateErr: tt.err}
			dispatcher := events.NewInMemoryDispatcher()
			svc := NewWritebackService(source, dispatcher, observability.NewMetrics(), zap.NewNop())
			svc.RegisterHandlers()

			// Publish never surfaces handler errors; the assertion is that
			// nothing panics and the call was attempted.
			publishStatusChange(t, dispatcher, "NFLX-2", "Assigned", "Closed")
			svc.Wait()
			if calls := source.calls(); len(calls) != 1 {
				t.Fatalf("UpdateStatus called %d times, want 1", len(calls))
			}
		})
	}
}

func TestWritebackSkipsTicketsWithoutExternalKey(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewWritebackService(source, dispatcher, observability.NewMetrics(), zap.NewNop())
	svc.RegisterHandlers()

	publishStatusChange(t, dispatcher, "", "Assigned", "Closed")
	svc.Wait()

	if len(source.calls()) != 0 {
		t.Errorf("UpdateStatus called for ticket with no feed row")
	}
}
