package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventSyncCompleted       EventType = "sync_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID    string `json:"ticket_id"`
	ExternalKey string `json:"external_key,omitempty"`
}

// TicketStatusChangedPayload payload. The write-back adapter consumes it.
type TicketStatusChangedPayload struct {
	TicketID    string `json:"ticket_id"`
	ExternalKey string `json:"external_key,omitempty"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

// SyncCompletedPayload payload.
type SyncCompletedPayload struct {
	Deleted   int64         `json:"deleted"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}
