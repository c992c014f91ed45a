package domain

import "time"

// Well-known status labels. Ticket status is a free-form label mirrored from
// the external feed; these two are the only values the service itself counts.
const (
	StatusAssigned = "Assigned"
	StatusClosed   = "Closed"
)

// Ticket is a support ticket mirrored from the external tabular feed or
// created directly through the API.
type Ticket struct {
	ID       int64
	TicketID string

	// ExternalKey is the source-of-truth row key from the feed. Manually
	// created tickets may not have one.
	ExternalKey string

	RequesterName   string
	RequesterEmail  string
	RequesterRegion string
	ManagerName     string

	Status    string
	StartTime string
	EndTime   string
	PauseTime string
	SLA       string

	// Created and Updated carry the feed's timestamp strings verbatim.
	// CreatedTS and UpdatedTS are the normalized instants computed at ingest
	// in the source timezone; nil when the source string did not parse.
	Created   string
	Updated   string
	CreatedTS *time.Time
	UpdatedTS *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
