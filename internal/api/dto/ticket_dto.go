package dto

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ExternalKey     string `json:"external_key"`
	RequesterName   string `json:"requester_name"`
	RequesterEmail  string `json:"requester_email"`
	RequesterRegion string `json:"requester_region"`
	ManagerName     string `json:"manager_name"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Status          string `json:"status"`
	SLA             string `json:"sla"`
}

// UpdateTicketRequest carries the updatable subset; absent fields stay as
// they are.
type UpdateTicketRequest struct {
	Status    *string `json:"status"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	SLA       *string `json:"sla"`
}

// TicketResponse is a single ticket with its SLA snapshot.
type TicketResponse struct {
	TicketID        string `json:"ticket_id"`
	ExternalKey     string `json:"external_key,omitempty"`
	RequesterName   string `json:"requester_name"`
	RequesterEmail  string `json:"requester_email"`
	RequesterRegion string `json:"requester_region"`
	ManagerName     string `json:"manager_name"`
	Status          string `json:"status"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	PauseTime       string `json:"pause_time"`
	SLA             string `json:"sla"`
	Created         string `json:"created"`
	Updated         string `json:"updated"`
	Deadline        string `json:"deadline"`
	Countdown       string `json:"countdown"`
	Tier            string `json:"tier"`
	Breached        bool   `json:"breached"`
}

// TierCountsResponse buckets the page's tickets by SLA pressure.
type TierCountsResponse struct {
	Normal   int `json:"normal"`
	Critical int `json:"critical"`
	Breached int `json:"breached"`
}

// ListMetricsResponse is the aggregate block attached to every page.
type ListMetricsResponse struct {
	TotalTickets    int64              `json:"totalTickets"`
	AssignedTickets int64              `json:"assignedTickets"`
	ClosedTickets   int64              `json:"closedTickets"`
	SLATiers        TierCountsResponse `json:"slaTiers"`
}

// TicketListResponse is the paginated list envelope.
type TicketListResponse struct {
	Success     bool                `json:"success"`
	Count       int                 `json:"count"`
	Total       int64               `json:"total"`
	TotalPages  int                 `json:"totalPages"`
	CurrentPage int                 `json:"currentPage"`
	Role        int                 `json:"role"`
	Data        []TicketResponse    `json:"data"`
	Metrics     ListMetricsResponse `json:"metrics"`
}

// SyncRunResponse reports a completed synchronization pass.
type SyncRunResponse struct {
	Deleted   int64 `json:"deleted"`
	Processed int   `json:"processed"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	ElapsedMS int64 `json:"elapsed_ms"`
}
