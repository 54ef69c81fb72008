package events

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketUpdated    EventType = "ticket_updated"
	EventTicketReanalyzed EventType = "ticket_reanalyzed"
)

// TicketEventTypes lists every ticket event, for subscribers interested in all of them.
var TicketEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketReanalyzed,
}

// Event represents a domain event emitted by services after a committed write.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReporterID string                `json:"reporter_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Category   string                `json:"category"`
	Title      string                `json:"title"`
}

// TicketUpdatedPayload carries the before and after values of each accepted field.
type TicketUpdatedPayload struct {
	OldStatus          domain.TicketStatus   `json:"old_status"`
	NewStatus          domain.TicketStatus   `json:"new_status"`
	OldPriority        domain.TicketPriority `json:"old_priority"`
	NewPriority        domain.TicketPriority `json:"new_priority"`
	OldAssignedAdminID *string               `json:"old_assigned_admin_id,omitempty"`
	NewAssignedAdminID *string               `json:"new_assigned_admin_id,omitempty"`
	Fields             []string              `json:"fields"`
}

// TicketReanalyzedPayload payload.
type TicketReanalyzedPayload struct {
	OldCategory *string `json:"old_category,omitempty"`
	NewCategory string  `json:"new_category"`
}
