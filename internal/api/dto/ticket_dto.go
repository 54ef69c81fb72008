package dto

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	ReporterID  string                `json:"reporter_id"`
}

// UpdateTicketRequest payload. Omitted keys leave the field unchanged;
// "assigned_admin_id": null clears the assignment.
type UpdateTicketRequest struct {
	Status          Optional[domain.TicketStatus]   `json:"status"`
	Priority        Optional[domain.TicketPriority] `json:"priority"`
	AssignedAdminID Optional[string]                `json:"assigned_admin_id"`
}

// TicketResponse is the full ticket representation with embedded users.
type TicketResponse struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Priority        domain.TicketPriority `json:"priority"`
	Status          domain.TicketStatus   `json:"status"`
	Category        *string               `json:"category"`
	ReporterID      string                `json:"reporter_id"`
	Reporter        *UserResponse         `json:"reporter"`
	AssignedAdminID *string               `json:"assigned_admin_id"`
	AssignedAdmin   *UserResponse         `json:"assigned_admin"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	ClosedAt        *time.Time            `json:"closed_at"`
}

// AnalyzeResponse is returned after re-classifying a ticket.
type AnalyzeResponse struct {
	TicketID    string `json:"ticket_id"`
	NewCategory string `json:"new_category"`
	Message     string `json:"message"`
}

// StatsResponse mirrors the dashboard counters.
type StatsResponse struct {
	TotalTickets      int64             `json:"total_tickets"`
	StatusBreakdown   StatusBreakdown   `json:"status_breakdown"`
	PriorityBreakdown PriorityBreakdown `json:"priority_breakdown"`
}

// StatusBreakdown counts.
type StatusBreakdown struct {
	Open       int64 `json:"open"`
	InProgress int64 `json:"in_progress"`
	Closed     int64 `json:"closed"`
}

// PriorityBreakdown counts.
type PriorityBreakdown struct {
	Critical int64 `json:"critical"`
	High     int64 `json:"high"`
	Medium   int64 `json:"medium"`
	Low      int64 `json:"low"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
