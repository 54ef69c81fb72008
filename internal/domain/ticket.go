package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// TicketPriorities lists every priority from most to least urgent.
var TicketPriorities = []TicketPriority{
	TicketPriorityCritical,
	TicketPriorityHigh,
	TicketPriorityMedium,
	TicketPriorityLow,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// AllowedStatuses renders the status set for error messages.
func AllowedStatuses() string {
	parts := make([]string, len(TicketStatuses))
	for i, s := range TicketStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// AllowedPriorities renders the priority set for error messages.
func AllowedPriorities() string {
	parts := make([]string, len(TicketPriorities))
	for i, p := range TicketPriorities {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	Title           string
	Description     string
	Priority        TicketPriority
	Status          TicketStatus
	Category        *string
	ReporterID      string
	AssignedAdminID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
}

// IsClosed reports whether the ticket is in the closed state.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}

// AdminAssignment is a present assigned_admin_id update. A nil AdminID clears the assignment.
type AdminAssignment struct {
	AdminID *string
}
