package domain

// StatusBreakdown counts tickets per status.
type StatusBreakdown struct {
	Open       int64
	InProgress int64
	Closed     int64
}

// PriorityBreakdown counts tickets per priority.
type PriorityBreakdown struct {
	Critical int64
	High     int64
	Medium   int64
	Low      int64
}

// TicketStats is the dashboard rollup over every ticket.
type TicketStats struct {
	Total      int64
	ByStatus   StatusBreakdown
	ByPriority PriorityBreakdown
}

// Add folds n tickets with the given status and priority into the rollup.
// Unknown values still count toward Total.
func (s *TicketStats) Add(status TicketStatus, priority TicketPriority, n int64) {
	s.Total += n
	switch status {
	case TicketStatusOpen:
		s.ByStatus.Open += n
	case TicketStatusInProgress:
		s.ByStatus.InProgress += n
	case TicketStatusClosed:
		s.ByStatus.Closed += n
	}
	switch priority {
	case TicketPriorityCritical:
		s.ByPriority.Critical += n
	case TicketPriorityHigh:
		s.ByPriority.High += n
	case TicketPriorityMedium:
		s.ByPriority.Medium += n
	case TicketPriorityLow:
		s.ByPriority.Low += n
	}
}
