package handlers

import (
	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/domain"
)

func userResponse(user domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func lookupUser(directory map[string]domain.User, id *string) *dto.UserResponse {
	if id == nil {
		return nil
	}
	user, ok := directory[*id]
	if !ok {
		return nil
	}
	resp := userResponse(user)
	return &resp
}

func ticketResponse(ticket *domain.Ticket, directory map[string]domain.User) dto.TicketResponse {
	return dto.TicketResponse{
		ID:              ticket.ID,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Priority:        ticket.Priority,
		Status:          ticket.Status,
		Category:        ticket.Category,
		ReporterID:      ticket.ReporterID,
		Reporter:        lookupUser(directory, &ticket.ReporterID),
		AssignedAdminID: ticket.AssignedAdminID,
		AssignedAdmin:   lookupUser(directory, ticket.AssignedAdminID),
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
		ClosedAt:        ticket.ClosedAt,
	}
}

func statsResponse(stats domain.TicketStats) dto.StatsResponse {
	return dto.StatsResponse{
		TotalTickets: stats.Total,
		StatusBreakdown: dto.StatusBreakdown{
			Open:       stats.ByStatus.Open,
			InProgress: stats.ByStatus.InProgress,
			Closed:     stats.ByStatus.Closed,
		},
		PriorityBreakdown: dto.PriorityBreakdown{
			Critical: stats.ByPriority.Critical,
			High:     stats.ByPriority.High,
			Medium:   stats.ByPriority.Medium,
			Low:      stats.ByPriority.Low,
		},
	}
}
