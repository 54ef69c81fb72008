package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/repository"
)

type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository returns a gorm-backed implementation.
func NewTicketRepository(db *gorm.DB) repository.TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	model := ticketFromDomain(ticket)
	return r.db.WithContext(ctx).Omit("Reporter", "AssignedAdmin").Create(&model).Error
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var model ticketModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ticket := model.toDomain()
	return &ticket, nil
}

func (r *ticketRepository) ApplyPatch(ctx context.Context, id string, patch repository.TicketPatch) (*domain.Ticket, error) {
	updates := map[string]any{
		"updated_at": patch.UpdatedAt,
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
		updates["closed_at"] = patch.ClosedAt
	}
	if patch.SetAssignedAdmin {
		updates["assigned_admin_id"] = patch.AssignedAdminID
	}
	if patch.Priority != nil {
		updates["priority"] = string(*patch.Priority)
	}
	return r.updateAndFetch(ctx, id, updates)
}

func (r *ticketRepository) SetCategory(ctx context.Context, id, category string, updatedAt time.Time) (*domain.Ticket, error) {
	return r.updateAndFetch(ctx, id, map[string]any{
		"category":   category,
		"updated_at": updatedAt,
	})
}

func (r *ticketRepository) updateAndFetch(ctx context.Context, id string, updates map[string]any) (*domain.Ticket, error) {
	var model ticketModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ticketModel{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return tx.Where("id = ?", id).Take(&model).Error
	})
	if err != nil {
		return nil, err
	}
	ticket := model.toDomain()
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	query := r.db.WithContext(ctx).Model(&ticketModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", string(*filter.Priority))
	}
	if filter.AssignedAdminID != nil {
		query = query.Where("assigned_admin_id = ?", *filter.AssignedAdminID)
	}
	if filter.ReporterID != nil {
		query = query.Where("reporter_id = ?", *filter.ReporterID)
	}

	var models []ticketModel
	if err := query.Order("created_at DESC").Order("rowid ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	tickets := make([]domain.Ticket, 0, len(models))
	for _, m := range models {
		tickets = append(tickets, m.toDomain())
	}
	return tickets, nil
}

func (r *ticketRepository) Stats(ctx context.Context) (domain.TicketStats, error) {
	var rows []struct {
		Status   string
		Priority string
		Count    int64
	}
	var stats domain.TicketStats
	err := r.db.WithContext(ctx).Model(&ticketModel{}).
		Select("status, priority, COUNT(*) AS count").
		Group("status, priority").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}
	for _, row := range rows {
		stats.Add(domain.TicketStatus(row.Status), domain.TicketPriority(row.Priority), row.Count)
	}
	return stats, nil
}
