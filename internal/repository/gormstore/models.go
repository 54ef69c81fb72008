// Package gormstore implements the repositories on gorm, backing the embedded SQLite deployment.
package gormstore

import (
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

type userModel struct {
	ID           string    `gorm:"column:id;primaryKey;type:text"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;type:text;not null"`
	Role         string    `gorm:"column:role;type:text;not null"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
}

func (userModel) TableName() string {
	return "users"
}

type ticketModel struct {
	ID              string     `gorm:"column:id;primaryKey;type:text"`
	Title           string     `gorm:"column:title;type:text;not null"`
	Description     string     `gorm:"column:description;type:text;not null"`
	Priority        string     `gorm:"column:priority;type:text;not null;index"`
	Status          string     `gorm:"column:status;type:text;not null;index"`
	Category        *string    `gorm:"column:category;type:text"`
	ReporterID      string     `gorm:"column:reporter_id;type:text;not null;index"`
	Reporter        *userModel `gorm:"foreignKey:ReporterID;references:ID"`
	AssignedAdminID *string    `gorm:"column:assigned_admin_id;type:text;index"`
	AssignedAdmin   *userModel `gorm:"foreignKey:AssignedAdminID;references:ID"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null;index;autoCreateTime:false"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	ClosedAt        *time.Time `gorm:"column:closed_at"`
}

func (ticketModel) TableName() string {
	return "tickets"
}

// AutoMigrate creates or updates the users and tickets tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userModel{}, &ticketModel{})
}

func userFromDomain(u *domain.User) userModel {
	return userModel{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		Role:         domain.UserRole(m.Role),
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func ticketFromDomain(t *domain.Ticket) ticketModel {
	return ticketModel{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Priority:        string(t.Priority),
		Status:          string(t.Status),
		Category:        t.Category,
		ReporterID:      t.ReporterID,
		AssignedAdminID: t.AssignedAdminID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ClosedAt:        t.ClosedAt,
	}
}

func (m ticketModel) toDomain() domain.Ticket {
	ticket := domain.Ticket{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		Priority:        domain.TicketPriority(m.Priority),
		Status:          domain.TicketStatus(m.Status),
		Category:        m.Category,
		ReporterID:      m.ReporterID,
		AssignedAdminID: m.AssignedAdminID,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	if m.ClosedAt != nil {
		closed := m.ClosedAt.UTC()
		ticket.ClosedAt = &closed
	}
	return ticket
}
