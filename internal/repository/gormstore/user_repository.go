package gormstore

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/repository"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a gorm-backed implementation.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	model := userFromDomain(user)
	err := r.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, "email = ?", email)
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return r.list(r.db.WithContext(ctx).Where("id IN ?", ids))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userModel{}).Count(&count).Error
	return count, err
}

func (r *userRepository) fetchSingle(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var model userModel
	err := r.db.WithContext(ctx).Where(cond, arg).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user := model.toDomain()
	return &user, nil
}

func (r *userRepository) list(query *gorm.DB) ([]domain.User, error) {
	var models []userModel
	if err := query.Order("created_at ASC").Order("rowid ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(models))
	for _, m := range models {
		users = append(users, m.toDomain())
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
