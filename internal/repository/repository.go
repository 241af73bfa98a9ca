package repository

import (
	"context"

	"github.com/splax/taskhub/internal/domain"
)

// UserRepository persists accounts. The email uniqueness constraint lives
// in storage; CreateUser returns ErrConflict when it is violated.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// TaskRepository persists tasks. Every read and mutation is scoped to the
// owning account id; a task owned by someone else behaves as if absent.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	ListTasksByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error)
	GetTask(ctx context.Context, ownerID, taskID int64) (*domain.Task, error)
	UpdateTask(ctx context.Context, task *domain.Task) error
	DeleteTask(ctx context.Context, ownerID, taskID int64) error
}
