package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/splax/taskhub/internal/domain"
	"github.com/splax/taskhub/internal/repository"
)

var (
	// ErrMissingTitle is returned when a title is empty or whitespace.
	ErrMissingTitle = errors.New("title is required")
	// ErrDuplicateTitle is returned when the account already has a task
	// with the same title.
	ErrDuplicateTitle = errors.New("task already exists")
)

// Service handles owner-scoped task workflows. Every operation takes the
// authenticated account id; tasks owned by other accounts are
// indistinguishable from missing ones.
type Service struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(tasks repository.TaskRepository, logger *slog.Logger) Service {
	return Service{tasks: tasks, logger: logger}
}

// List returns the tasks owned by ownerID.
func (s Service) List(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	return s.tasks.ListTasksByOwner(ctx, ownerID)
}

// Get returns a single task owned by ownerID.
func (s Service) Get(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	return s.tasks.GetTask(ctx, ownerID, taskID)
}

// Create persists a new task owned by ownerID. The storage constraint on
// (owner, title) decides concurrent duplicate creates: one insert wins,
// the other returns ErrDuplicateTitle.
func (s Service) Create(ctx context.Context, ownerID int64, title string, done bool) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrMissingTitle
	}
	task := &domain.Task{
		UserID:    ownerID,
		Title:     title,
		Done:      done,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}
	s.logger.Info("task created", "task_id", task.ID, "user_id", ownerID)
	return task, nil
}

// Update overwrites title and done on the owner's task and returns the
// updated record. A missing or foreign task yields repository.ErrNotFound.
func (s Service) Update(ctx context.Context, ownerID, taskID int64, title string, done bool) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrMissingTitle
	}
	task := &domain.Task{
		ID:     taskID,
		UserID: ownerID,
		Title:  title,
		Done:   done,
	}
	if err := s.tasks.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}
	s.logger.Info("task updated", "task_id", taskID, "user_id", ownerID)
	return task, nil
}

// Delete removes the owner's task. Deleting an already-deleted task
// yields repository.ErrNotFound, nothing worse.
func (s Service) Delete(ctx context.Context, ownerID, taskID int64) error {
	if err := s.tasks.DeleteTask(ctx, ownerID, taskID); err != nil {
		return err
	}
	s.logger.Info("task deleted", "task_id", taskID, "user_id", ownerID)
	return nil
}
