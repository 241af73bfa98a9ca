package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/taskhub/internal/domain"
	"github.com/splax/taskhub/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository = (*Repository)(nil)
	_ repository.TaskRepository = (*Repository)(nil)
)

// CreateUser inserts an account. The id is assigned by the database; a
// duplicate email surfaces as ErrConflict regardless of which concurrent
// insert lost the race.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (email, password_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.pool.QueryRow(ctx, query, user.Email, user.PasswordHash, user.CreatedAt).Scan(&user.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches an account by email (byte-for-byte match).
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	row := r.pool.QueryRow(ctx, query, email)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByID retrieves an account by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateTask inserts a task for its owner. A duplicate (owner, title)
// pair returns ErrConflict; a missing owner returns ErrNotFound.
func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	const query = `INSERT INTO tasks (user_id, title, done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id`
	if err := r.pool.QueryRow(ctx, query, task.UserID, task.Title, task.Done, task.CreatedAt).Scan(&task.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return repository.ErrConflict
			case "23503":
				return repository.ErrNotFound
			}
		}
		return err
	}
	task.UpdatedAt = task.CreatedAt
	return nil
}

// ListTasksByOwner returns tasks owned by ownerID in stable id order.
func (r *Repository) ListTasksByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	const query = `SELECT id, user_id, title, done, created_at, updated_at
		FROM tasks WHERE user_id = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Done, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask fetches a task scoped to its owner.
func (r *Repository) GetTask(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	const query = `SELECT id, user_id, title, done, created_at, updated_at
		FROM tasks WHERE id = $1 AND user_id = $2`
	row := r.pool.QueryRow(ctx, query, taskID, ownerID)
	var task domain.Task
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Done, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// UpdateTask overwrites title and done for the owner's task. The owner id
// itself is never updated. No matching row means the task does not exist
// or belongs to another account; both map to ErrNotFound.
func (r *Repository) UpdateTask(ctx context.Context, task *domain.Task) error {
	const query = `UPDATE tasks
		SET title = $3, done = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at`
	row := r.pool.QueryRow(ctx, query, task.ID, task.UserID, task.Title, task.Done)
	if err := row.Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteTask removes the owner's task. Deleting a missing or foreign task
// returns ErrNotFound.
func (r *Repository) DeleteTask(ctx context.Context, ownerID, taskID int64) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, taskID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
