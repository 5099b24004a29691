package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DKhorkov/FastApi/internal/dbx"
	"github.com/DKhorkov/FastApi/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a row does not exist (or is no longer valid).
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("already exists")
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store is the persistence surface used by the service layer. Implementations
// are bound to a single unit of work.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateToken(ctx context.Context, token *models.Token) error
	FindUserByToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)

	CreateTask(ctx context.Context, task *models.Task) error
	FindTaskByID(ctx context.Context, id int64) (*models.Task, error)
	ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error)
	UpdateTaskCompletion(ctx context.Context, id int64, complete bool) error
	DeleteTask(ctx context.Context, id int64) error
}

// Manager vends Stores bound to a unit of work and owns schema setup.
type Manager interface {
	Bind(db dbx.DBTX) Store
	RunMigrations(ctx context.Context, db *sql.DB) error
}

// Repository provides Postgres operations over a DBTX (*sql.DB or *sql.Tx)
type Repository struct {
	db dbx.DBTX
}

// NewRepository initializes a new repository
func NewRepository(db dbx.DBTX) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, hashed_password, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, registered_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.HashedPassword, user.IsActive).
		Scan(&user.ID, &user.RegisteredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, hashed_password, registered_at, is_active
		FROM users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.RegisteredAt, &user.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateToken persists a token and fills in its id
func (r *Repository) CreateToken(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (user_id, token, expires)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, token.UserID, token.Token, token.Expires).Scan(&token.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("token: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// FindUserByToken returns the owner of a token that has not expired at now.
// Unknown and expired tokens are both ErrNotFound.
func (r *Repository) FindUserByToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT u.id, u.username, u.email, u.hashed_password, u.registered_at, u.is_active
		FROM users u
		JOIN tokens t ON t.user_id = u.id
		WHERE t.token = $1 AND t.expires > $2`
	err := r.db.QueryRowContext(ctx, query, token, now).
		Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.RegisteredAt, &user.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	return user, nil
}

// DeleteExpiredTokens removes tokens whose expiry is at or before now
func (r *Repository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE expires <= $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted tokens: %w", err)
	}
	return n, nil
}

// CreateTask creates a new task in the database
func (r *Repository) CreateTask(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (user_id, title, is_complete)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, task.UserID, task.Title, task.IsComplete).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindTaskByID retrieves a task by id regardless of owner
func (r *Repository) FindTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	task := &models.Task{}
	query := `
		SELECT id, user_id, title, is_complete
		FROM tasks
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&task.ID, &task.UserID, &task.Title, &task.IsComplete)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ListTasksByUser returns all tasks of a user ordered by id
func (r *Repository) ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	query := `
		SELECT id, user_id, title, is_complete
		FROM tasks
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.IsComplete); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskCompletion sets the completion flag of a task
func (r *Repository) UpdateTaskCompletion(ctx context.Context, id int64, complete bool) error {
	query := `
		UPDATE tasks
		SET is_complete = $2
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, complete)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireAffected(res)
}

// DeleteTask removes a task by id
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	query := `
		DELETE FROM tasks
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
