package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DKhorkov/FastApi/internal/dbx"
	"github.com/DKhorkov/FastApi/internal/models"
)

// MemoryStore keeps users, tokens and tasks in process memory. It ignores the
// DBTX handle: every method is atomic on its own, nothing spans calls.
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID  int64
	nextTokenID int64
	nextTaskID  int64

	users  map[int64]models.User
	tokens map[string]models.Token
	tasks  map[int64]models.Task
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[int64]models.User),
		tokens: make(map[string]models.Token),
		tasks:  make(map[int64]models.Task),
	}
}

// Bind implements Manager.
func (s *MemoryStore) Bind(dbx.DBTX) Store {
	return s
}

// RunMigrations implements Manager; there is no schema.
func (s *MemoryStore) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.RegisteredAt = time.Now().UTC()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// SetUserActive flips the active flag. Only admin tooling and tests call it.
func (s *MemoryStore) SetUserActive(id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	s.users[id] = u
	return nil
}

func (s *MemoryStore) CreateToken(_ context.Context, token *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[token.UserID]; !ok {
		return fmt.Errorf("token owner %d: %w", token.UserID, ErrNotFound)
	}
	if _, ok := s.tokens[token.Token]; ok {
		return fmt.Errorf("token: %w", ErrDuplicate)
	}
	s.nextTokenID++
	token.ID = s.nextTokenID
	s.tokens[token.Token] = *token
	return nil
}

func (s *MemoryStore) FindUserByToken(_ context.Context, token string, now time.Time) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[token]
	if !ok || !t.Expires.After(now) {
		return nil, ErrNotFound
	}
	u, ok := s.users[t.UserID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) DeleteExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, t := range s.tokens {
		if !t.Expires.After(now) {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[task.UserID]; !ok {
		return fmt.Errorf("task owner %d: %w", task.UserID, ErrNotFound)
	}
	s.nextTaskID++
	task.ID = s.nextTaskID
	s.tasks[task.ID] = *task
	return nil
}

func (s *MemoryStore) FindTaskByID(_ context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) ListTasksByUser(_ context.Context, userID int64) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := []models.Task{}
	for _, t := range s.tasks {
		if t.UserID == userID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (s *MemoryStore) UpdateTaskCompletion(_ context.Context, id int64, complete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	t.IsComplete = complete
	s.tasks[id] = t
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}
