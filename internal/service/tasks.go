package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/DKhorkov/FastApi/internal/dbx"
	"github.com/DKhorkov/FastApi/internal/models"
	"github.com/DKhorkov/FastApi/internal/repository"
)

// ListTasks returns the tasks owned by user
func (s *Service) ListTasks(ctx context.Context, user *models.User) ([]models.Task, error) {
	var tasks []models.Task
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		tasks, err = s.repos.Bind(tx).ListTasksByUser(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask adds an incomplete task owned by user
func (s *Service) CreateTask(ctx context.Context, user *models.User, title string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	task := &models.Task{UserID: user.ID, Title: title}
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Bind(tx).CreateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Task %d created for user %d", task.ID, user.ID)
	return task, nil
}

// ToggleTask flips the completion flag of a task owned by user
func (s *Service) ToggleTask(ctx context.Context, user *models.User, id int64) (*models.Task, error) {
	var task *models.Task
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		store := s.repos.Bind(tx)
		var err error
		task, err = loadOwnedTask(ctx, store, user, id)
		if err != nil {
			return err
		}
		task.IsComplete = !task.IsComplete
		return store.UpdateTaskCompletion(ctx, task.ID, task.IsComplete)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debugf("Task %d toggled by user %d: complete=%t", task.ID, user.ID, task.IsComplete)
	return task, nil
}

// DeleteTask removes a task owned by user
func (s *Service) DeleteTask(ctx context.Context, user *models.User, id int64) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		store := s.repos.Bind(tx)
		task, err := loadOwnedTask(ctx, store, user, id)
		if err != nil {
			return err
		}
		return store.DeleteTask(ctx, task.ID)
	})
	if err != nil {
		return err
	}

	s.log.Infof("Task %d deleted by user %d", id, user.ID)
	return nil
}

// loadOwnedTask reads the current row and runs the ownership check on it.
func loadOwnedTask(ctx context.Context, store repository.Store, user *models.User, id int64) (*models.Task, error) {
	task, err := store.FindTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if Authorize(task, user) == Deny {
		return nil, ErrOwnershipDenied
	}
	return task, nil
}
