package service

import (
	"errors"
	"fmt"

	"github.com/DKhorkov/FastApi/internal/repository"
)

var (
	// ErrNotFound is shared with the repository layer.
	ErrNotFound = repository.ErrNotFound

	// ErrUnauthenticated covers missing, garbled, unknown and expired tokens.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInactiveAccount means the token is valid but the user is disabled.
	ErrInactiveAccount = errors.New("inactive user")
	// ErrOwnershipDenied is a not-found to callers so task ids cannot be probed.
	ErrOwnershipDenied = fmt.Errorf("task belongs to another user: %w", ErrNotFound)

	ErrDuplicateRegistration = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("incorrect email or password")
	ErrValidation            = errors.New("validation error")
)
