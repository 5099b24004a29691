package service

import (
	"context"
	"errors"

	"github.com/DKhorkov/FastApi/internal/dbx"
	"github.com/DKhorkov/FastApi/internal/models"
	"github.com/DKhorkov/FastApi/internal/utils"
)

// AuthStatus tags an AuthResult.
type AuthStatus int

const (
	Unauthenticated AuthStatus = iota
	Authenticated
	InactiveAccount
)

func (s AuthStatus) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case InactiveAccount:
		return "inactive_account"
	default:
		return "unauthenticated"
	}
}

// AuthResult is Authenticated(User) | Unauthenticated | InactiveAccount.
// User is set for Authenticated and InactiveAccount.
type AuthResult struct {
	Status AuthStatus
	User   *models.User
}

// Err maps a non-authenticated result to its sentinel error.
func (r AuthResult) Err() error {
	switch r.Status {
	case Authenticated:
		return nil
	case InactiveAccount:
		return ErrInactiveAccount
	default:
		return ErrUnauthenticated
	}
}

// ResolveIdentity turns the request cookies into an AuthResult. The error is
// only set for infrastructure faults.
func (s *Service) ResolveIdentity(ctx context.Context, cookies map[string]string) (AuthResult, error) {
	value, ok := utils.ExtractBearerToken(cookies)
	if !ok {
		return AuthResult{Status: Unauthenticated}, nil
	}

	var user *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.tokens.Resolve(ctx, tx, value)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return AuthResult{Status: Unauthenticated}, nil
	}
	if err != nil {
		return AuthResult{}, err
	}

	if !user.IsActive {
		return AuthResult{Status: InactiveAccount, User: user}, nil
	}
	return AuthResult{Status: Authenticated, User: user}, nil
}
