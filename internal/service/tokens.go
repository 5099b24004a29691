package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/DKhorkov/FastApi/internal/dbx"
	"github.com/DKhorkov/FastApi/internal/models"
	"github.com/DKhorkov/FastApi/internal/repository"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 14 * 24 * time.Hour

// TokenStore issues and resolves opaque bearer tokens. Every call runs against
// the unit of work passed in by the caller.
type TokenStore struct {
	repos    repository.Manager
	validity time.Duration
	now      func() time.Time
	newValue func() (string, error)
}

// NewTokenStore creates a TokenStore; validity <= 0 falls back to DefaultTokenTTL.
func NewTokenStore(repos repository.Manager, validity time.Duration) *TokenStore {
	if validity <= 0 {
		validity = DefaultTokenTTL
	}
	return &TokenStore{
		repos:    repos,
		validity: validity,
		now:      time.Now,
		newValue: newTokenValue,
	}
}

// newTokenValue returns a random v4 UUID as 32 hex characters.
func newTokenValue() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(id[:]), nil
}

// Issue creates and persists a token for userID.
func (ts *TokenStore) Issue(ctx context.Context, db dbx.DBTX, userID int64) (*models.Token, error) {
	value, err := ts.newValue()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	token := &models.Token{
		UserID:  userID,
		Token:   value,
		Expires: ts.now().Add(ts.validity).UTC(),
	}
	if err := ts.repos.Bind(db).CreateToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Resolve returns the owner of a token that is still valid. Unknown and expired
// tokens are both ErrNotFound.
func (ts *TokenStore) Resolve(ctx context.Context, db dbx.DBTX, value string) (*models.User, error) {
	if value == "" {
		return nil, ErrNotFound
	}
	return ts.repos.Bind(db).FindUserByToken(ctx, value, ts.now())
}

// Purge deletes tokens that have already expired.
func (ts *TokenStore) Purge(ctx context.Context, db dbx.DBTX) (int64, error) {
	return ts.repos.Bind(db).DeleteExpiredTokens(ctx, ts.now())
}
