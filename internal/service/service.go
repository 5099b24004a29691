package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/DKhorkov/FastApi/internal/dbx"
	"github.com/DKhorkov/FastApi/internal/models"
	"github.com/DKhorkov/FastApi/internal/repository"
	"github.com/DKhorkov/FastApi/internal/utils"
	"github.com/sirupsen/logrus"
)

// WelcomeMailer sends the post-registration mail.
type WelcomeMailer interface {
	SendWelcome(to, username string) error
}

// Service handles business logic
type Service struct {
	tx     dbx.Transactor
	repos  repository.Manager
	tokens *TokenStore
	mailer WelcomeMailer
	log    *logrus.Logger
}

// NewService initializes a new service
func NewService(tx dbx.Transactor, repos repository.Manager, log *logrus.Logger, tokenTTL time.Duration) *Service {
	return &Service{
		tx:     tx,
		repos:  repos,
		tokens: NewTokenStore(repos, tokenTTL),
		log:    log,
	}
}

// SetMailer enables welcome mails.
func (s *Service) SetMailer(m WelcomeMailer) {
	s.mailer = m
}

// Register creates a new active user with a salted password hash
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: utils.EncodePassword(password),
		IsActive:       true,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		store := s.repos.Bind(tx)
		if _, err := store.FindUserByEmail(ctx, email); err == nil {
			return ErrDuplicateRegistration
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := store.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateRegistration
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(user.Email, user.Username); err != nil {
			s.log.WithError(err).Warnf("Welcome mail to %s failed", user.Email)
		}
	}
	return user, nil
}

func validateRegistration(username, email, password string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, email)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}

// Login checks the credentials and issues a new bearer token
func (s *Service) Login(ctx context.Context, email, password string) (*models.Token, error) {
	var token *models.Token
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repos.Bind(tx).FindUserByEmail(ctx, strings.TrimSpace(email))
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		if _, _, err := utils.ParseStoredPassword(user.HashedPassword); err != nil {
			s.log.WithFields(logrus.Fields{"user_id": user.ID}).Warn("Stored password hash is malformed")
			return ErrInvalidCredentials
		}
		if !utils.VerifyPassword(password, user.HashedPassword) {
			return ErrInvalidCredentials
		}

		token, err = s.tokens.Issue(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("User logged in: %d", token.UserID)
	return token, nil
}

// PurgeExpiredTokens removes token rows that can no longer authenticate anyone.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	var n int64
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = s.tokens.Purge(ctx, tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
