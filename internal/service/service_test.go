package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DKhorkov/FastApi/internal/dbx"
	"github.com/DKhorkov/FastApi/internal/models"
	"github.com/DKhorkov/FastApi/internal/repository"
	"github.com/DKhorkov/FastApi/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryService(t *testing.T) (*Service, *repository.MemoryStore, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	store := repository.NewMemoryStore()
	return NewService(dbx.NoTx{}, store, log, 0), store, hook
}

func register(t *testing.T, s *Service, username, email, password string) *models.User {
	t.Helper()
	u, err := s.Register(context.Background(), username, email, password)
	require.NoError(t, err)
	return u
}

type fakeMailer struct {
	to, username string
	err          error
}

func (m *fakeMailer) SendWelcome(to, username string) error {
	m.to, m.username = to, username
	return m.err
}

func TestRegister(t *testing.T) {
	s, store, _ := newMemoryService(t)
	mailer := &fakeMailer{}
	s.SetMailer(mailer)

	u := register(t, s, " alice ", "alice@example.com", "secret1")
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "secret1", u.HashedPassword)
	assert.True(t, utils.VerifyPassword("secret1", u.HashedPassword))
	assert.Equal(t, "alice@example.com", mailer.to)

	stored, err := store.FindUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
}

func TestRegister_Duplicate(t *testing.T) {
	s, _, _ := newMemoryService(t)
	register(t, s, "alice", "alice@example.com", "secret1")

	_, err := s.Register(context.Background(), "alice2", "alice@example.com", "other")
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestRegister_Validation(t *testing.T) {
	s, _, _ := newMemoryService(t)
	cases := []struct{ username, email, password string }{
		{"", "alice@example.com", "secret1"},
		{"alice", "not-an-email", "secret1"},
		{"alice", "Alice <alice@example.com>", "secret1"},
		{"alice", "alice@example.com", ""},
	}
	for _, c := range cases {
		_, err := s.Register(context.Background(), c.username, c.email, c.password)
		assert.ErrorIs(t, err, ErrValidation, "%+v", c)
	}
}

func TestRegister_MailFailureIsNotFatal(t *testing.T) {
	s, _, hook := newMemoryService(t)
	s.SetMailer(&fakeMailer{err: errors.New("smtp down")})

	register(t, s, "alice", "alice@example.com", "secret1")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLogin(t *testing.T) {
	s, _, _ := newMemoryService(t)
	u := register(t, s, "alice", "alice@example.com", "secret1")

	before := time.Now()
	token, err := s.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, token.UserID)
	assert.Len(t, token.Token, 32)
	assert.WithinDuration(t, before.Add(DefaultTokenTTL), token.Expires, 5*time.Second)
	assert.Equal(t, "bearer", token.TokenType())

	again, err := s.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, token.Token, again.Token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s, _, _ := newMemoryService(t)
	register(t, s, "alice", "alice@example.com", "secret1")

	_, err := s.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_MalformedStoredHash(t *testing.T) {
	s, store, hook := newMemoryService(t)
	bad := &models.User{Username: "eve", Email: "eve@example.com", HashedPassword: "nodollar", IsActive: true}
	require.NoError(t, store.CreateUser(context.Background(), bad))

	_, err := s.Login(context.Background(), "eve@example.com", "nodollar")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, bad.ID, hook.LastEntry().Data["user_id"])
}

func TestPurgeExpiredTokens(t *testing.T) {
	s, _, _ := newMemoryService(t)
	register(t, s, "alice", "alice@example.com", "secret1")
	tok, err := s.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	n, err := s.PurgeExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	s.tokens.now = func() time.Time { return tok.Expires }
	n, err = s.PurgeExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// Register, log in, create, toggle, rejected foreign toggle, delete.
func TestScenario_TwoUsers(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newMemoryService(t)

	register(t, s, "alice", "alice@example.com", "secret1")
	register(t, s, "bob", "bob@example.com", "secret2")

	aliceTok, err := s.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	bobTok, err := s.Login(ctx, "bob@example.com", "secret2")
	require.NoError(t, err)

	aliceRes, err := s.ResolveIdentity(ctx, map[string]string{utils.AccessTokenCookie: utils.BearerValue(aliceTok.Token)})
	require.NoError(t, err)
	require.Equal(t, Authenticated, aliceRes.Status)
	alice := aliceRes.User

	bobRes, err := s.ResolveIdentity(ctx, map[string]string{utils.AccessTokenCookie: utils.BearerValue(bobTok.Token)})
	require.NoError(t, err)
	bob := bobRes.User

	task, err := s.CreateTask(ctx, alice, "buy milk")
	require.NoError(t, err)
	assert.False(t, task.IsComplete)

	task, err = s.ToggleTask(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.True(t, task.IsComplete)

	_, err = s.ToggleTask(ctx, bob, task.ID)
	assert.ErrorIs(t, err, ErrOwnershipDenied)
	assert.ErrorIs(t, err, ErrNotFound)

	tasks, err := s.ListTasks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].IsComplete)

	bobTasks, err := s.ListTasks(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobTasks)

	assert.ErrorIs(t, s.DeleteTask(ctx, bob, task.ID), ErrOwnershipDenied)
	require.NoError(t, s.DeleteTask(ctx, alice, task.ID))

	tasks, err = s.ListTasks(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
