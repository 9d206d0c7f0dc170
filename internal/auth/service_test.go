package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/roles"
	"github.com/clubforge/clubforge/internal/shared"
)

type stubUsers struct {
	users map[string]directory.User
	err   error
}

func (s *stubUsers) GetUserByEmail(ctx context.Context, email string) (directory.User, error) {
	if s.err != nil {
		return directory.User{}, s.err
	}
	u, ok := s.users[email]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	return u, nil
}

type stubSessions struct {
	created []string
	deleted []string
}

func (s *stubSessions) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	s.created = append(s.created, id)
	return nil
}

func (s *stubSessions) DeleteSession(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	users := &stubUsers{users: map[string]directory.User{
		"coach@example.com": {
			ID:           "user-1",
			Email:        "coach@example.com",
			PasswordHash: hashPassword(t, "correct-horse"),
			Role:         roles.Trainer,
			IsActive:     true,
		},
		"dormant@example.com": {
			ID:           "user-2",
			Email:        "dormant@example.com",
			PasswordHash: hashPassword(t, "correct-horse"),
			Role:         roles.User,
			IsActive:     false,
		},
	}}
	svc := NewService(users, &stubSessions{})

	user, err := svc.Authenticate(context.Background(), "coach@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	_, err = svc.Authenticate(context.Background(), "coach@example.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "dormant@example.com", "correct-horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInfrastructureError(t *testing.T) {
	boom := errors.New("directory down")
	svc := NewService(&stubUsers{err: boom}, &stubSessions{})

	_, err := svc.Authenticate(context.Background(), "coach@example.com", "correct-horse")
	assert.ErrorIs(t, err, boom)
}
