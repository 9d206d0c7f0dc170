package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/shared"
)

// DirectoryPort resolves user accounts for credential checks.
type DirectoryPort interface {
	GetUserByEmail(ctx context.Context, email string) (directory.User, error)
}

// SessionRepositoryPort persists login sessions for auditing.
type SessionRepositoryPort interface {
	CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// Service wraps authentication business rules.
type Service struct {
	users    DirectoryPort
	sessions SessionRepositoryPort
}

// NewService constructs a new Service.
func NewService(users DirectoryPort, sessions SessionRepositoryPort) *Service {
	return &Service{users: users, sessions: sessions}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (directory.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return directory.User{}, shared.ErrInvalidCredentials
		}
		return directory.User{}, err
	}
	if !user.IsActive {
		return directory.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return directory.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return s.sessions.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.sessions.DeleteSession(ctx, id)
}
