package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo   *Repository
	secret string
	ttl    time.Duration
	logger *slog.Logger
}

func NewService(repo *Repository, secret string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		secret: secret,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return GenerateToken(s.secret, user.Username, s.ttl)
}

// EnsureAdmin seeds the configured admin user on startup if it does not
// exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.repo.Create(ctx, &AdminUser{
		Username:     username,
		PasswordHash: string(hash),
	}); err != nil {
		return err
	}

	s.logger.Info("admin user seeded", "username", username)
	return nil
}
