package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// SeedService provisions the accounts the platform needs before first use.
type SeedService interface {
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type seedService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, logger zerolog.Logger) SeedService {
	return &seedService{
		users:  users,
		logger: logger.With().Str("component", "seed_service").Logger(),
	}
}

// EnsureAdmin creates the bootstrap administrator when no account uses the
// email yet. It reports whether an account was created.
func (s *seedService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != policy.RoleAdmin {
			s.logger.Warn().Str("user_id", existing.ID).Msg("bootstrap admin email belongs to a non-admin account")
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         policy.RoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := s.users.Create(ctx, &admin); err != nil {
		if repository.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info().Str("user_id", admin.ID).Str("email", maskEmailAddress(email)).Msg("bootstrap admin created")
	return true, nil
}
