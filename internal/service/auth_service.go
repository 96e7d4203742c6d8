package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

// AuthConfig defines configuration for token issuance.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService provides registration, login and profile lookups.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, actor policy.Actor) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger, config AuthConfig) AuthService {
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &authService{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		config:    config,
		now:       time.Now,
	}
}

// Register creates an instructor application. Students and admins are
// provisioned by administrators.
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}
	if policy.NormalizeRole(req.Role) != policy.RoleInstructor {
		return dto.AuthResponse{}, forbidden("only instructor accounts can self-register")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return dto.AuthResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         policy.RoleInstructor,
		Status:       models.UserStatusPendingApproval,
		Bio:          strings.TrimSpace(req.Bio),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if repository.IsUniqueViolation(err) {
			return dto.AuthResponse{}, conflict("email already registered")
		}
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("instructor application registered")

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return dto.AuthResponse{}, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	if req.Role != "" && policy.NormalizeRole(req.Role) != policy.NormalizeRole(user.Role) {
		return dto.AuthResponse{}, forbidden("role mismatch")
	}
	if !user.CanSignIn() {
		return dto.AuthResponse{}, appErrors.Clone(appErrors.ErrInactiveAccount, "account is "+strings.ReplaceAll(user.Status, "_", " "))
	}

	loginAt := s.now().UTC()
	user.LastLoginAt = &loginAt
	if err := s.users.Update(ctx, &user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
	}

	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, actor policy.Actor) (dto.UserResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.UserResponse{}, err
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return dto.UserResponse{}, lookup(err, "user not found")
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  issuedAt.Unix(),
		"exp":  expiresAt.Unix(),
	}
	if s.config.Issuer != "" {
		claims["iss"] = s.config.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return dto.AuthResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return dto.AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}

// HashPassword hashes a plain-text password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
