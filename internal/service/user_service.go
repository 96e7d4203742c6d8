package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// UserService exposes administrator account management.
type UserService interface {
	List(ctx context.Context, actor policy.Actor, req dto.UserListRequest) (dto.UserListResponse, error)
	Create(ctx context.Context, actor policy.Actor, req dto.UserCreateRequest) (dto.UserResponse, error)
	UpdateRole(ctx context.Context, actor policy.Actor, id string, req dto.UserRoleUpdateRequest) (OperationResult[dto.UserResponse], error)
	UpdateStatus(ctx context.Context, actor policy.Actor, id string, req dto.UserStatusUpdateRequest) (OperationResult[dto.UserResponse], error)
}

type userService struct {
	users     repository.UserRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService constructs the user administration service.
func NewUserService(users repository.UserRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, actor policy.Actor, req dto.UserListRequest) (dto.UserListResponse, error) {
	if !actor.IsAdmin() {
		return dto.UserListResponse{}, forbidden("admin role required")
	}
	req.Status = strings.TrimSpace(req.Status)
	if req.Status != "" && !models.ValidUserStatus(req.Status) {
		return dto.UserListResponse{}, invalid("unknown status filter")
	}
	if req.Role != "" && !policy.ValidRole(req.Role) {
		return dto.UserListResponse{}, invalid("unknown role filter")
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	users, total, err := s.users.List(ctx, repository.UserFilter{
		Page:     page,
		PageSize: pageSize,
		Role:     policy.NormalizeRole(req.Role),
		Status:   req.Status,
		Search:   strings.TrimSpace(req.Search),
	})
	if err != nil {
		return dto.UserListResponse{}, err
	}

	return dto.UserListResponse{
		Items:      dto.NewUserResponseSlice(users),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *userService) Create(ctx context.Context, actor policy.Actor, req dto.UserCreateRequest) (dto.UserResponse, error) {
	if !actor.IsAdmin() {
		return dto.UserResponse{}, forbidden("admin role required")
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         policy.NormalizeRole(req.Role),
		Status:       models.UserStatusActive,
		Bio:          strings.TrimSpace(req.Bio),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if repository.IsUniqueViolation(err) {
			return dto.UserResponse{}, conflict("email already registered")
		}
		return dto.UserResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "user.created",
		EntityType: "user",
		EntityID:   user.ID,
		Metadata:   map[string]interface{}{"role": user.Role, "email": user.Email},
	})

	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateRole(ctx context.Context, actor policy.Actor, id string, req dto.UserRoleUpdateRequest) (OperationResult[dto.UserResponse], error) {
	if !actor.IsAdmin() {
		return OperationResult[dto.UserResponse]{}, forbidden("admin role required")
	}
	if err := s.validator.Struct(req); err != nil {
		return OperationResult[dto.UserResponse]{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return OperationResult[dto.UserResponse]{}, lookup(err, "user not found")
	}

	previous := user.Role
	next := policy.NormalizeRole(req.Role)
	if previous == next {
		return result(dto.NewUserResponse(user)), nil
	}
	if user.ID == actor.ID {
		return OperationResult[dto.UserResponse]{}, invalid("admins cannot change their own role")
	}

	user.Role = next
	if err := s.users.Update(ctx, &user); err != nil {
		return OperationResult[dto.UserResponse]{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "user.role_changed",
		EntityType: "user",
		EntityID:   user.ID,
		Metadata:   map[string]interface{}{"from": previous, "to": next},
	})

	return result(dto.NewUserResponse(user)), nil
}

// UpdateStatus changes an account status. Decisions on instructor
// applications notify the applicant.
func (s *userService) UpdateStatus(ctx context.Context, actor policy.Actor, id string, req dto.UserStatusUpdateRequest) (OperationResult[dto.UserResponse], error) {
	if !actor.IsAdmin() {
		return OperationResult[dto.UserResponse]{}, forbidden("admin role required")
	}
	if err := s.validator.Struct(req); err != nil {
		return OperationResult[dto.UserResponse]{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return OperationResult[dto.UserResponse]{}, lookup(err, "user not found")
	}

	previous := user.Status
	if previous == req.Status {
		return result(dto.NewUserResponse(user)), nil
	}
	if user.ID == actor.ID {
		return OperationResult[dto.UserResponse]{}, invalid("admins cannot change their own status")
	}

	user.Status = req.Status
	if err := s.users.Update(ctx, &user); err != nil {
		return OperationResult[dto.UserResponse]{}, err
	}

	metadata := map[string]interface{}{"from": previous, "to": user.Status}
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		metadata["reason"] = reason
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "user.status_changed",
		EntityType: "user",
		EntityID:   user.ID,
		Metadata:   metadata,
	})

	events := []dto.NotificationRequest{}
	if previous == models.UserStatusPendingApproval {
		events = append(events, accountStatusEvent(user, req.Reason))
	}

	return result(dto.NewUserResponse(user), events...), nil
}

func accountStatusEvent(user models.User, reason string) dto.NotificationRequest {
	title := "Account status updated"
	message := fmt.Sprintf("Your account status is now %s.", strings.ReplaceAll(user.Status, "_", " "))
	switch user.Status {
	case models.UserStatusActive:
		title = "Instructor application approved"
		message = "Your instructor application has been approved. You can now publish courses."
	case models.UserStatusRejectedApplication:
		title = "Instructor application rejected"
		message = "Your instructor application was not approved."
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		message += " Reason: " + reason
	}
	return dto.NotificationRequest{
		UserID:      user.ID,
		Type:        models.NotificationAccountStatus,
		Title:       title,
		Message:     message,
		RelatedType: "user",
		RelatedID:   user.ID,
	}
}
