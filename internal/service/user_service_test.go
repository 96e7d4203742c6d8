package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

func TestUserServiceAdministration(t *testing.T) {
	db := setupServiceDB(t)
	activity := NewActivityService(repository.NewActivityLogRepository(db), testLogger())
	svc := NewUserService(repository.NewUserRepository(db), activity, testValidator(), testLogger())
	ctx := context.Background()

	_, admin := seedUser(t, db, "admin", models.UserStatusActive)
	applicant, applicantActor := seedUser(t, db, "instructor", models.UserStatusPendingApproval)
	seedUser(t, db, "student", models.UserStatusActive)

	_, err := svc.List(ctx, applicantActor, dto.UserListRequest{})
	requireStatus(t, err, http.StatusForbidden)

	_, err = svc.List(ctx, admin, dto.UserListRequest{Status: "banned"})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.List(ctx, admin, dto.UserListRequest{Role: "tutor"})
	requireStatus(t, err, http.StatusBadRequest)

	pending, err := svc.List(ctx, admin, dto.UserListRequest{Status: models.UserStatusPendingApproval})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	require.Equal(t, applicant.ID, pending.Items[0].ID)

	created, err := svc.Create(ctx, admin, dto.UserCreateRequest{Name: "New Student", Email: "new@example.com", Password: "supersecret", Role: "student"})
	require.NoError(t, err)
	require.Equal(t, models.UserStatusActive, created.Status)

	_, err = svc.Create(ctx, admin, dto.UserCreateRequest{Name: "Again", Email: "new@example.com", Password: "supersecret", Role: "student"})
	requireStatus(t, err, http.StatusBadRequest)

	approved, err := svc.UpdateStatus(ctx, admin, applicant.ID, dto.UserStatusUpdateRequest{Status: models.UserStatusActive})
	require.NoError(t, err)
	require.Equal(t, models.UserStatusActive, approved.Entity.Status)
	require.Len(t, approved.Events, 1)
	require.Equal(t, applicant.ID, approved.Events[0].UserID)
	require.Equal(t, models.NotificationAccountStatus, approved.Events[0].Type)

	suspended, err := svc.UpdateStatus(ctx, admin, applicant.ID, dto.UserStatusUpdateRequest{Status: models.UserStatusSuspended})
	require.NoError(t, err)
	require.Empty(t, suspended.Events)

	_, err = svc.UpdateStatus(ctx, admin, admin.ID, dto.UserStatusUpdateRequest{Status: models.UserStatusInactive})
	requireStatus(t, err, http.StatusBadRequest)

	promoted, err := svc.UpdateRole(ctx, admin, created.ID, dto.UserRoleUpdateRequest{Role: "instructor"})
	require.NoError(t, err)
	require.Equal(t, "instructor", promoted.Entity.Role)

	_, err = svc.UpdateRole(ctx, admin, admin.ID, dto.UserRoleUpdateRequest{Role: "student"})
	requireStatus(t, err, http.StatusBadRequest)

	var logged int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Count(&logged).Error)
	require.EqualValues(t, 4, logged)

	history, err := activity.List(ctx, admin, dto.AdminActivityListRequest{EntityType: "user", EntityID: applicant.ID})
	require.NoError(t, err)
	require.Len(t, history.Items, 2)

	_, err = activity.List(ctx, admin, dto.AdminActivityListRequest{Since: "yesterday"})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = activity.List(ctx, applicantActor, dto.AdminActivityListRequest{})
	requireStatus(t, err, http.StatusForbidden)
}

func TestSeedServiceEnsureAdminIsIdempotent(t *testing.T) {
	db := setupServiceDB(t)
	users := repository.NewUserRepository(db)
	svc := NewSeedService(users, testLogger())
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "  Root@Example.com ", "changeme123")
	require.NoError(t, err)
	require.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "root@example.com", "changeme123")
	require.NoError(t, err)
	require.False(t, created)

	created, err = svc.EnsureAdmin(ctx, "", "")
	require.NoError(t, err)
	require.False(t, created)

	admin, err := users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.Equal(t, "admin", admin.Role)
	require.Equal(t, models.UserStatusActive, admin.Status)
	require.NotEqual(t, "changeme123", admin.PasswordHash)
}
