package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
)

func TestDiscussionThreadNotifiesAuthor(t *testing.T) {
	app := setupApp(t)
	_, instructorToken := app.seedUser(t, "instructor")
	_, adminToken := app.seedUser(t, "admin")
	author, authorToken := app.seedUser(t, "student")
	_, classmateToken := app.seedUser(t, "student")
	_, outsiderToken := app.seedUser(t, "student")

	courseID, _ := app.approvedCourse(t, instructorToken, adminToken, 1)
	for _, token := range []string{authorToken, classmateToken} {
		resp, env := app.do(t, http.MethodPost, "/api/v1/enrollments", token, map[string]string{"course_id": courseID})
		require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	}

	resp, env := app.do(t, http.MethodPost, "/api/v1/courses/"+courseID+"/discussions", authorToken, map[string]string{
		"title":   "Select with default",
		"content": "When does the default branch run?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	post := decode[dto.DiscussionPostResponse](t, env)

	resp, _ = app.do(t, http.MethodPost, "/api/v1/courses/"+courseID+"/discussions", outsiderToken, map[string]string{
		"title":   "Let me in",
		"content": "Not enrolled",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = app.do(t, http.MethodPost, "/api/v1/discussions/"+post.ID+"/comments", classmateToken, map[string]string{
		"content": "When no other case is ready.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	comment := decode[dto.DiscussionCommentResponse](t, env)

	resp, env = app.do(t, http.MethodPost, "/api/v1/discussions/"+post.ID+"/like", classmateToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	like := decode[dto.LikeResponse](t, env)
	require.True(t, like.Liked)
	require.Equal(t, 1, like.LikeCount)

	resp, env = app.do(t, http.MethodPost, "/api/v1/discussions/"+post.ID+"/like", classmateToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.False(t, decode[dto.LikeResponse](t, env).Liked)

	resp, _ = app.do(t, http.MethodPut, "/api/v1/discussions/comments/"+comment.ID, authorToken, map[string]string{"content": "hijacked"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = app.do(t, http.MethodGet, "/api/v1/discussions/"+post.ID, authorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.Len(t, decode[dto.DiscussionPostResponse](t, env).Comments, 1)

	resp, env = app.do(t, http.MethodGet, "/api/v1/notifications", authorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	items := decode[dto.NotificationListResponse](t, env).Items
	require.Len(t, items, 1)
	require.Equal(t, models.NotificationComment, items[0].Type)
	require.Equal(t, author.ID, items[0].UserID)

	resp, env = app.do(t, http.MethodGet, "/api/v1/notifications", classmateToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.Empty(t, decode[dto.NotificationListResponse](t, env).Items)
}

func TestAdminApprovesInstructorApplication(t *testing.T) {
	app := setupApp(t)
	_, adminToken := app.seedUser(t, "admin")

	resp, env := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Grace Hopper",
		"email":    "grace@example.com",
		"password": "supersecret",
		"role":     "instructor",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	applicant := decode[dto.AuthResponse](t, env)

	resp, env = app.do(t, http.MethodPut, "/api/v1/admin/users/"+applicant.User.ID+"/status", adminToken, map[string]string{
		"status": models.UserStatusActive,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.Equal(t, models.UserStatusActive, decode[dto.UserResponse](t, env).Status)

	resp, env = app.do(t, http.MethodGet, "/api/v1/notifications", applicant.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	items := decode[dto.NotificationListResponse](t, env).Items
	require.Len(t, items, 1)
	require.Equal(t, models.NotificationAccountStatus, items[0].Type)

	resp, env = app.do(t, http.MethodPost, "/api/v1/courses", applicant.Token, map[string]string{"title": "Compilers"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	resp, env = app.do(t, http.MethodGet, "/api/v1/admin/activities?action=user.status_changed", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	resp, env = app.do(t, http.MethodGet, "/api/v1/admin/overview", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
}
