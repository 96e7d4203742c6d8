package handler_test

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
)

func TestNotificationInbox(t *testing.T) {
	app := setupApp(t)
	student, studentToken := app.seedUser(t, "student")
	_, otherToken := app.seedUser(t, "student")

	delivered := app.notifications.Dispatch(context.Background(),
		dto.NotificationRequest{UserID: student.ID, Type: models.NotificationGrade, Title: "Graded", Message: "Your essay was graded."},
		dto.NotificationRequest{UserID: student.ID, Type: models.NotificationComment, Title: "Comment", Message: "<b>Someone</b> replied."},
	)
	require.Len(t, delivered, 2)

	resp, env := app.do(t, http.MethodGet, "/api/v1/notifications/unread-count", studentToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.EqualValues(t, 2, decode[dto.UnreadCountResponse](t, env).Unread)

	resp, _ = app.do(t, http.MethodPatch, "/api/v1/notifications/"+delivered[0].ID+"/read", otherToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = app.do(t, http.MethodPatch, "/api/v1/notifications/"+delivered[0].ID+"/read", studentToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.True(t, decode[dto.NotificationResponse](t, env).IsRead)

	resp, env = app.do(t, http.MethodGet, "/api/v1/notifications?unread=true", studentToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	unread := decode[dto.NotificationListResponse](t, env).Items
	require.Len(t, unread, 1)
	require.NotContains(t, unread[0].Message, "<b>")

	resp, env = app.do(t, http.MethodPatch, "/api/v1/notifications/read-all", studentToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.EqualValues(t, 1, decode[dto.MarkAllReadResponse](t, env).Updated)

	resp, env = app.do(t, http.MethodDelete, "/api/v1/notifications/"+delivered[1].ID, studentToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	resp, env = app.do(t, http.MethodGet, "/api/v1/notifications", studentToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.Len(t, decode[dto.NotificationListResponse](t, env).Items, 1)
}

func TestNotificationWebSocketDelivery(t *testing.T) {
	app := setupApp(t)
	student, studentToken := app.seedUser(t, "student")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.app.Listener(ln) }()
	t.Cleanup(func() { _ = app.app.Shutdown() })

	url := "ws://" + ln.Addr().String() + "/api/v1/notifications/ws?token=" + studentToken
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer conn.Close()

	received := make(chan dto.NotificationResponse, 1)
	go func() {
		var notification dto.NotificationResponse
		if err := conn.ReadJSON(&notification); err == nil {
			received <- notification
		}
	}()

	// The server subscribes after the upgrade completes, so keep sending
	// until the first live event arrives.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case notification := <-received:
			require.Equal(t, student.ID, notification.UserID)
			require.Equal(t, models.NotificationEnrollment, notification.Type)
			return
		case <-ticker.C:
			app.notifications.Dispatch(context.Background(), dto.NotificationRequest{
				UserID:  student.ID,
				Type:    models.NotificationEnrollment,
				Title:   "Welcome",
				Message: "You are enrolled.",
			})
		case <-timeout:
			t.Fatal("no notification received over websocket")
		}
	}
}

func TestNotificationWebSocketRejectsAnonymous(t *testing.T) {
	app := setupApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.app.Listener(ln) }()
	t.Cleanup(func() { _ = app.app.Shutdown() })

	var resp *http.Response
	require.Eventually(t, func() bool {
		_, resp, err = websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/v1/notifications/ws", nil)
		return resp != nil
	}, 2*time.Second, 20*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
