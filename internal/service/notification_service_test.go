package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

func TestNotificationDispatchDeliversAndDropsUnknownUsers(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), repository.NewUserRepository(db), nil, nil, "", testValidator(), testLogger())
	ctx := context.Background()

	_, student := seedUser(t, db, "student", models.UserStatusActive)

	stream, cancel := svc.Subscribe(student.ID, TransportSSE)
	defer cancel()

	delivered := svc.Dispatch(ctx,
		dto.NotificationRequest{UserID: student.ID, Type: models.NotificationGrade, Title: "Graded <i>now</i>", Message: "You scored 90"},
		dto.NotificationRequest{UserID: "ghost", Type: models.NotificationGrade, Title: "Graded", Message: "nobody home"},
	)
	require.Len(t, delivered, 1)
	require.Equal(t, "Graded now", delivered[0].Title)

	select {
	case live := <-stream:
		require.Equal(t, delivered[0].ID, live.ID)
	case <-time.After(time.Second):
		t.Fatal("expected live notification")
	}

	unread, err := svc.UnreadCount(ctx, student)
	require.NoError(t, err)
	require.EqualValues(t, 1, unread.Unread)

	marked, err := svc.MarkAllRead(ctx, student)
	require.NoError(t, err)
	require.EqualValues(t, 1, marked.Updated)

	unread, err = svc.UnreadCount(ctx, student)
	require.NoError(t, err)
	require.Zero(t, unread.Unread)
}

func TestNotificationOwnershipIsEnforced(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), repository.NewUserRepository(db), nil, nil, "", testValidator(), testLogger())
	ctx := context.Background()

	_, owner := seedUser(t, db, "student", models.UserStatusActive)
	_, other := seedUser(t, db, "student", models.UserStatusActive)

	delivered := svc.Dispatch(ctx, dto.NotificationRequest{UserID: owner.ID, Type: models.NotificationComment, Title: "New comment", Message: "hello"})
	require.Len(t, delivered, 1)

	_, err := svc.MarkRead(ctx, other, delivered[0].ID)
	requireStatus(t, err, http.StatusNotFound)

	err = svc.Delete(ctx, other, delivered[0].ID)
	requireStatus(t, err, http.StatusNotFound)

	read, err := svc.MarkRead(ctx, owner, delivered[0].ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
}

func TestNotificationFanOutAcrossNodes(t *testing.T) {
	db := setupServiceDB(t)
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	const channel = "notifications:events"
	newNode := func() NotificationService {
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return NewNotificationService(repository.NewNotificationRepository(db), repository.NewUserRepository(db), client, nil, channel, testValidator(), testLogger())
	}
	producer := newNode()
	consumer := newNode()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer.Start(ctx)

	require.Eventually(t, func() bool {
		return server.PubSubNumSub(channel)[channel] > 0
	}, 2*time.Second, 10*time.Millisecond)

	_, student := seedUser(t, db, "student", models.UserStatusActive)
	stream, unsubscribe := consumer.Subscribe(student.ID, TransportWebSocket)
	defer unsubscribe()

	delivered := producer.Dispatch(ctx, dto.NotificationRequest{UserID: student.ID, Type: models.NotificationEnrollment, Title: "Welcome", Message: "enrolled"})
	require.Len(t, delivered, 1)

	select {
	case live := <-stream:
		require.Equal(t, delivered[0].ID, live.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected notification relayed through redis")
	}
}
