package handler

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/dto"
)

func TestWriteNotificationEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, writeNotificationEvent(w, dto.NotificationResponse{ID: "n-1", UserID: "u-1", Type: "grade", Title: "Graded"}))

	lines := strings.Split(buf.String(), "\n")
	require.Equal(t, "event: notification", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "data: "))
	require.True(t, strings.HasSuffix(buf.String(), "\n\n"))

	var decoded dto.NotificationResponse
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &decoded))
	require.Equal(t, "n-1", decoded.ID)
	require.Equal(t, "grade", decoded.Type)
}

func TestWriteKeepAliveIsComment(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, writeKeepAlive(w))
	require.True(t, strings.HasPrefix(buf.String(), ": keep-alive "))
	require.True(t, strings.HasSuffix(buf.String(), "\n\n"))
}
