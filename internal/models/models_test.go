package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToggleLike(t *testing.T) {
	likes, liked := ToggleLike(nil, "u1")
	require.True(t, liked)
	require.Equal(t, []string{"u1"}, likes)

	likes, liked = ToggleLike(likes, "u2")
	require.True(t, liked)
	require.ElementsMatch(t, []string{"u1", "u2"}, likes)

	likes, liked = ToggleLike(likes, "u1")
	require.False(t, liked)
	require.Equal(t, []string{"u2"}, likes)
}

func TestAssignmentIsPastDue(t *testing.T) {
	due := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	assignment := Assignment{DueDate: &due}
	require.False(t, assignment.IsPastDue(due.Add(-time.Hour)))
	require.True(t, assignment.IsPastDue(due.Add(time.Minute)))
	require.False(t, Assignment{}.IsPastDue(due))
}

func TestUserCanSignIn(t *testing.T) {
	require.True(t, User{Status: UserStatusActive}.CanSignIn())
	require.True(t, User{Status: UserStatusPendingApproval}.CanSignIn())
	require.False(t, User{Status: UserStatusSuspended}.CanSignIn())
	require.False(t, User{Status: UserStatusInactive}.CanSignIn())
}
