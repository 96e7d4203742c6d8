package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type ownedResource string

func (o ownedResource) OwnerID() string { return string(o) }

func TestCanManage(t *testing.T) {
	course := ownedResource("instructor-1")

	require.True(t, CanManage(Actor{ID: "admin-1", Role: RoleAdmin}, course))
	require.True(t, CanManage(Actor{ID: "instructor-1", Role: RoleInstructor}, course))
	require.False(t, CanManage(Actor{ID: "instructor-2", Role: RoleInstructor}, course))
	require.False(t, CanManage(Actor{ID: "student-1", Role: RoleStudent}, course))
	require.False(t, CanManage(Actor{}, course))
	require.False(t, CanManage(Actor{ID: "x", Role: RoleStudent}, ownedResource("")))
}

func TestCanManageAdminRoleIsCaseInsensitive(t *testing.T) {
	require.True(t, CanManage(Actor{ID: "root", Role: " Admin "}, ownedResource("someone")))
}

func TestComputeProgressBounds(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 10, 0},
		{3, 10, 30},
		{10, 10, 100},
		{12, 10, 100},
		{1, 3, 33},
		{2, 3, 67},
		{5, 0, 0},
		{-1, 4, 0},
	}
	for _, tc := range cases {
		got := ComputeProgress(tc.completed, tc.total)
		require.Equal(t, tc.want, got, "completed=%d total=%d", tc.completed, tc.total)
		require.GreaterOrEqual(t, got, 0)
		require.LessOrEqual(t, got, 100)
	}
}

func TestPercentageScoreAvoidsDivideByZero(t *testing.T) {
	require.Equal(t, 0.0, PercentageScore(0, 0))
	require.Equal(t, 50.0, PercentageScore(2, 4))
}

func TestValidRole(t *testing.T) {
	require.True(t, ValidRole("Instructor"))
	require.False(t, ValidRole("tutor"))
}
