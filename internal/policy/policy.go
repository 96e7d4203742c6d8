// Package policy holds the authorization rules shared by every service: the
// authenticated actor, the role set and the ownership-or-admin predicate.
package policy

import (
	"math"
	"strings"
)

// Role names as carried by the bearer token.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

// Owned is implemented by resources that have a single owning user.
type Owned interface {
	OwnerID() string
}

// NormalizeRole lower-cases and trims a role value.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch NormalizeRole(role) {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAuthenticated reports whether the actor carries an identity.
func (a Actor) IsAuthenticated() bool {
	return strings.TrimSpace(a.ID) != ""
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return NormalizeRole(a.Role) == RoleAdmin
}

// IsInstructor reports whether the actor has the instructor role.
func (a Actor) IsInstructor() bool {
	return NormalizeRole(a.Role) == RoleInstructor
}

// IsStudent reports whether the actor has the student role.
func (a Actor) IsStudent() bool {
	return NormalizeRole(a.Role) == RoleStudent
}

// CanManage is the single ownership rule: admins manage everything, everyone
// else manages only what they own.
func CanManage(actor Actor, resource Owned) bool {
	if !actor.IsAuthenticated() {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if resource == nil {
		return false
	}
	owner := resource.OwnerID()
	return owner != "" && owner == actor.ID
}

// ComputeProgress returns round(min(completed,total)/total*100), or 0 when the
// course has no lessons.
func ComputeProgress(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// PercentageScore returns score/total*100 guarding against empty quizzes.
func PercentageScore(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}
