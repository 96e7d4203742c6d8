package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// AuthRoleAny accepts any authenticated role.
const AuthRoleAny = "any"

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a single handler with authentication and role guards.
// Role may be AuthRoleAny or one of the policy roles.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := policy.NormalizeRole(opts.Role)
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		actor := ActorFromContext(c)
		if !actor.IsAuthenticated() {
			if requireUser {
				return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
			}
			return handler(c)
		}

		if role != AuthRoleAny && actor.Role != role {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		return handler(c)
	}
}
