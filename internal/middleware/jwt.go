package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// Locals keys populated by the authentication middleware.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

// JWTProtected returns a middleware that validates HS256 bearer tokens.
// Browsers cannot set headers on EventSource or WebSocket requests, so a
// "token" query parameter is accepted when the header is absent.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		if err := authenticate(c, secret, tokenString); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		return c.Next()
	}
}

// OptionalJWT populates the actor when a valid token is present and lets
// anonymous or badly authenticated requests through as visitors.
func OptionalJWT(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, err := bearerToken(c); err == nil {
			_ = authenticate(c, secret, tokenString)
		}
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, secret, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("invalid token claims")
	}

	userID := extractUserIDFromClaims(claims)
	if userID == "" {
		return fmt.Errorf("token subject missing")
	}

	c.Locals(LocalUserID, userID)
	if role := extractUserRoleFromClaims(claims); role != "" {
		c.Locals(LocalUserRole, role)
	}
	return nil
}

// ActorFromContext builds the policy actor from the verified token claims.
func ActorFromContext(c *fiber.Ctx) policy.Actor {
	actor := policy.Actor{}
	if id, ok := c.Locals(LocalUserID).(string); ok {
		actor.ID = id
	}
	actor.Role = normalizeRoleValue(c.Locals(LocalUserRole))
	return actor
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authorization == "" {
		if query := strings.TrimSpace(c.Query("token")); query != "" {
			return query, nil
		}
		return "", fmt.Errorf("authorization header missing")
	}

	const bearer = "bearer "
	if len(authorization) <= len(bearer) || strings.ToLower(authorization[:len(bearer)]) != bearer {
		return "", fmt.Errorf("invalid authorization header")
	}

	tokenString := strings.TrimSpace(authorization[len(bearer):])
	if tokenString == "" {
		return "", fmt.Errorf("invalid token")
	}
	return tokenString, nil
}

func extractUserIDFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "user_id", "id"} {
		switch value := claims[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		case float64:
			return fmt.Sprintf("%.0f", value)
		}
	}
	return ""
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		if value, ok := claims[key]; ok {
			if role := normalizeRole(value); role != "" {
				return role
			}
		}
	}
	return ""
}

func normalizeRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		if policy.ValidRole(v) {
			return policy.NormalizeRole(v)
		}
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok && policy.ValidRole(str) {
				return policy.NormalizeRole(str)
			}
		}
	}
	return ""
}
