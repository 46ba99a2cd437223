package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ImeldaHope/Vertix/internal/rewards"
)

const bearerTokenPrefix = "user:"

// Identity resolves the caller's user id from the Authorization header and
// stores it in request locals. An unresolvable identity is never an error:
// the request proceeds as the anonymous pseudo-user and policy applies to
// that key like any other.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", resolveUserID(c.Get(fiber.HeaderAuthorization)))
		return c.Next()
	}
}

func resolveUserID(authz string) string {
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return rewards.AnonymousUser
	}
	token := strings.TrimSpace(authz[len("Bearer "):])
	if !strings.HasPrefix(token, bearerTokenPrefix) {
		return rewards.AnonymousUser
	}
	userID := token[len(bearerTokenPrefix):]
	if userID == "" {
		return rewards.AnonymousUser
	}
	return userID
}
