package middleware

import (
	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/gofiber/fiber/v2"
)

// RequireRoles must run after AuthRequired.
func RequireRoles(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if _, ok := allowed[role]; !ok {
			applog.Security(c, "auth.forbidden_role", map[string]any{"role": role})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		return c.Next()
	}
}
