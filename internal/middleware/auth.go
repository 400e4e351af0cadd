package middleware

import (
	"strings"

	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// AuthRequired verifies the bearer token and exposes its subject as the
// "user_id" local (decimal string) and its role as the "role" local.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthorized(c, "Missing or malformed bearer token")
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			applog.Security(c, "auth.invalid_token", map[string]any{"reason": err.Error()})
			return unauthorized(c, "Invalid or expired token")
		}
		if !models.IsValidRole(claims.Role) {
			applog.Security(c, "auth.unknown_role", map[string]any{"role": claims.Role, "user_id": claims.UserID})
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}
