package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"marketplace/internal/models"
	"marketplace/internal/services"
)

// Locals keys populated by the auth middleware.
const (
	localsUserID   = "user_id"
	localsUsername = "username"
	localsRole     = "role"
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func storeClaims(c *fiber.Ctx, claims map[string]interface{}) {
	c.Locals(localsUserID, claims["user_id"])
	c.Locals(localsUsername, claims["username"])
	c.Locals(localsRole, claims["role"])
}

// AuthRequired is a Fiber middleware that rejects requests without a
// valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// AdminRequired allows only users carrying the admin role. Must run after
// AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Admin access required",
			})
		}
		return c.Next()
	}
}

// OptionalAuth stores claims when a valid token is present but never
// rejects the request. Used by catalog reads, where admins see inactive
// products.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if claims, err := authService.ValidateToken(token); err == nil {
				storeClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's ID, or "" when anonymous.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsUserID).(string)
	return id
}

// Username returns the authenticated username, or "" when anonymous.
func Username(c *fiber.Ctx) string {
	name, _ := c.Locals(localsUsername).(string)
	return name
}

// IsAdmin reports whether the request carries the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals(localsRole).(string)
	return role == models.RoleAdmin
}
