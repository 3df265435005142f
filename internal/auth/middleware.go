package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/web/session"
)

// LocalsPermissions is the fiber.Locals key holding a map of granted permissions.
const LocalsPermissions = "can"

// sessionUserID returns the user id stored in the request's session, or 0.
func sessionUserID(c *fiber.Ctx) uint64 {
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return 0
	}

	sessionData := new(session.Data)
	if err := sessionData.Read(sessionID); err != nil {
		return 0
	}

	return sessionData.User.ID
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := sessionUserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		hasPermission, err := authService.HasPermission(userID, permission)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Str("permission", permission).
				Msg("Failed to check permission")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", userID).Str("permission", permission).
				Msg("User lacks required permission")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		return c.Next()
	}
}

// AddPermissionsToLocals is a Fiber middleware that stores the user's
// permissions in fiber.Locals for conditional rendering in templates.
func AddPermissionsToLocals(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := sessionUserID(c)
		if userID == 0 {
			return c.Next()
		}

		permissions, err := authService.GetUserPermissions(userID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Msg("Failed to get user permissions")

			return c.Next()
		}

		can := make(map[string]bool, len(permissions))
		for _, p := range permissions {
			can[p] = true
		}

		c.Locals(LocalsPermissions, can)

		return c.Next()
	}
}
