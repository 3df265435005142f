package auth

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/session"
)

const (
	// LoginPath is where unauthenticated admin requests are sent.
	LoginPath = "/login"

	// LocalsCurrentUser holds the signed in models.User for templates.
	LocalsCurrentUser = "CurrentUser"
)

// Middleware guards the admin area. Requests outside it pass untouched.
// Without a valid session the client is redirected to the login page,
// otherwise the current user is added to the locals for template access.
func Middleware(c *fiber.Ctx) error {
	if !IsAdminPath(c.Path()) {
		return c.Next()
	}

	data, ok := session.Current(c)
	if !ok {
		if c.Method() != fiber.MethodGet || handler.WantsJSON(c) {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		return c.Redirect(LoginPath + "?next=" + url.QueryEscape(c.OriginalURL()))
	}

	c.Locals(LocalsCurrentUser, data.User)

	return c.Next()
}

// IsAdminPath reports whether path belongs to the admin area.
func IsAdminPath(path string) bool {
	path = strings.ToLower(path)

	return path == handler.AdminPath || strings.HasPrefix(path, handler.AdminPath+"/")
}

// SafeNext returns next when it is a local admin path, otherwise the admin root.
func SafeNext(next string) string {
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || !IsAdminPath(u.Path) {
		return handler.AdminPath
	}

	return u.RequestURI()
}
