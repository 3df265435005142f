package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/blob"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/mail"
)

// ErrNilDeps is returned by Init when app or a required dependency is missing.
var ErrNilDeps = errors.New(ErrNilACDFatalLogMsg)

// Deps bundles what handlers need. Cfg and DB are required; the rest is
// optional and handlers degrade when it is nil.
type Deps struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Auth     *auth.Service
	LDAP     *auth.LDAPProvider
	OIDC     *auth.OIDCProvider
	Registry *content.Registry
	Resolver *content.Resolver
	Uploader *blob.Uploader
	Mailer   mail.Sender
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}

// Check returns ErrNilDeps when app, deps, config or db is nil.
func Check(app *fiber.App, deps *Deps) error {
	if app == nil || deps == nil || deps.Cfg == nil || deps.DB == nil {
		return ErrNilDeps
	}

	return nil
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) ||
		c.Get("X-Requested-With") == "XMLHttpRequest"
}
