// Package logout ends admin sessions.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/login"
	"github.com/harbourhotels/hotel-site/internal/web/session"
)

// Path ends the session.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	oidc *auth.OIDCProvider
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.cfg = deps.Cfg
	s.oidc = deps.OIDC

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout clears the session. Users signed in through OIDC are sent to the
// provider's end session endpoint when it has one.
func (s *Service) Logout(c *fiber.Ctx) error {
	data, _ := session.Current(c)

	if err := session.Destroy(c); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	if s.oidc != nil && data != nil && data.IDToken != "" {
		if logoutURL := s.oidc.GetLogoutURL(data.IDToken, s.cfg.Webserver.URL); logoutURL != "" {
			return c.Redirect(logoutURL)
		}
	}

	return c.Redirect(login.Path)
}
