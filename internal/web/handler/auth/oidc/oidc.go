package oidc

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/dashboard"
	"github.com/harbourhotels/hotel-site/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"
)

// Provider is the part of auth.OIDCProvider the handlers use.
type Provider interface {
	GetAuthURL(state string) string
	HandleCallback(ctx context.Context, code string) (*models.User, string, error)
}

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	provider Provider
	states   *auth.StateStore
}

// Handler is the OIDC handler.
var Handler = Service{}

// Init registers the OIDC routes when a provider is configured.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	if deps.OIDC == nil {
		log.Debug().Msg("OIDC authentication is disabled")

		return nil
	}

	s.setup(app, deps.Cfg, deps.OIDC, deps.OIDC.States)

	log.Info().Msg("OIDC authentication routes registered")

	return nil
}

func (s *Service) setup(app *fiber.App, cfg *config.Config, provider Provider, states *auth.StateStore) {
	s.cfg = cfg
	s.provider = provider
	s.states = states

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	state, err := s.states.Issue()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate state token")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	return c.Redirect(s.provider.GetAuthURL(state))
}

// Callback handles the OIDC callback.
func (s *Service) Callback(c *fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		log.Warn().Str("error", errParam).Str("description", c.Query("error_description")).
			Msg("OIDC provider returned an error")

		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		log.Error().Msg("missing code or state in OIDC callback")

		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback parameters")
	}

	if !s.states.Consume(state) {
		log.Warn().Msg("unknown or expired OIDC state token")

		return c.Status(fiber.StatusBadRequest).SendString(auth.ErrInvalidState.Error())
	}

	user, idToken, err := s.provider.HandleCallback(c.UserContext(), code)
	if err != nil {
		status := fiber.StatusUnauthorized
		if errors.Is(err, auth.ErrUserAccountDisabled) {
			status = fiber.StatusForbidden
		}

		log.Error().Err(err).Msg("OIDC authentication failed")

		return c.Status(status).SendString("Authentication failed")
	}

	data := &session.Data{User: *user, IDToken: idToken}
	if err = session.Start(c, data, s.cfg.Webserver.Session.ExpiryTime, s.cfg.DevMode); err != nil {
		log.Error().Err(err).Msg("failed to start session")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	log.Info().Str("username", user.Username).Msg("user logged in via OIDC")

	return c.Redirect(dashboard.Path)
}
