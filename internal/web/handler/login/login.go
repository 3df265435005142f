package login

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	authmiddleware "github.com/harbourhotels/hotel-site/internal/web/middleware/auth"
	"github.com/harbourhotels/hotel-site/internal/web/middleware/ratelimit"
	"github.com/harbourhotels/hotel-site/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = authmiddleware.LoginPath

	// TemplateName renders the login page without a layout.
	TemplateName = "login"

	loginRequestsPerMinute = 10
	loginBurst             = 5
)

// Form is the submitted login form.
type Form struct {
	Username string `form:"username"`
	Password string `form:"password"`
	TOTPCode string `form:"totp_code"`
	Next     string `form:"next"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	local *auth.LocalProvider
	ldap  *auth.LDAPProvider
	oidc  bool
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.cfg = deps.Cfg
	s.local = auth.NewLocalProvider(deps.DB)
	s.ldap = deps.LDAP
	s.oidc = deps.OIDC != nil

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: loginRequestsPerMinute,
		Burst:             loginBurst,
		LimitReached: func(c *fiber.Ctx) error {
			return s.render(c, fiber.StatusTooManyRequests, Form{}, "Too many attempts, please wait a minute.", false)
		},
	})

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, limiter, s.Post)
	})

	return nil
}

func (s *Service) render(c *fiber.Ctx, status int, form Form, msg string, totpRequired bool) error {
	return c.Status(status).Render(TemplateName, fiber.Map{
		"password_login":   s.passwordLogin(),
		"oidc_enabled":     s.oidc,
		"totp_required":    totpRequired,
		"username":         form.Username,
		"next":             form.Next,
		"error":            msg,
	})
}

// Get handles the login page rendering. Signed in users go straight to the admin area.
func (s *Service) Get(c *fiber.Ctx) error {
	next := c.Query("next")

	if _, ok := session.Current(c); ok {
		return c.Redirect(authmiddleware.SafeNext(next))
	}

	return s.render(c, fiber.StatusOK, Form{Next: next}, "", false)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, fiber.StatusBadRequest, form, ErrInvalidFormData.Error(), false)
	}

	form.Username = strings.TrimSpace(form.Username)

	if !s.passwordLogin() {
		return s.render(c, fiber.StatusForbidden, form, ErrLocalAuthDisabled.Error(), false)
	}

	user, err := s.authenticate(form)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTOTPRequired):
			return s.render(c, fiber.StatusOK, form, "", true)
		case errors.Is(err, auth.ErrInvalidTOTP):
			return s.render(c, fiber.StatusUnauthorized, form, "Invalid authentication code", true)
		case errors.Is(err, auth.ErrUserAccountDisabled):
			log.Warn().Str("username", form.Username).Msg("login attempt on disabled account")

			return s.render(c, fiber.StatusForbidden, form, "This account is disabled", false)
		case errors.Is(err, auth.ErrUserNameOrEmailExists):
			log.Warn().Str("username", form.Username).Msg("directory login collides with an existing account")

			return s.render(c, fiber.StatusUnauthorized, form, ErrInvalidCredentials.Error(), false)
		case errors.Is(err, auth.ErrEmptyCredentials),
			errors.Is(err, auth.ErrUserNotFound),
			errors.Is(err, auth.ErrInvalidPassword):
			log.Info().Str("username", form.Username).Str("ip", c.IP()).Msg("failed login")

			return s.render(c, fiber.StatusUnauthorized, form, ErrInvalidCredentials.Error(), false)
		default:
			log.Error().Err(err).Msg("login failed")

			return s.render(c, fiber.StatusInternalServerError, form, ErrInternalServerError.Error(), false)
		}
	}

	if err = session.Start(c, &session.Data{User: *user}, s.cfg.Webserver.Session.ExpiryTime, s.cfg.DevMode); err != nil {
		log.Error().Err(err).Msg("failed to start session")

		return s.render(c, fiber.StatusInternalServerError, form, ErrInternalServerError.Error(), false)
	}

	log.Info().Str("username", user.Username).Msg("user logged in")

	return c.Redirect(authmiddleware.SafeNext(form.Next))
}

// passwordLogin reports whether the username/password form is served.
func (s *Service) passwordLogin() bool {
	return s.cfg.Auth.LocalDB.Enabled || s.ldap != nil
}

// authenticate tries the local database first. Directory login is only
// attempted for names without a local account.
func (s *Service) authenticate(form Form) (*models.User, error) {
	if s.cfg.Auth.LocalDB.Enabled {
		user, err := s.local.Authenticate(form.Username, form.Password, form.TOTPCode)
		if err == nil || s.ldap == nil || !errors.Is(err, auth.ErrUserNotFound) {
			return user, err
		}
	}

	return s.ldap.Authenticate(form.Username, form.Password)
}
