package user

import (
	"bytes"
	"encoding/base64"
	"errors"
	"html/template"
	"image/png"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp"
	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/dashboard"
	"github.com/harbourhotels/hotel-site/internal/web/navigation"
)

const (
	// AccountTOTPPath is where the signed in user manages their second factor.
	AccountTOTPPath = handler.AdminPath + "/account/totp"

	// TemplateTOTP is the second factor enrolment template.
	TemplateTOTP = "admin/user/totp"

	qrSize = 200
)

func totpNav() *navigation.Context {
	return navigation.NewContext("Two-factor authentication", "account", "totp").
		AddBreadcrumb("Dashboard", dashboard.Path, false).
		AddBreadcrumb("Two-factor authentication", AccountTOTPPath, true)
}

func (s *Service) issuer() string {
	if s.cfg != nil && s.cfg.Title != "" {
		return s.cfg.Title
	}

	return content.DefaultSiteName
}

// qrCode renders the provisioning URL of key as a PNG data URI.
func qrCode(key *otp.Key) template.URL {
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return ""
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return ""
	}

	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())) //nolint:gosec
}

// sessionUser loads the signed in user fresh from the database.
func (s *Service) sessionUser(c *fiber.Ctx) (*models.User, error) {
	id := currentUserID(c)
	if id == 0 {
		return nil, auth.ErrUserNotFound
	}

	return s.local.GetUserByID(id)
}

func (s *Service) renderTOTP(c *fiber.Ctx, status int, data fiber.Map) error {
	data["Navigation"] = totpNav()

	return c.Status(status).Render(TemplateTOTP, data, handler.BaseLayout)
}

// enrolment creates a fresh key for user.
func (s *Service) enrolment(user *models.User) (fiber.Map, error) {
	key, err := auth.GenerateTOTP(s.issuer(), user.Username)
	if err != nil {
		return nil, err
	}

	return fiber.Map{
		"Secret": key.Secret(),
		"URL":    key.URL(),
		"QR":     qrCode(key),
	}, nil
}

// TOTPGet shows the enrolment form, or the status when already enrolled.
func (s *Service) TOTPGet(c *fiber.Ctx) error {
	user, err := s.sessionUser(c)
	if err != nil {
		return c.Redirect(dashboard.Path)
	}

	if user.AuthSource != models.AuthSourceLocal {
		return s.renderTOTP(c, fiber.StatusOK, fiber.Map{
			"External": true,
		})
	}

	if user.HasTOTP() {
		return s.renderTOTP(c, fiber.StatusOK, fiber.Map{"Enabled": true})
	}

	data, err := s.enrolment(user)
	if err != nil {
		log.Error().Err(err).Uint64("id", user.ID).Msg("failed to generate totp key")

		return s.renderTOTP(c, fiber.StatusInternalServerError, fiber.Map{"Error": "Failed to generate a key"})
	}

	return s.renderTOTP(c, fiber.StatusOK, data)
}

// TOTPPost confirms the enrolment with a code from the authenticator app.
func (s *Service) TOTPPost(c *fiber.Ctx) error {
	user, err := s.sessionUser(c)
	if err != nil {
		return c.Redirect(dashboard.Path)
	}

	if user.AuthSource != models.AuthSourceLocal {
		return s.renderTOTP(c, fiber.StatusBadRequest, fiber.Map{"External": true})
	}

	secret := strings.TrimSpace(c.FormValue("secret"))

	err = s.local.EnableTOTP(user.ID, secret, c.FormValue("code"))
	if err != nil {
		status, msg := fiber.StatusInternalServerError, "Failed to enable two-factor authentication."
		if errors.Is(err, auth.ErrInvalidTOTP) {
			status, msg = fiber.StatusBadRequest, "The code does not match. Check the time on your device and try again."
		} else {
			log.Error().Err(err).Uint64("id", user.ID).Msg("failed to enable totp")
		}

		return s.renderTOTP(c, status, fiber.Map{
			"Secret": secret,
			"Error":  msg,
		})
	}

	log.Info().Uint64("id", user.ID).Msg("totp enabled")

	return s.renderTOTP(c, fiber.StatusOK, fiber.Map{
		"Enabled": true,
		"Success": "Two-factor authentication is now enabled.",
	})
}

// TOTPDisable removes the second factor after checking a current code.
func (s *Service) TOTPDisable(c *fiber.Ctx) error {
	user, err := s.sessionUser(c)
	if err != nil {
		return c.Redirect(dashboard.Path)
	}

	if !user.HasTOTP() {
		return c.Redirect(AccountTOTPPath)
	}

	if !auth.ValidateTOTP(strings.TrimSpace(c.FormValue("code")), user.TOTPSecret) {
		return s.renderTOTP(c, fiber.StatusBadRequest, fiber.Map{
			"Enabled": true,
			"Error":   "The code does not match.",
		})
	}

	if err = s.local.DisableTOTP(user.ID); err != nil {
		log.Error().Err(err).Uint64("id", user.ID).Msg("failed to disable totp")

		return s.renderTOTP(c, fiber.StatusInternalServerError, fiber.Map{
			"Enabled": true,
			"Error":   "Failed to disable two-factor authentication.",
		})
	}

	log.Info().Uint64("id", user.ID).Msg("totp disabled")

	return c.Redirect(AccountTOTPPath)
}
