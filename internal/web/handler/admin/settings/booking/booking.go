// Package booking provides the admin form for the booking widget settings.
package booking

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth"
	controller "github.com/harbourhotels/hotel-site/internal/db/controller/booking"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/dashboard"
	"github.com/harbourhotels/hotel-site/internal/web/navigation"
)

const (
	// Path is the path to the booking widget settings page.
	Path = handler.AdminPath + "/settings/booking"

	// TemplateName is the name of the booking widget settings template.
	TemplateName = "admin/booking"
)

// Service is the booking widget settings handler service.
type Service struct {
	handler.Service
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the booking widget settings handler.
var Handler = Service{}

// Init initializes the booking widget settings handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.db = deps.DB
	s.validator = handler.NewValidator()

	guard := auth.RequirePermission(deps.Auth, auth.PermBooking)

	app.Get(Path, guard, s.Get)
	app.Post(Path, guard, s.Post)

	return nil
}

func nav() *navigation.Context {
	return navigation.NewContext("Booking Widget", "settings", "booking").
		AddBreadcrumb("Dashboard", dashboard.Path, false).
		AddBreadcrumb("Settings", handler.AdminPath+"/settings", false).
		AddBreadcrumb("Booking Widget", Path, true)
}

// Get renders the form with the stored settings.
func (s *Service) Get(c *fiber.Ctx) error {
	settings := &controller.Settings{}
	if err := settings.Load(s.db); err != nil {
		log.Error().Err(err).Msg("failed to load booking widget settings")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateName, fiber.Map{
			"Settings":   settings,
			"Navigation": nav(),
			"Error":      "Failed to load settings",
		}, handler.BaseLayout)
	}

	return c.Render(TemplateName, fiber.Map{
		"Settings":   settings,
		"Navigation": nav(),
		"Preview":    preview(settings),
	}, handler.BaseLayout)
}

// preview returns the iframe URL of configured settings.
func preview(settings *controller.Settings) string {
	if !settings.Configured() {
		return ""
	}

	src, err := settings.EmbedURL()
	if err != nil {
		return ""
	}

	return src
}

// Post validates and stores the submitted settings.
func (s *Service) Post(c *fiber.Ctx) error {
	settings := &controller.Settings{}
	if err := c.BodyParser(settings); err != nil {
		log.Error().Err(err).Msg("failed to parse booking widget settings form")

		return c.Status(fiber.StatusBadRequest).Render(TemplateName, fiber.Map{
			"Settings":   settings,
			"Navigation": nav(),
			"Error":      "Invalid form data",
		}, handler.BaseLayout)
	}

	if err := s.validator.Struct(settings); err != nil {
		log.Warn().Err(err).Msg("validation failed for booking widget settings")

		return c.Status(fiber.StatusBadRequest).Render(TemplateName, fiber.Map{
			"Settings":   settings,
			"Navigation": nav(),
			"Error":      "Please correct the highlighted fields.",
			"Errors":     handler.FieldErrors(err),
		}, handler.BaseLayout)
	}

	if err := settings.Save(s.db); err != nil {
		log.Error().Err(err).Msg("failed to save booking widget settings")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateName, fiber.Map{
			"Settings":   settings,
			"Navigation": nav(),
			"Error":      "Failed to save settings",
		}, handler.BaseLayout)
	}

	log.Info().
		Str("provider_url", settings.ProviderURL).
		Str("property_id", settings.PropertyID).
		Msg("booking widget settings saved")

	return c.Render(TemplateName, fiber.Map{
		"Settings":   settings,
		"Navigation": nav(),
		"Preview":    preview(settings),
		"Success":    "Settings saved successfully",
	}, handler.BaseLayout)
}
