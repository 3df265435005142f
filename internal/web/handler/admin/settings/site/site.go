// Package site provides the admin handlers for global site settings.
package site

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/blob"
	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/db/controller/setting"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/dashboard"
	"github.com/harbourhotels/hotel-site/internal/web/navigation"
)

const (
	// Path is the base path of the settings admin.
	Path = handler.AdminPath + "/settings"
	// Template renders the settings list and forms.
	Template = "admin/settings"
)

// Form is the upsert form of a single setting.
type Form struct {
	Key   string             `form:"key"   validate:"required,max=100"`
	Value string             `form:"value"`
	Type  models.SettingType `form:"type"  validate:"omitempty,oneof=text image url json"`
}

// Service handles the settings admin.
type Service struct {
	handler.Service
	db        *gorm.DB
	resolver  *content.Resolver
	uploader  *blob.Uploader
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.db = deps.DB
	s.resolver = deps.Resolver
	s.uploader = deps.Uploader
	s.validator = handler.NewValidator()

	guard := auth.RequirePermission(deps.Auth, auth.PermSettings)

	app.Get(Path, guard, s.List)
	app.Post(Path, guard, s.Upsert)
	app.Post(Path+"/upload", guard, s.Upload)
	app.Post(Path+"/:id/delete", guard, s.Delete)

	return nil
}

func nav() *navigation.Context {
	return navigation.NewContext("Settings", "settings", "site").
		AddBreadcrumb("Dashboard", dashboard.Path, false).
		AddBreadcrumb("Settings", Path, true)
}

// reload refreshes the resolver so the public site sees the write.
func (s *Service) reload(c *fiber.Ctx) {
	if s.resolver != nil {
		s.resolver.Load(c.UserContext())
	}
}

func (s *Service) render(c *fiber.Ctx, status int, form Form, msg string, errs map[string]string) error {
	settings, err := setting.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list settings")

		if msg == "" {
			msg = "Failed to load settings"
		}
	}

	return c.Status(status).Render(Template, fiber.Map{
		"Navigation":    nav(),
		"Settings":      settings,
		"Form":          form,
		"Error":         msg,
		"Errors":        errs,
		"Success":       c.Query("saved") != "",
		"UploadEnabled": s.uploader != nil,
		"Types": []models.SettingType{
			models.SettingTypeText, models.SettingTypeImage, models.SettingTypeURL, models.SettingTypeJSON,
		},
	}, handler.BaseLayout)
}

// List shows every setting.
func (s *Service) List(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, Form{Type: models.SettingTypeText}, "", nil)
}

// Upsert creates or replaces a setting by key.
func (s *Service) Upsert(c *fiber.Ctx) error {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, fiber.StatusBadRequest, form, "Invalid form data", nil)
	}

	form.Key = strings.TrimSpace(form.Key)

	if err := s.validator.Struct(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, form, "Please correct the highlighted fields.", handler.FieldErrors(err))
	}

	if _, err := setting.Set(s.db, form.Key, form.Value, form.Type); err != nil {
		log.Error().Err(err).Str("key", form.Key).Msg("failed to save setting")

		return s.render(c, fiber.StatusInternalServerError, form, "Failed to save the setting.", nil)
	}

	log.Info().Str("key", form.Key).Msg("setting saved")
	s.reload(c)

	return c.Redirect(Path + "?saved=1")
}

// Delete removes a setting.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return s.render(c, fiber.StatusBadRequest, Form{}, "Invalid setting id", nil)
	}

	if err = setting.Delete(s.db, id); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, setting.ErrSettingNotFound) {
			status = fiber.StatusNotFound
		}

		log.Warn().Err(err).Uint64("id", id).Msg("failed to delete setting")

		return s.render(c, status, Form{}, "Failed to delete the setting.", nil)
	}

	log.Info().Uint64("id", id).Msg("setting deleted")
	s.reload(c)

	return c.Redirect(Path + "?saved=1")
}

// isFaviconKey reports whether key holds the site icon.
func isFaviconKey(key string) bool {
	return key == content.KeySiteFavicon || key == content.KeyFavicon
}

// Upload stores an image and saves its URL under the given key.
func (s *Service) Upload(c *fiber.Ctx) error {
	form := Form{Key: strings.TrimSpace(c.FormValue("key")), Type: models.SettingTypeImage}

	if form.Key == "" {
		return s.render(c, fiber.StatusBadRequest, form, "Please choose the setting to upload into.",
			map[string]string{"key": "This field is required."})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return s.render(c, fiber.StatusBadRequest, form, "Please choose a file.", nil)
	}

	f, err := fh.Open()
	if err != nil {
		return s.render(c, fiber.StatusBadRequest, form, "Failed to read the file.", nil)
	}
	defer f.Close()

	kind := blob.KindImage
	if isFaviconKey(form.Key) {
		kind = blob.KindFavicon
	}

	url, err := s.uploader.Upload(c.UserContext(), f, kind)
	if err != nil {
		status, msg := handler.UploadError(err)
		log.Warn().Err(err).Str("key", form.Key).Msg("setting upload failed")

		return s.render(c, status, form, msg, nil)
	}

	if _, err = setting.Set(s.db, form.Key, url, models.SettingTypeImage); err != nil {
		log.Error().Err(err).Str("key", form.Key).Msg("failed to save uploaded setting")

		form.Value = url

		return s.render(c, fiber.StatusInternalServerError, form, "The file was stored but the setting could not be saved.", nil)
	}

	log.Info().Str("key", form.Key).Str("url", url).Msg("setting image uploaded")
	s.reload(c)

	return c.Redirect(Path + "?saved=1")
}
