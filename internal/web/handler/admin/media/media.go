// Package media provides the image upload endpoint of the admin panel.
package media

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/blob"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
)

// Path accepts image uploads.
const Path = handler.AdminPath + "/media"

// Service handles media uploads.
type Service struct {
	handler.Service
	uploader *blob.Uploader
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.uploader = deps.Uploader

	app.Post(Path, auth.RequirePermission(deps.Auth, auth.PermMedia), s.Post)

	return nil
}

// Post stores the uploaded image and answers {"url": ...}.
func (s *Service) Post(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable file"})
	}
	defer f.Close()

	url, err := s.uploader.Upload(c.UserContext(), f, blob.KindImage)
	if err != nil {
		status, msg := handler.UploadError(err)
		log.Warn().Err(err).Str("filename", fh.Filename).Msg("media upload failed")

		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	log.Info().Str("filename", fh.Filename).Str("url", url).Msg("media uploaded")

	return c.JSON(fiber.Map{"url": url})
}
