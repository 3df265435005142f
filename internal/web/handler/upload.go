package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/harbourhotels/hotel-site/internal/blob"
)

// UploadError maps an upload failure to a status code and a message for the admin.
func UploadError(err error) (int, string) {
	switch {
	case errors.Is(err, blob.ErrDisabled):
		return fiber.StatusServiceUnavailable, "File storage is not configured."
	case errors.Is(err, blob.ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge, "The file is too large."
	case errors.Is(err, blob.ErrTooManyPixels):
		return fiber.StatusRequestEntityTooLarge, "The image dimensions are too large."
	case errors.Is(err, blob.ErrNotImage):
		return fiber.StatusUnsupportedMediaType, "The file is not a supported image (PNG, JPEG or GIF)."
	default:
		return fiber.StatusBadGateway, "Failed to store the file."
	}
}
