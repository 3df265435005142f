package site

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/db/controller/booking"
)

// Widget is the booking engine embed of the booking page. Src is empty when
// the widget is not configured, the page then shows contact details.
type Widget struct {
	Src    string
	Height int
}

func (s *Service) widget() Widget {
	var settings booking.Settings

	if err := settings.Load(s.db); err != nil {
		log.Error().Err(err).Msg("failed to load booking widget settings")

		return Widget{}
	}

	if !settings.Configured() {
		return Widget{}
	}

	src, err := settings.EmbedURL()
	if err != nil {
		log.Error().Err(err).Str("provider_url", settings.ProviderURL).Msg("invalid booking provider url")

		return Widget{}
	}

	return Widget{Src: src, Height: settings.IframeHeight()}
}

func (s *Service) bookingView(set *content.Set, snap content.Snapshot) fiber.Map {
	return fiber.Map{
		"Hero":   content.Decode(set, "hero", Hero{Title: "Book your stay"}),
		"Widget": s.widget(),
		"Fallback": content.Decode(set, "fallback", Prose{
			Title: "Reservations",
			Body:  "Online booking is not available right now. Please contact us directly and we will be happy to help.",
		}),
		"Details": content.Decode(set, "details", contactDetails(snap)),
	}
}
