package site

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/mail"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/markup"
)

const (
	msgSent    = "Thank you, your message has been sent. We will get back to you shortly."
	msgInvalid = "Please check the highlighted fields and try again."
	msgFailed  = "Sorry, your message could not be sent. Please try again later or call us."
	msgLimited = "You have sent too many messages. Please wait a minute and try again."
)

type contactForm struct {
	Name     string `form:"name"     json:"name"     validate:"required,max=100"`
	Email    string `form:"email"    json:"email"    validate:"required,email,max=255"`
	Phone    string `form:"phone"    json:"phone"    validate:"omitempty,max=50"`
	Location string `form:"location" json:"location" validate:"omitempty,max=100"`
	Subject  string `form:"subject"  json:"subject"  validate:"required,max=200"`
	Message  string `form:"message"  json:"message"  validate:"required,max=5000"`
}

// clean strips markup from every field.
func (f *contactForm) clean() {
	f.Name = markup.StripTags(f.Name)
	f.Email = markup.StripTags(f.Email)
	f.Phone = markup.StripTags(f.Phone)
	f.Location = markup.StripTags(f.Location)
	f.Subject = markup.StripTags(f.Subject)
	f.Message = markup.StripTags(f.Message)
}

func (f *contactForm) message() mail.Message {
	return mail.Message{
		Name:     f.Name,
		Email:    f.Email,
		Phone:    f.Phone,
		Location: f.Location,
		Subject:  f.Subject,
		Body:     f.Message,
	}
}

// contactResult answers a contact submission as JSON or by re-rendering the page.
func (s *Service) contactResult(c *fiber.Ctx, status int, ok bool, msg string, form contactForm, errs map[string]string) error {
	if handler.WantsJSON(c) {
		body := fiber.Map{"success": ok, "message": msg}
		if len(errs) > 0 {
			body["errors"] = errs
		}

		return c.Status(status).JSON(body)
	}

	extra := fiber.Map{"Notice": msg, "Success": ok, "Errors": errs}
	if !ok {
		extra["Form"] = form
	}

	return s.render(c.Status(status), PageContact, contactView, extra)
}

// ContactPost relays a contact form submission to the reservations mailbox.
func (s *Service) ContactPost(c *fiber.Ctx) error {
	var form contactForm

	if err := c.BodyParser(&form); err != nil {
		return s.contactResult(c, fiber.StatusBadRequest, false, msgInvalid, form, nil)
	}

	form.clean()

	if err := s.validator.Struct(form); err != nil {
		return s.contactResult(c, fiber.StatusBadRequest, false, msgInvalid, form, handler.FieldErrors(err))
	}

	if s.mailer == nil {
		log.Error().Msg("contact form submitted but no mail relay is configured")

		return s.contactResult(c, fiber.StatusServiceUnavailable, false, msgFailed, form, nil)
	}

	if err := s.mailer.Send(c.UserContext(), form.message()); err != nil {
		log.Error().Err(err).Str("ip", c.IP()).Msg("failed to relay contact message")

		return s.contactResult(c, fiber.StatusBadGateway, false, msgFailed, form, nil)
	}

	log.Info().Str("ip", c.IP()).Str("location", form.Location).Msg("contact message relayed")

	return s.contactResult(c, fiber.StatusOK, true, msgSent, contactForm{}, nil)
}

func (s *Service) contactLimited(c *fiber.Ctx) error {
	log.Warn().Str("ip", c.IP()).Msg("contact form rate limit reached")

	return s.contactResult(c, fiber.StatusTooManyRequests, false, msgLimited, contactForm{}, nil)
}
