// Package site serves the public pages of the hotel website.
package site

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/mail"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/middleware/ratelimit"
)

// Page names double as section namespaces.
const (
	PageHome       = "home"
	PageAbout      = "about"
	PageLocations  = "locations"
	PageFacilities = "facilities"
	PageContact    = "contact"
	PageFAQ        = "faq"
	PagePolicies   = "policies"
	PageBooking    = "booking"
)

// Setting keys read by the site layout besides the resolved logos.
const (
	KeyContactAddress = "contact_address"
	KeyContactPhone   = "contact_phone"
	KeyContactEmail   = "contact_email"
	KeyContactHours   = "contact_hours"
	KeyTagline        = "site_tagline"
)

// socialKeys maps setting keys to footer icons, in display order.
var socialKeys = []struct{ key, icon string }{ //nolint:gochecknoglobals
	{"social_instagram", "instagram"},
	{"social_facebook", "facebook"},
	{"social_twitter", "twitter"},
	{"social_linkedin", "linkedin"},
}

var pageRenders = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "hotel_site_page_renders_total",
	Help: "Public pages rendered, by page.",
}, []string{"page"})

// Pages returns the public page names in menu order.
func Pages() []string {
	return []string{PageHome, PageAbout, PageLocations, PageFacilities, PageFAQ, PagePolicies, PageContact, PageBooking}
}

// Menu returns the main menu.
func Menu() []NavLink {
	return []NavLink{
		{PageHome, "Home", "/"},
		{PageAbout, "About", "/about"},
		{PageLocations, "Locations", "/locations"},
		{PageFacilities, "Facilities", "/facilities"},
		{PageFAQ, "FAQ", "/faq"},
		{PagePolicies, "Policies", "/policies"},
		{PageContact, "Contact", "/contact"},
		{PageBooking, "Book now", "/booking"},
	}
}

// Service is the public site handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	registry  *content.Registry
	resolver  *content.Resolver
	mailer    mail.Sender
	validator *validator.Validate
	now       func() time.Time
}

// Handler is the public site handler.
var Handler = Service{}

// Init registers the public routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	if deps.Registry == nil || deps.Resolver == nil {
		return handler.ErrNilDeps
	}

	s.cfg = deps.Cfg
	s.db = deps.DB
	s.registry = deps.Registry
	s.resolver = deps.Resolver
	s.mailer = deps.Mailer
	s.validator = handler.NewValidator()
	s.now = time.Now

	app.Get(handler.RootPath, s.page(PageHome, homeView))
	app.Get("/about", s.page(PageAbout, aboutView))
	app.Get("/locations", s.page(PageLocations, locationsView))
	app.Get("/facilities", s.page(PageFacilities, facilitiesView))
	app.Get("/faq", s.page(PageFAQ, faqView))
	app.Get("/policies", s.page(PagePolicies, policiesView))
	app.Get("/booking", s.page(PageBooking, s.bookingView))
	app.Get("/contact", s.page(PageContact, contactView))

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: deps.Cfg.Contact.RequestsPerMinute,
		Burst:             deps.Cfg.Contact.Burst,
		LimitReached:      s.contactLimited,
	})

	app.Post("/contact", limiter, s.ContactPost)

	return nil
}

// view builds the page specific template data from the page's sections.
type view func(set *content.Set, snap content.Snapshot) fiber.Map

// layoutData is the data every page shares: branding, menu, footer.
func (s *Service) layoutData(page string, snap content.Snapshot) fiber.Map {
	social := make([]SocialLink, 0, len(socialKeys))

	for _, sk := range socialKeys {
		if u := snap.Value(sk.key, ""); u != "" {
			social = append(social, SocialLink{Icon: sk.icon, URL: u})
		}
	}

	return fiber.Map{
		"Page":     page,
		"Title":    snap.SiteName,
		"Site":     snap,
		"Tagline":  snap.Value(KeyTagline, ""),
		"Menu":     Menu(),
		"Social":   social,
		"Contact":  contactDetails(snap),
		"Year":     s.now().Year(),
		"DevMode":  s.cfg.DevMode,
		"BasePath": s.cfg.Webserver.URL,
	}
}

func (s *Service) page(name string, build view) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.render(c, name, build, nil)
	}
}

// render pulls one snapshot of the page sections and of the settings, so a
// concurrent refetch never mixes two versions into one response.
func (s *Service) render(c *fiber.Ctx, name string, build view, extra fiber.Map) error {
	set := s.registry.Page(c.UserContext(), name).Set()
	snap := s.resolver.Snapshot()

	data := s.layoutData(name, snap)

	for k, v := range build(set, snap) {
		data[k] = v
	}

	for k, v := range extra {
		data[k] = v
	}

	pageRenders.WithLabelValues(name).Inc()

	log.Debug().Str("page", name).Int("sections", set.Len()).Msg("render page")

	return c.Render("site/"+name, data, handler.SiteLayout)
}

func contactDetails(snap content.Snapshot) ContactDetails {
	return ContactDetails{
		Address: snap.Value(KeyContactAddress, ""),
		Phone:   snap.Value(KeyContactPhone, ""),
		Email:   snap.Value(KeyContactEmail, ""),
		Hours:   snap.Value(KeyContactHours, ""),
	}
}

func homeView(set *content.Set, snap content.Snapshot) fiber.Map {
	return fiber.Map{
		"Hero": content.Decode(set, "hero", Hero{
			Title:    "Welcome to " + snap.SiteName,
			Subtitle: snap.Value(KeyTagline, ""),
			CTALabel: "Book your stay",
			CTAURL:   "/booking",
		}),
		"Highlights": content.Decode(set, "highlights", Items{}),
		"Intro":      content.Decode(set, "intro", Prose{}),
	}
}

func aboutView(set *content.Set, _ content.Snapshot) fiber.Map {
	return fiber.Map{
		"Hero":   content.Decode(set, "hero", Hero{Title: "About us"}),
		"Story":  content.Decode(set, "story", Prose{}),
		"Values": content.Decode(set, "values", Items{}),
	}
}

func locationsView(set *content.Set, _ content.Snapshot) fiber.Map {
	return fiber.Map{
		"Hero":      content.Decode(set, "hero", Hero{Title: "Our locations"}),
		"Locations": content.Decode(set, "list", Locations{}),
	}
}

func facilitiesView(set *content.Set, _ content.Snapshot) fiber.Map {
	return fiber.Map{
		"Hero":       content.Decode(set, "hero", Hero{Title: "Facilities"}),
		"Facilities": content.Decode(set, "list", Items{}),
	}
}

func faqView(set *content.Set, _ content.Snapshot) fiber.Map {
	return fiber.Map{
		"Hero":      content.Decode(set, "hero", Hero{Title: "Frequently asked questions"}),
		"Questions": content.Decode(set, "questions", Questions{}),
	}
}

func policiesView(set *content.Set, _ content.Snapshot) fiber.Map {
	return fiber.Map{
		"Hero":     content.Decode(set, "hero", Hero{Title: "Hotel policies"}),
		"Policies": content.Decode(set, "policies", Policies{}),
	}
}

func contactView(set *content.Set, snap content.Snapshot) fiber.Map {
	return fiber.Map{
		"Hero":    content.Decode(set, "hero", Hero{Title: "Contact us"}),
		"Details": content.Decode(set, "details", contactDetails(snap)),
		"Form":    contactForm{},
	}
}
