// Package dashboard provides the admin landing page with an overview of all pages.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/db/controller/section"
	"github.com/harbourhotels/hotel-site/internal/db/controller/setting"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/site"
	"github.com/harbourhotels/hotel-site/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.AdminPath

	// TemplateName is the name of the dashboard template.
	TemplateName = "admin/dashboard"
)

// PageRow is one line of the page overview.
type PageRow struct {
	Name   string
	Total  int64
	Active int64
	// Cached is the number of sections the public site currently serves.
	Cached int
	Public bool
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	db       *gorm.DB
	registry *content.Registry
	resolver *content.Resolver
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.db = deps.DB
	s.registry = deps.Registry
	s.resolver = deps.Resolver

	app.Get(Path,
		auth.RequirePermission(deps.Auth, auth.PermDashboard),
		s.Get,
	)

	return nil
}

// Rows merges the known public pages with every page found in the store.
func Rows(summaries []section.PageSummary, cached func(string) int) []PageRow {
	rows := make([]PageRow, 0, len(summaries)+len(site.Pages()))
	index := make(map[string]int)

	for _, name := range site.Pages() {
		index[name] = len(rows)
		rows = append(rows, PageRow{Name: name, Public: true})
	}

	for _, sum := range summaries {
		i, ok := index[sum.PageName]
		if !ok {
			index[sum.PageName] = len(rows)
			rows = append(rows, PageRow{Name: sum.PageName})
			i = len(rows) - 1
		}

		rows[i].Total = sum.Total
		rows[i].Active = sum.Active
	}

	if cached != nil {
		for i := range rows {
			rows[i].Cached = cached(rows[i].Name)
		}
	}

	return rows
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.NewContext("Dashboard", "dashboard", "dashboard").
		AddBreadcrumb("Dashboard", Path, true)

	summaries, err := section.Pages(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load page overview")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateName, fiber.Map{
			"Navigation": nav,
			"Error":      "Failed to load the page overview",
		}, handler.BaseLayout)
	}

	settings, err := setting.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to count settings")
	}

	var cached func(string) int

	if s.registry != nil {
		loaded := make(map[string]bool)
		for _, name := range s.registry.Names() {
			loaded[name] = true
		}

		cached = func(name string) int {
			if !loaded[name] {
				return 0
			}

			return s.registry.Page(c.UserContext(), name).Set().Len()
		}
	}

	data := fiber.Map{
		"Navigation":   nav,
		"Pages":        Rows(summaries, cached),
		"SettingCount": len(settings),
	}

	if s.resolver != nil {
		data["Site"] = s.resolver.Snapshot()
	}

	return c.Render(TemplateName, data, handler.BaseLayout)
}
