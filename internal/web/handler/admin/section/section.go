// Package section provides the admin handlers for page content sections.
package section

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/content"
	controller "github.com/harbourhotels/hotel-site/internal/db/controller/section"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/dashboard"
	"github.com/harbourhotels/hotel-site/internal/web/handler/site"
	"github.com/harbourhotels/hotel-site/internal/web/navigation"
)

const (
	// Path is the base path for section management.
	Path = handler.AdminPath + "/sections"

	// TemplateList is the template listing the sections of a page.
	TemplateList = "admin/section/list"
	// TemplateForm is the template for creating or editing a section.
	TemplateForm = "admin/section/form"
)

// Form is the editable representation of a section. Data is JSON text.
type Form struct {
	ID           uint64 `form:"-"`
	PageName     string `form:"page_name"     validate:"required,max=100"`
	SectionKey   string `form:"section_key"   validate:"required,max=100"`
	SectionTitle string `form:"section_title" validate:"max=255"`
	ContentType  string `form:"content_type"  validate:"max=50"`
	Data         string `form:"data"`
	DisplayOrder int    `form:"display_order"`
	IsActive     bool   `form:"is_active"`
}

func (f *Form) input() controller.Input {
	return controller.Input{
		PageName:     f.PageName,
		SectionKey:   f.SectionKey,
		SectionTitle: f.SectionTitle,
		ContentType:  f.ContentType,
		Data:         []byte(f.Data),
		DisplayOrder: f.DisplayOrder,
		IsActive:     f.IsActive,
	}
}

// formFromModel prefills a Form, the data is pretty printed for editing.
func formFromModel(s *models.ContentSection) Form {
	data := string(s.Data)

	var buf bytes.Buffer
	if err := json.Indent(&buf, s.Data, "", "  "); err == nil {
		data = buf.String()
	}

	return Form{
		ID:           s.ID,
		PageName:     s.PageName,
		SectionKey:   s.SectionKey,
		SectionTitle: s.SectionTitle,
		ContentType:  s.ContentType,
		Data:         data,
		DisplayOrder: s.DisplayOrder,
		IsActive:     s.IsActive,
	}
}

// Service provides CRUD operations for sections.
type Service struct {
	handler.Service
	db        *gorm.DB
	registry  *content.Registry
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
	s.registry = deps.Registry
	s.validator = handler.NewValidator()

	guard := auth.RequirePermission(deps.Auth, auth.PermSections)

	app.Get(Path, guard, s.List)
	app.Get(Path+"/new", guard, s.New)
	app.Post(Path, guard, s.Create)
	app.Get(Path+"/:id/edit", guard, s.Edit)
	app.Post(Path+"/:id", guard, s.Update)
	app.Post(Path+"/:id/delete", guard, s.Delete)
	app.Post(Path+"/:id/toggle", guard, s.Toggle)

	return nil
}

func listNav(page string) *navigation.Context {
	return navigation.NewContext("Sections", "content", "sections").
		AddBreadcrumb("Dashboard", dashboard.Path, false).
		AddBreadcrumb("Sections", Path, false).
		AddBreadcrumb(page, Path+"?page="+url.QueryEscape(page), true)
}

func formNav(title string) *navigation.Context {
	return navigation.NewContext(title, "content", "sections").
		AddBreadcrumb("Dashboard", dashboard.Path, false).
		AddBreadcrumb("Sections", Path, false).
		AddBreadcrumb(title, "", true)
}

// refetch makes the public site pick up a write on each affected page.
func (s *Service) refetch(c *fiber.Ctx, pages ...string) {
	if s.registry == nil {
		return
	}

	seen := make(map[string]bool, len(pages))

	for _, p := range pages {
		if p == "" || seen[p] {
			continue
		}

		seen[p] = true
		s.registry.Refetch(c.UserContext(), p)
	}
}

func (s *Service) listRedirect(c *fiber.Ctx, page string) error {
	return c.Redirect(Path + "?page=" + url.QueryEscape(page))
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

// writeError maps persistence errors to a message and status for the form.
func writeError(err error) (int, string) {
	switch {
	case errors.Is(err, controller.ErrDuplicateSectionKey):
		return fiber.StatusConflict, "An active section with this key already exists on the page. Deactivate it first or pick another key."
	case errors.Is(err, controller.ErrInvalidData):
		return fiber.StatusBadRequest, "Data must be a valid JSON document."
	case errors.Is(err, controller.ErrPageNameEmpty), errors.Is(err, controller.ErrSectionKeyEmpty):
		return fiber.StatusBadRequest, "Page and key are required."
	case errors.Is(err, controller.ErrSectionNotFound):
		return fiber.StatusNotFound, "Section not found."
	default:
		return fiber.StatusInternalServerError, "Failed to save the section."
	}
}

// List shows the sections of one page, inactive ones included.
func (s *Service) List(c *fiber.Ctx) error {
	page := c.Query("page", site.PageHome)

	summaries, err := controller.Pages(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load pages")
	}

	sections, err := controller.ListByPage(s.db, page)
	if err != nil {
		log.Error().Err(err).Str("page", page).Msg("failed to list sections")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": listNav(page),
			"Error":      "Failed to load sections",
			"Page":       page,
		}, handler.BaseLayout)
	}

	return c.Render(TemplateList, fiber.Map{
		"Navigation": listNav(page),
		"Page":       page,
		"Pages":      dashboard.Rows(summaries, nil),
		"Sections":   sections,
		"Notice":     c.Query("notice"),
	}, handler.BaseLayout)
}

// New shows the creation form.
func (s *Service) New(c *fiber.Ctx) error {
	return c.Render(TemplateForm, fiber.Map{
		"Navigation": formNav("New section"),
		"Form":       Form{PageName: c.Query("page", site.PageHome), Data: "{}", IsActive: true},
		"IsCreate":   true,
	}, handler.BaseLayout)
}

func (s *Service) renderForm(c *fiber.Ctx, status int, form Form, isCreate bool, msg string, errs map[string]string) error {
	title := "Edit section"
	if isCreate {
		title = "New section"
	}

	return c.Status(status).Render(TemplateForm, fiber.Map{
		"Navigation": formNav(title),
		"Form":       form,
		"IsCreate":   isCreate,
		"Error":      msg,
		"Errors":     errs,
	}, handler.BaseLayout)
}

func (s *Service) parse(c *fiber.Ctx) (Form, map[string]string, error) {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return form, nil, err
	}

	if err := s.validator.Struct(form); err != nil {
		return form, handler.FieldErrors(err), err
	}

	return form, nil, nil
}

// Create creates a new section.
func (s *Service) Create(c *fiber.Ctx) error {
	form, errs, err := s.parse(c)
	if err != nil {
		return s.renderForm(c, fiber.StatusBadRequest, form, true, "Please correct the highlighted fields.", errs)
	}

	created, err := controller.Create(s.db, form.input())
	if err != nil {
		status, msg := writeError(err)
		log.Warn().Err(err).Str("page", form.PageName).Str("key", form.SectionKey).Msg("create section failed")

		return s.renderForm(c, status, form, true, msg, nil)
	}

	log.Info().Uint64("id", created.ID).Str("page", created.PageName).Str("key", created.SectionKey).
		Msg("section created")

	s.refetch(c, created.PageName)

	return s.listRedirect(c, created.PageName)
}

// Edit shows the edit form.
func (s *Service) Edit(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid section id")
	}

	sec, err := controller.Get(s.db, id)
	if err != nil {
		status, msg := writeError(err)

		return c.Status(status).SendString(msg)
	}

	return c.Render(TemplateForm, fiber.Map{
		"Navigation": formNav("Edit section"),
		"Form":       formFromModel(sec),
	}, handler.BaseLayout)
}

// Update saves an edited section.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid section id")
	}

	form, errs, err := s.parse(c)
	form.ID = id

	if err != nil {
		return s.renderForm(c, fiber.StatusBadRequest, form, false, "Please correct the highlighted fields.", errs)
	}

	updated, previousPage, err := controller.Update(s.db, id, form.input())
	if err != nil {
		status, msg := writeError(err)
		log.Warn().Err(err).Uint64("id", id).Msg("update section failed")

		return s.renderForm(c, status, form, false, msg, nil)
	}

	log.Info().Uint64("id", id).Str("page", updated.PageName).Str("key", updated.SectionKey).Msg("section updated")

	s.refetch(c, updated.PageName, previousPage)

	return s.listRedirect(c, updated.PageName)
}

// Delete removes a section.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid section id")
	}

	deleted, err := controller.Delete(s.db, id)
	if err != nil {
		status, msg := writeError(err)
		log.Error().Err(err).Uint64("id", id).Msg("delete section failed")

		return c.Status(status).SendString(msg)
	}

	log.Info().Uint64("id", id).Str("page", deleted.PageName).Msg("section deleted")

	s.refetch(c, deleted.PageName)

	return s.listRedirect(c, deleted.PageName)
}

// Toggle flips the active flag of a section.
func (s *Service) Toggle(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid section id")
	}

	current, err := controller.Get(s.db, id)
	if err != nil {
		status, msg := writeError(err)

		return c.Status(status).SendString(msg)
	}

	toggled, err := controller.SetActive(s.db, id, !current.IsActive)
	if err != nil {
		status, msg := writeError(err)
		log.Warn().Err(err).Uint64("id", id).Msg("toggle section failed")

		if status == fiber.StatusConflict {
			return c.Redirect(Path + "?page=" + url.QueryEscape(current.PageName) + "&notice=duplicate")
		}

		return c.Status(status).SendString(msg)
	}

	s.refetch(c, toggled.PageName)

	return s.listRedirect(c, toggled.PageName)
}
