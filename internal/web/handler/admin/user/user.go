// Package user provides handlers for managing admin panel users.
package user

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/dashboard"
	"github.com/harbourhotels/hotel-site/internal/web/navigation"
	"github.com/harbourhotels/hotel-site/internal/web/session"
)

const (
	// Path is the base path for user management.
	Path = handler.AdminPath + "/users"

	// TemplateList is the template for listing users.
	TemplateList = "admin/user/list"
	// TemplateForm is the template for creating/updating a user.
	TemplateForm = "admin/user/form"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25
	maxPageSize     = 100
)

// Form carries the editable user fields. Password is only required on create.
type Form struct {
	ID        uint64 `form:"-"`
	Username  string `form:"username"  validate:"required,min=3,max=100"`
	Email     string `form:"email"     validate:"required,email,max=255"`
	FirstName string `form:"firstname" validate:"max=100"`
	LastName  string `form:"lastname"  validate:"max=100"`
	Password  string `form:"password"  validate:"omitempty,min=8,max=200"`
	Active    bool   `form:"active"`
	RoleID    uint   `form:"role_id"   validate:"required"`
}

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	auth      *auth.Service
	local     *auth.LocalProvider
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.cfg = deps.Cfg
	s.db = deps.DB
	s.auth = deps.Auth
	s.local = auth.NewLocalProvider(deps.DB)
	s.validator = handler.NewValidator()

	guard := auth.RequirePermission(deps.Auth, auth.PermUsers)

	app.Get(Path, guard, s.List)
	app.Get(Path+"/new", guard, s.New)
	app.Post(Path, guard, s.Create)
	app.Get(Path+"/:id/edit", guard, s.Edit)
	app.Post(Path+"/:id", guard, s.Update)
	app.Post(Path+"/:id/delete", guard, s.Delete)
	app.Post(Path+"/:id/totp/disable", guard, s.ResetTOTP)

	self := auth.RequirePermission(deps.Auth, auth.PermDashboard)

	app.Get(AccountTOTPPath, self, s.TOTPGet)
	app.Post(AccountTOTPPath, self, s.TOTPPost)
	app.Post(AccountTOTPPath+"/disable", self, s.TOTPDisable)

	return nil
}

func listNav() *navigation.Context {
	return navigation.NewContext("Users", "admin", "user").
		AddBreadcrumb("Dashboard", dashboard.Path, false).
		AddBreadcrumb("Users", Path, true)
}

func formNav(title string) *navigation.Context {
	return navigation.NewContext(title, "admin", "user").
		AddBreadcrumb("Dashboard", dashboard.Path, false).
		AddBreadcrumb("Users", Path, false).
		AddBreadcrumb(title, "", true)
}

func currentUserID(c *fiber.Ctx) uint64 {
	if data, ok := session.Current(c); ok {
		return data.User.ID
	}

	return 0
}

// List shows users with simple pagination and search.
func (s *Service) List(c *fiber.Ctx) error {
	return s.renderList(c, fiber.StatusOK, "")
}

func (s *Service) renderList(c *fiber.Ctx, status int, msg string) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = DefaultPageSize
	}

	search := strings.TrimSpace(c.Query("search"))

	var (
		users      []models.User
		totalCount int64
		tx         = s.db.Model(&models.User{})
	)

	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where(
			"LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like, like,
		)
	}

	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count users failed")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": listNav(),
			"Error":      "Failed to load users",
			"Search":     search,
		}, handler.BaseLayout)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	offset := (page - 1) * pageSize
	if err := tx.Preload("Role").Order("username ASC").Limit(pageSize).Offset(offset).Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("query users failed")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": listNav(),
			"Error":      "Failed to load users",
			"Search":     search,
		}, handler.BaseLayout)
	}

	return c.Status(status).Render(TemplateList, fiber.Map{
		"Navigation":    listNav(),
		"Users":         users,
		"CurrentUserID": currentUserID(c),
		"Search":        search,
		"Page":          page,
		"PageSize":      pageSize,
		"TotalItems":    totalCount,
		"TotalPages":    totalPages,
		"HasPrev":       page > 1,
		"HasNext":       page < totalPages,
		"PrevPage":      page - 1,
		"NextPage":      page + 1,
		"Error":         msg,
	}, handler.BaseLayout)
}

func (s *Service) renderForm(c *fiber.Ctx, status int, form Form, isCreate bool, msg string, errs map[string]string) error {
	title := "Edit user"
	if isCreate {
		title = "New user"
	}

	roles, err := s.auth.Roles()
	if err != nil {
		log.Error().Err(err).Msg("failed to load roles")

		if msg == "" {
			msg = "Failed to load roles"
		}
	}

	return c.Status(status).Render(TemplateForm, fiber.Map{
		"Navigation": formNav(title),
		"Form":       form,
		"IsCreate":   isCreate,
		"Roles":      roles,
		"Error":      msg,
		"Errors":     errs,
	}, handler.BaseLayout)
}

// New shows the creation form, preselecting the editor role.
func (s *Service) New(c *fiber.Ctx) error {
	form := Form{Active: true}

	if role, err := s.auth.RoleByName(models.RoleEditor); err == nil {
		form.RoleID = role.ID
	}

	return s.renderForm(c, fiber.StatusOK, form, true, "", nil)
}

// parse reads and validates the form. A non-empty username overrides the
// submitted one, usernames are immutable after creation.
func (s *Service) parse(c *fiber.Ctx, username string) (Form, map[string]string, error) {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return form, nil, err
	}

	isCreate := username == ""
	if !isCreate {
		form.Username = username
	}

	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	if err := s.validator.Struct(form); err != nil {
		return form, handler.FieldErrors(err), err
	}

	if isCreate && form.Password == "" {
		return form, map[string]string{"password": "This field is required."}, auth.ErrEmptyCredentials
	}

	return form, nil, nil
}

// Create creates a new local user.
func (s *Service) Create(c *fiber.Ctx) error {
	form, errs, err := s.parse(c, "")
	password := form.Password
	form.Password = ""

	if err != nil {
		return s.renderForm(c, fiber.StatusBadRequest, form, true, "Please correct the highlighted fields.", errs)
	}

	user, err := s.local.CreateUser(form.Username, form.Email, password, form.FirstName, form.LastName, form.RoleID)
	if err != nil {
		status, msg := fiber.StatusInternalServerError, "Failed to create user."
		if errors.Is(err, auth.ErrUserNameOrEmailExists) {
			status, msg = fiber.StatusConflict, "A user with this username or email already exists."
		}

		log.Warn().Err(err).Str("username", form.Username).Msg("create user failed")

		return s.renderForm(c, status, form, true, msg, nil)
	}

	if !form.Active {
		if err = s.local.UpdateUser(user.ID, user.Email, user.FirstName, user.LastName, user.RoleID, false); err != nil {
			log.Error().Err(err).Uint64("id", user.ID).Msg("failed to deactivate new user")
		}
	}

	log.Info().Uint64("id", user.ID).Str("username", user.Username).Msg("user created")

	return c.Redirect(Path)
}

func parseID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)

	return id, err == nil && id > 0
}

// Edit shows the edit form for a user.
func (s *Service) Edit(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Redirect(Path)
	}

	user, err := s.local.GetUserByID(id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Redirect(Path)
		}

		return s.renderList(c, fiber.StatusInternalServerError, "Failed to load user")
	}

	return s.renderForm(c, fiber.StatusOK, Form{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Active:    user.Active,
		RoleID:    user.RoleID,
	}, false, "", nil)
}

// Update updates profile, role, active flag and optionally the password of a user.
// Usernames are immutable.
func (s *Service) Update(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Redirect(Path)
	}

	user, err := s.local.GetUserByID(id)
	if err != nil {
		return c.Redirect(Path)
	}

	form, errs, err := s.parse(c, user.Username)
	password := form.Password
	form.ID, form.Password = id, ""

	if err != nil {
		return s.renderForm(c, fiber.StatusBadRequest, form, false, "Please correct the highlighted fields.", errs)
	}

	if id == currentUserID(c) && (!form.Active || form.RoleID != user.RoleID) {
		return s.renderForm(c, fiber.StatusBadRequest, form, false,
			"You cannot deactivate yourself or change your own role.", nil)
	}

	if err = s.local.UpdateUser(id, form.Email, form.FirstName, form.LastName, form.RoleID, form.Active); err != nil {
		log.Error().Err(err).Uint64("id", id).Msg("update user failed")

		return s.renderForm(c, fiber.StatusInternalServerError, form, false, "Failed to update user.", nil)
	}

	if password != "" && user.AuthSource == models.AuthSourceLocal {
		if err = s.local.ResetPassword(id, password); err != nil {
			log.Error().Err(err).Uint64("id", id).Msg("password reset failed")

			return s.renderForm(c, fiber.StatusInternalServerError, form, false, "Failed to set the password.", nil)
		}
	}

	log.Info().Uint64("id", id).Msg("user updated")

	return c.Redirect(Path)
}

// Delete removes a user. Administrators and the acting user are protected.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Redirect(Path)
	}

	err := s.local.DeleteUser(currentUserID(c), id)

	switch {
	case err == nil:
		log.Info().Uint64("id", id).Msg("user deleted")

		return c.Redirect(Path)
	case errors.Is(err, auth.ErrProtectedUser):
		return s.renderList(c, fiber.StatusForbidden, "Administrators and your own account cannot be deleted.")
	case errors.Is(err, auth.ErrUserNotFound):
		return c.Redirect(Path)
	default:
		log.Error().Err(err).Uint64("id", id).Msg("delete user failed")

		return s.renderList(c, fiber.StatusInternalServerError, "Failed to delete user.")
	}
}

// ResetTOTP removes the second factor of another user, e.g. after a lost device.
func (s *Service) ResetTOTP(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Redirect(Path)
	}

	if err := s.local.DisableTOTP(id); err != nil {
		log.Error().Err(err).Uint64("id", id).Msg("totp reset failed")

		return s.renderList(c, fiber.StatusInternalServerError, "Failed to reset the second factor.")
	}

	log.Info().Uint64("id", id).Msg("totp reset by administrator")

	return c.Redirect(Path)
}
