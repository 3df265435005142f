package section

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/content"
	controller "github.com/harbourhotels/hotel-site/internal/db/controller/section"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/handlertest"
	"github.com/harbourhotels/hotel-site/internal/web/navigation"
)

type env struct {
	app      *fiber.App
	views    *handlertest.Views
	db       *gorm.DB
	registry *content.Registry
	cookie   *http.Cookie
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := handlertest.NewDB(t)
	editor := handlertest.CreateUser(t, db, "editor", models.RoleEditor)
	views := &handlertest.Views{}
	app := handlertest.NewApp(t, views, editor)
	registry := content.NewRegistry(controller.Repository{DB: db})

	var s Service
	require.NoError(t, s.Init(app, &handler.Deps{
		Cfg:      &config.Config{},
		DB:       db,
		Auth:     auth.NewService(db),
		Registry: registry,
	}))

	return &env{app: app, views: views, db: db, registry: registry, cookie: handlertest.Login(t, app)}
}

func sectionForm(page, key, data string, active bool) url.Values {
	v := url.Values{
		"page_name":     {page},
		"section_key":   {key},
		"section_title": {"Title " + key},
		"content_type":  {"json"},
		"data":          {data},
		"display_order": {"1"},
	}
	if active {
		v.Set("is_active", "true")
	}

	return v
}

func TestRoutesRequireSession(t *testing.T) {
	e := newEnv(t)

	resp := handlertest.Get(t, e.app, Path, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateRefetchesPage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.Equal(t, 0, e.registry.Page(ctx, "home").Set().Len())

	resp := handlertest.PostForm(t, e.app, Path, sectionForm("Home", "hero", `{"title":"Hi"}`, true), e.cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, Path+"?page=home", resp.Header.Get("Location"))

	set := e.registry.Page(ctx, "home").Set()
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "Hi", content.Decode(set, "hero", map[string]string{})["title"])
}

func TestCreateRejectsInvalidData(t *testing.T) {
	e := newEnv(t)

	resp := handlertest.PostForm(t, e.app, Path, sectionForm("home", "hero", `{not json`, true), e.cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	name, data := e.views.Last()
	assert.Equal(t, TemplateForm, name)
	assert.Equal(t, "Data must be a valid JSON document.", data["Error"])

	form, ok := data["Form"].(Form)
	require.True(t, ok)
	assert.Equal(t, `{not json`, form.Data)
}

func TestCreateRejectsMissingKey(t *testing.T) {
	e := newEnv(t)

	resp := handlertest.PostForm(t, e.app, Path, sectionForm("home", "", `{}`, true), e.cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, data := e.views.Last()
	errs, ok := data["Errors"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, errs, "section_key")
}

func TestCreateRejectsDuplicateActiveKey(t *testing.T) {
	e := newEnv(t)

	resp := handlertest.PostForm(t, e.app, Path, sectionForm("home", "hero", `{}`, true), e.cookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = handlertest.PostForm(t, e.app, Path, sectionForm("home", "hero", `{}`, true), e.cookie)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = handlertest.PostForm(t, e.app, Path, sectionForm("home", "hero", `{}`, false), e.cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestUpdateMovingPageRefetchesBoth(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := controller.Create(e.db, controller.Input{
		PageName: "home", SectionKey: "intro", Data: []byte(`{"body":"x"}`), IsActive: true,
	})
	require.NoError(t, err)

	require.Equal(t, 1, e.registry.Page(ctx, "home").Set().Len())
	require.Equal(t, 0, e.registry.Page(ctx, "about").Set().Len())

	target := fmt.Sprintf("%s/%d", Path, created.ID)
	resp := handlertest.PostForm(t, e.app, target, sectionForm("about", "intro", `{"body":"y"}`, true), e.cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	assert.Equal(t, 0, e.registry.Page(ctx, "home").Set().Len())
	assert.Equal(t, 1, e.registry.Page(ctx, "about").Set().Len())
}

func TestEditPrefillsForm(t *testing.T) {
	e := newEnv(t)

	created, err := controller.Create(e.db, controller.Input{
		PageName: "faq", SectionKey: "questions", Data: []byte(`{"items":[]}`), IsActive: true,
	})
	require.NoError(t, err)

	resp := handlertest.Get(t, e.app, fmt.Sprintf("%s/%d/edit", Path, created.ID), e.cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := e.views.Last()
	form := data["Form"].(Form)
	assert.Equal(t, created.ID, form.ID)
	assert.Equal(t, "faq", form.PageName)
	assert.Contains(t, form.Data, `"items": []`)

	resp = handlertest.Get(t, e.app, Path+"/999/edit", e.cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToggleAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := controller.Create(e.db, controller.Input{
		PageName: "home", SectionKey: "hero", Data: []byte(`{}`), IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, e.registry.Page(ctx, "home").Set().Len())

	resp := handlertest.PostForm(t, e.app, fmt.Sprintf("%s/%d/toggle", Path, created.ID), url.Values{}, e.cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, 0, e.registry.Page(ctx, "home").Set().Len())

	got, err := controller.Get(e.db, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	resp = handlertest.PostForm(t, e.app, fmt.Sprintf("%s/%d/delete", Path, created.ID), url.Values{}, e.cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	_, err = controller.Get(e.db, created.ID)
	assert.ErrorIs(t, err, controller.ErrSectionNotFound)
}

func TestListShowsInactiveSections(t *testing.T) {
	e := newEnv(t)

	for _, active := range []bool{true, false} {
		_, err := controller.Create(e.db, controller.Input{
			PageName: "about", SectionKey: "story", Data: []byte(`{}`), IsActive: active,
		})
		require.NoError(t, err)
	}

	resp := handlertest.Get(t, e.app, Path+"?page=about", e.cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	name, data := e.views.Last()
	assert.Equal(t, TemplateList, name)
	assert.Equal(t, "about", data["Page"])
	assert.Len(t, data["Sections"], 2)
}

func TestPageNameIsEscapedInLinks(t *testing.T) {
	e := newEnv(t)

	resp := handlertest.PostForm(t, e.app, Path, sectionForm("Spa & Wellness", "hero", `{}`, true), e.cookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location := resp.Header.Get("Location")
	assert.Equal(t, Path+"?page=spa+%26+wellness", location)

	resp = handlertest.Get(t, e.app, location, e.cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := e.views.Last()
	assert.Equal(t, "spa & wellness", data["Page"])
	assert.Len(t, data["Sections"], 1)

	nav, ok := data["Navigation"].(*navigation.Context)
	require.True(t, ok)
	require.NotEmpty(t, nav.Breadcrumbs)
	assert.Equal(t, location, nav.Breadcrumbs[len(nav.Breadcrumbs)-1].URL)

	_, err := controller.Create(e.db, controller.Input{
		PageName: "spa & wellness", SectionKey: "hero", Data: []byte(`{}`),
	})
	require.NoError(t, err)

	rows, err := controller.ListByPage(e.db, "spa & wellness")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var id uint64
	for _, row := range rows {
		if !row.IsActive {
			id = row.ID
		}
	}
	require.NotZero(t, id)

	resp = handlertest.PostForm(t, e.app, fmt.Sprintf("%s/%d/toggle", Path, id), url.Values{}, e.cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, Path+"?page=spa+%26+wellness&notice=duplicate", resp.Header.Get("Location"))
}
