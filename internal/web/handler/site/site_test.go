package site

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/db/controller/booking"
	"github.com/harbourhotels/hotel-site/internal/db/controller/section"
	"github.com/harbourhotels/hotel-site/internal/db/controller/setting"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/mail"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
)

// recordingViews remembers the last rendered template and its data.
type recordingViews struct {
	mu   sync.Mutex
	name string
	data fiber.Map
}

func (v *recordingViews) Load() error { return nil }

func (v *recordingViews) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.name = name
	v.data, _ = data.(fiber.Map)

	_, err := io.WriteString(w, "<html><head></head><body>"+name+"</body></html>")

	return err
}

func (v *recordingViews) last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.name, v.data
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, msg)

	return nil
}

type failingSource struct{}

func (failingSource) ActiveSections(context.Context, string) ([]models.ContentSection, error) {
	return nil, errors.New("database is gone")
}

type env struct {
	app    *fiber.App
	views  *recordingViews
	db     *gorm.DB
	mailer *fakeMailer
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.ContentSection{}, &models.SiteSetting{}))

	return db
}

func newEnv(t *testing.T, source content.SectionSource, limit int) *env {
	t.Helper()

	db := newTestDB(t)
	if source == nil {
		source = section.Repository{DB: db}
	}

	views := &recordingViews{}
	app := fiber.New(fiber.Config{Views: views})
	mailer := &fakeMailer{}

	cfg := &config.Config{
		Webserver: config.Webserver{URL: "http://localhost:8080"},
		Contact:   config.Contact{RequestsPerMinute: limit, Burst: limit},
	}

	resolver := content.NewResolver(setting.Repository{DB: db}, content.BuiltinDefaults())

	var s Service
	require.NoError(t, s.Init(app, &handler.Deps{
		Cfg:      cfg,
		DB:       db,
		Registry: content.NewRegistry(source),
		Resolver: resolver,
		Mailer:   mailer,
	}))

	t.Cleanup(func() { Handler = Service{} })

	return &env{app: app, views: views, db: db, mailer: mailer}
}

func addSection(t *testing.T, db *gorm.DB, page, key, data string, order int, active bool) {
	t.Helper()

	_, err := section.Create(db, section.Input{
		PageName:     page,
		SectionKey:   key,
		Data:         []byte(data),
		DisplayOrder: order,
		IsActive:     active,
	})
	require.NoError(t, err)
}

func get(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)

	return resp
}

func TestHomeUsesSections(t *testing.T) {
	e := newEnv(t, nil, 5)

	addSection(t, e.db, PageHome, "hero", `{"title":"Sleep by the sea","cta_label":"Book"}`, 0, true)
	addSection(t, e.db, PageHome, "highlights", `{"items":[{"icon":"wifi","title":"Free WiFi"}]}`, 1, true)
	addSection(t, e.db, PageHome, "intro", `{"title":"Hidden"}`, 2, false)

	resp := get(t, e.app, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	name, data := e.views.last()
	assert.Equal(t, "site/home", name)

	hero := data["Hero"].(Hero)
	assert.Equal(t, "Sleep by the sea", hero.Title)
	assert.Empty(t, hero.Subtitle, "nested fields are not defaulted")

	highlights := data["Highlights"].(Items)
	require.Len(t, highlights.Items, 1)
	assert.Equal(t, "wifi", highlights.Items[0].Icon)

	assert.Equal(t, Prose{}, data["Intro"], "inactive sections are not rendered")
	assert.Equal(t, PageHome, data["Page"])
}

func TestPageFallbacks(t *testing.T) {
	e := newEnv(t, nil, 5)

	for path, title := range map[string]string{
		"/about":      "About us",
		"/locations":  "Our locations",
		"/facilities": "Facilities",
		"/faq":        "Frequently asked questions",
		"/policies":   "Hotel policies",
		"/contact":    "Contact us",
		"/booking":    "Book your stay",
	} {
		resp := get(t, e.app, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)

		_, data := e.views.last()
		assert.Equal(t, title, data["Hero"].(Hero).Title, path)
	}

	get(t, e.app, "/")
	_, data := e.views.last()
	assert.Equal(t, "Welcome to "+content.DefaultSiteName, data["Hero"].(Hero).Title)
}

func TestStoreFailureRendersFallbacks(t *testing.T) {
	e := newEnv(t, failingSource{}, 5)

	resp := get(t, e.app, "/faq")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := e.views.last()
	assert.Equal(t, "Frequently asked questions", data["Hero"].(Hero).Title)
	assert.Empty(t, data["Questions"].(Questions).Items)
}

func TestLayoutUsesSettings(t *testing.T) {
	db := newTestDB(t)

	_, err := setting.Set(db, content.KeySiteLogo, "https://cdn.example.com/logo.png", models.SettingTypeImage)
	require.NoError(t, err)
	_, err = setting.Set(db, "social_facebook", "https://facebook.com/harbour", models.SettingTypeURL)
	require.NoError(t, err)
	_, err = setting.Set(db, KeyContactPhone, "+49 40 1234", models.SettingTypeText)
	require.NoError(t, err)

	resolver := content.NewResolver(setting.Repository{DB: db}, content.BuiltinDefaults())
	resolver.Load(context.Background())

	views := &recordingViews{}
	app := fiber.New(fiber.Config{Views: views})

	var s Service
	require.NoError(t, s.Init(app, &handler.Deps{
		Cfg:      &config.Config{},
		DB:       db,
		Registry: content.NewRegistry(section.Repository{DB: db}),
		Resolver: resolver,
	}))

	get(t, app, "/about")

	_, data := views.last()
	snap := data["Site"].(content.Snapshot)
	assert.Equal(t, "https://cdn.example.com/logo.png", snap.HeaderLogo)
	assert.Equal(t, "https://cdn.example.com/logo.png", snap.FooterLogo)
	assert.Equal(t, content.DefaultFavicon, snap.Favicon)
	assert.Equal(t, []SocialLink{{Icon: "facebook", URL: "https://facebook.com/harbour"}}, data["Social"])
	assert.Equal(t, "+49 40 1234", data["Contact"].(ContactDetails).Phone)
}

func TestBookingWidget(t *testing.T) {
	e := newEnv(t, nil, 5)

	get(t, e.app, "/booking")
	_, data := e.views.last()
	assert.Empty(t, data["Widget"].(Widget).Src)
	assert.Equal(t, "Reservations", data["Fallback"].(Prose).Title)

	settings := booking.Settings{ProviderURL: "https://book.example.com/widget", PropertyID: "HH42", Currency: "EUR"}
	require.NoError(t, settings.Save(e.db))

	get(t, e.app, "/booking")
	_, data = e.views.last()

	widget := data["Widget"].(Widget)
	assert.Equal(t, "https://book.example.com/widget?currency=EUR&property=HH42", widget.Src)
	assert.Equal(t, booking.DefaultHeight, widget.Height)
}

func postContact(t *testing.T, app *fiber.App, form url.Values, accept string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)

	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func validForm() url.Values {
	return url.Values{
		"name":     {"<b>Jane</b> Doe"},
		"email":    {"jane@example.com"},
		"location": {"Hamburg"},
		"subject":  {"Room enquiry"},
		"message":  {"Do you have a room for two?"},
	}
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestContactJSONSuccess(t *testing.T) {
	e := newEnv(t, nil, 5)

	resp := postContact(t, e.app, validForm(), fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, msgSent, body["message"])

	require.Len(t, e.mailer.sent, 1)
	assert.Equal(t, "Jane Doe", e.mailer.sent[0].Name)
	assert.Equal(t, "Hamburg", e.mailer.sent[0].Location)
}

func TestContactValidation(t *testing.T) {
	e := newEnv(t, nil, 5)

	form := validForm()
	form.Set("email", "not-an-email")
	form.Del("message")

	resp := postContact(t, e.app, form, fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, false, body["success"])

	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "message")
	assert.Empty(t, e.mailer.sent)
}

func TestContactRelayFailureHTML(t *testing.T) {
	e := newEnv(t, nil, 5)
	e.mailer.err = errors.New("connection refused")

	resp := postContact(t, e.app, validForm(), "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	name, data := e.views.last()
	assert.Equal(t, "site/contact", name)
	assert.Equal(t, msgFailed, data["Notice"])
	assert.Equal(t, false, data["Success"])
	assert.Equal(t, "Room enquiry", data["Form"].(contactForm).Subject, "the form keeps the submitted values")
}

func TestContactRateLimit(t *testing.T) {
	e := newEnv(t, nil, 1)

	resp := postContact(t, e.app, validForm(), fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postContact(t, e.app, validForm(), fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, msgLimited, decodeJSON(t, resp)["message"])

	assert.Len(t, e.mailer.sent, 1)
}

func TestContactWithoutMailer(t *testing.T) {
	db := newTestDB(t)
	views := &recordingViews{}
	app := fiber.New(fiber.Config{Views: views})

	var s Service
	require.NoError(t, s.Init(app, &handler.Deps{
		Cfg:      &config.Config{},
		DB:       db,
		Registry: content.NewRegistry(section.Repository{DB: db}),
		Resolver: content.NewResolver(setting.Repository{DB: db}, content.BuiltinDefaults()),
	}))

	resp := postContact(t, app, validForm(), fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestInitRequiresCore(t *testing.T) {
	var s Service

	err := s.Init(fiber.New(), &handler.Deps{Cfg: &config.Config{}, DB: newTestDB(t)})
	assert.ErrorIs(t, err, handler.ErrNilDeps)

	assert.Len(t, Pages(), len(Menu()))
}
