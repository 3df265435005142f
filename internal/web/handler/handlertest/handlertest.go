// Package handlertest holds helpers shared by the handler tests.
package handlertest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/session"
)

// Views records the last rendered template and its data.
type Views struct {
	mu   sync.Mutex
	name string
	data fiber.Map
}

// Load implements fiber.Views.
func (v *Views) Load() error { return nil }

// Render implements fiber.Views.
func (v *Views) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.name = name
	v.data, _ = data.(fiber.Map)

	_, err := io.WriteString(w, name)

	return err
}

// Last returns the last rendered template.
func (v *Views) Last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.name, v.data
}

// NewDB opens an in-memory database with every model migrated and the
// built-in roles in place.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	require.NoError(t, auth.NewService(db).EnsureRoles())

	return db
}

// CreateUser adds an active local user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	r, err := auth.NewService(db).RoleByName(role)
	require.NoError(t, err)

	u, err := auth.NewLocalProvider(db).CreateUser(username, username+"@example.com", "secret-"+username, "", "", r.ID)
	require.NoError(t, err)

	return u
}

// NewApp returns a fiber app rendering into views, with an in-memory
// session store and a /test-login route starting a session for user.
func NewApp(t *testing.T, views *Views, user *models.User) *fiber.App {
	t.Helper()

	session.Init(nil)

	app := fiber.New(fiber.Config{Views: views})
	if user != nil {
		u := *user
		app.Get("/test-login", func(c *fiber.Ctx) error {
			return session.Start(c, &session.Data{User: u}, time.Hour, true)
		})
	}

	return app
}

// Login fetches a session cookie from the /test-login route.
func Login(t *testing.T, app *fiber.App) *http.Cookie {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test-login", nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Cookies())

	return resp.Cookies()[0]
}

// Get performs a GET request with the cookie.
func Get(t *testing.T, app *fiber.App, target string, cookie *http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

// PostForm performs a form POST with the cookie.
func PostForm(t *testing.T, app *fiber.App, target string, form url.Values, cookie *http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

// PostFile performs a multipart POST carrying fields and one file under "file".
func PostFile(t *testing.T, app *fiber.App, target string, fields map[string]string, filename string, data []byte,
	cookie *http.Cookie,
) *http.Response {
	t.Helper()

	var body bytes.Buffer

	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

// PNG encodes a solid w x h image.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 20, G: 90, B: 160, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

// Bucket keeps stored objects in memory and serves them under https://cdn.test/.
type Bucket struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

// Put implements blob.Bucket.
func (b *Bucket) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Objects == nil {
		b.Objects = map[string][]byte{}
	}

	b.Objects[key] = data

	return "https://cdn.test/" + key, nil
}

// Delete implements blob.Bucket.
func (b *Bucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.Objects, key)

	return nil
}
