package oidc

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler/dashboard"
	"github.com/harbourhotels/hotel-site/internal/web/handler/handlertest"
	"github.com/harbourhotels/hotel-site/internal/web/session"
)

type fakeProvider struct {
	user *models.User
	err  error
	code string
}

func (f *fakeProvider) GetAuthURL(state string) string {
	return "https://idp.example.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) HandleCallback(_ context.Context, code string) (*models.User, string, error) {
	f.code = code
	if f.err != nil {
		return nil, "", f.err
	}

	return f.user, "raw-id-token", nil
}

func newApp(t *testing.T, provider *fakeProvider) *fiber.App {
	t.Helper()

	session.Init(nil)

	app := fiber.New()
	cfg := &config.Config{
		DevMode:   true,
		Webserver: config.Webserver{Session: config.Session{ExpiryTime: time.Hour}},
	}

	var s Service
	s.setup(app, cfg, provider, auth.NewStateStore())

	return app
}

func stateFrom(t *testing.T, resp *http.Response) string {
	t.Helper()

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)

	return loc.Query().Get("state")
}

func TestLoginAndCallback(t *testing.T) {
	provider := &fakeProvider{user: &models.User{ID: 3, Username: "sso-user", Active: true}}
	app := newApp(t, provider)

	resp := handlertest.Get(t, app, LoginPath, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	state := stateFrom(t, resp)
	require.NotEmpty(t, state)

	resp = handlertest.Get(t, app, CallbackPath+"?code=abc&state="+url.QueryEscape(state), nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, dashboard.Path, resp.Header.Get("Location"))
	assert.Equal(t, "abc", provider.code)
	require.NotEmpty(t, resp.Cookies())

	var data session.Data
	require.NoError(t, data.Read(resp.Cookies()[0].Value))
	assert.Equal(t, "sso-user", data.User.Username)
	assert.Equal(t, "raw-id-token", data.IDToken)

	// states are single use
	resp = handlertest.Get(t, app, CallbackPath+"?code=abc&state="+url.QueryEscape(state), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCallbackRejects(t *testing.T) {
	provider := &fakeProvider{err: auth.ErrUserAccountDisabled}
	app := newApp(t, provider)

	resp := handlertest.Get(t, app, CallbackPath+"?code=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = handlertest.Get(t, app, CallbackPath+"?code=abc&state=forged", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = handlertest.Get(t, app, CallbackPath+"?error=access_denied", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	state := stateFrom(t, handlertest.Get(t, app, LoginPath, nil))
	resp = handlertest.Get(t, app, CallbackPath+"?code=abc&state="+url.QueryEscape(state), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	provider.err = errors.New("token exchange failed")
	state = stateFrom(t, handlertest.Get(t, app, LoginPath, nil))
	resp = handlertest.Get(t, app, CallbackPath+"?code=abc&state="+url.QueryEscape(state), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
}
