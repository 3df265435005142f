package logout

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/handlertest"
	"github.com/harbourhotels/hotel-site/internal/web/handler/login"
	"github.com/harbourhotels/hotel-site/internal/web/session"
)

func TestLogoutDestroysSession(t *testing.T) {
	db := handlertest.NewDB(t)
	user := handlertest.CreateUser(t, db, "editor", models.RoleEditor)
	app := handlertest.NewApp(t, &handlertest.Views{}, user)

	var s Service
	require.NoError(t, s.Init(app, &handler.Deps{Cfg: &config.Config{}, DB: db}))

	cookie := handlertest.Login(t, app)

	resp := handlertest.Get(t, app, Path, cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, login.Path, resp.Header.Get("Location"))

	var data session.Data
	assert.Error(t, data.Read(cookie.Value))
}
