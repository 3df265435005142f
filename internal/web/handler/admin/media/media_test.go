package media

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/blob"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/handlertest"
)

func decode(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestPost(t *testing.T) {
	db := handlertest.NewDB(t)
	editor := handlertest.CreateUser(t, db, "editor", models.RoleEditor)
	app := handlertest.NewApp(t, &handlertest.Views{}, editor)
	bucket := &handlertest.Bucket{}

	var s Service
	require.NoError(t, s.Init(app, &handler.Deps{
		Cfg:      &config.Config{},
		DB:       db,
		Auth:     auth.NewService(db),
		Uploader: blob.NewUploader(bucket, config.Storage{}),
	}))

	cookie := handlertest.Login(t, app)

	resp := handlertest.PostFile(t, app, Path, nil, "room.png", handlertest.PNG(t, 32, 16), cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.True(t, strings.HasPrefix(body["url"], "https://cdn.test/uploads/"), body["url"])
	assert.Len(t, bucket.Objects, 1)

	resp = handlertest.PostFile(t, app, Path, nil, "", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = handlertest.PostFile(t, app, Path, nil, "room.png", handlertest.PNG(t, 4, 4), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostWithoutStorage(t *testing.T) {
	db := handlertest.NewDB(t)
	editor := handlertest.CreateUser(t, db, "editor", models.RoleEditor)
	app := handlertest.NewApp(t, &handlertest.Views{}, editor)

	var s Service
	require.NoError(t, s.Init(app, &handler.Deps{Cfg: &config.Config{}, DB: db, Auth: auth.NewService(db)}))

	resp := handlertest.PostFile(t, app, Path, nil, "room.png", handlertest.PNG(t, 4, 4), handlertest.Login(t, app))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "File storage is not configured.", decode(t, resp)["error"])
}
