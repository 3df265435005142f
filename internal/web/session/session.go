// Package session keeps admin sessions in the configured fiber storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/harbourhotels/hotel-site/internal/db/models"
)

// CookieName is the name of the admin session cookie.
const CookieName = "session"

// ErrNoSession is returned when a session id is unknown or expired.
var ErrNoSession = errors.New("session not found")

// Store is the global session store instance.
var Store *session.Store

// Data represents the session data structure.
type Data struct {
	User models.User
	// IDToken is the raw OIDC ID token, used as logout hint.
	IDToken string `json:",omitempty"`
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	if Store == nil {
		return ErrNoSession
	}

	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrNoSession
	}

	return json.Unmarshal(byteData, s)
}

// Init initializes the session store with the provided storage backend.
// A nil storage selects fiber's in-memory storage.
func Init(storage fiber.Storage) {
	Store = session.New(session.Config{
		Storage:    storage,
		KeyLookup:  "cookie:" + CookieName,
		Expiration: 12 * time.Hour, //nolint:mnd
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Start stores data under a new session id and sets the session cookie.
// The cookie is not marked Secure in dev mode.
func Start(c *fiber.Ctx, data *Data, exp time.Duration, devMode bool) error {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return err
	}

	if err = data.Write(sessionID, exp); err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(exp.Seconds()),
		Secure:   !devMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return nil
}

// Current returns the session data of the request, if any.
func Current(c *fiber.Ctx) (*Data, bool) {
	sessionID := c.Cookies(CookieName)
	if sessionID == "" {
		return nil, false
	}

	data := new(Data)
	if err := data.Read(sessionID); err != nil || data.User.ID == 0 {
		return nil, false
	}

	return data, true
}

// Destroy deletes the request's session and expires the cookie.
func Destroy(c *fiber.Ctx) error {
	var err error

	if sessionID := c.Cookies(CookieName); sessionID != "" && Store != nil {
		err = Store.Storage.Delete(sessionID)
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return err
}
