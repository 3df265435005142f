// Package booking stores the configuration of the third-party booking widget.
package booking

import (
	"errors"
	"net/url"
	"strconv"

	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/db/controller/setting"
)

const (
	// SettingKeyBookingWidget is the key used to store the booking widget settings in the database.
	SettingKeyBookingWidget = "booking_widget"

	// DefaultHeight is the iframe height used when none is configured.
	DefaultHeight = 800
)

// Settings configures the booking engine iframe on the booking page.
type Settings struct {
	ProviderURL string `form:"provider_url" json:"providerUrl" validate:"required,url"`
	PropertyID  string `form:"property_id"  json:"propertyId"  validate:"required,max=100"`
	Locale      string `form:"locale"       json:"locale"      validate:"omitempty,max=10"`
	Currency    string `form:"currency"     json:"currency"    validate:"omitempty,len=3,alpha"`
	Height      int    `form:"height"       json:"height"      validate:"omitempty,min=200,max=2000"`
}

// Load loads the booking widget settings from the database.
// A missing setting is not an error, the receiver is left untouched.
func (s *Settings) Load(db *gorm.DB) error {
	err := setting.LoadJSON(db, SettingKeyBookingWidget, s)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return nil
	}

	return err
}

// Save saves the booking widget settings to the database.
func (s *Settings) Save(db *gorm.DB) error {
	return setting.SaveJSON(db, SettingKeyBookingWidget, s)
}

// Configured reports whether the widget can be embedded.
func (s *Settings) Configured() bool {
	return s.ProviderURL != "" && s.PropertyID != ""
}

// IframeHeight returns the configured height or DefaultHeight.
func (s *Settings) IframeHeight() int {
	if s.Height <= 0 {
		return DefaultHeight
	}

	return s.Height
}

// EmbedURL builds the iframe source. Existing query parameters of ProviderURL are kept.
func (s *Settings) EmbedURL() (string, error) {
	u, err := url.Parse(s.ProviderURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("property", s.PropertyID)

	if s.Locale != "" {
		q.Set("locale", s.Locale)
	}

	if s.Currency != "" {
		q.Set("currency", s.Currency)
	}

	u.RawQuery = q.Encode()

	return u.String(), nil
}

// HeightString is a template helper for the iframe height attribute.
func (s *Settings) HeightString() string {
	return strconv.Itoa(s.IframeHeight())
}
