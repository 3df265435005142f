package content

import (
	"context"
	"maps"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/db/models"
)

// Setting keys with a resolution rule. Older rows may still use the legacy names.
const (
	KeySiteLogo    = "site_logo"
	KeyHeaderLogo  = "header_logo" // legacy
	KeyFooterLogo  = "footer_logo"
	KeySiteFavicon = "site_favicon"
	KeyFavicon     = "favicon" // legacy
	KeySiteName    = "site_name"
)

// Built-in values used when no setting provides one.
const (
	DefaultLogo     = "/static/img/logo.svg"
	DefaultFavicon  = "/static/img/favicon.svg"
	DefaultSiteName = "Harbour Hotels"
)

// Defaults are the values a Snapshot falls back to.
type Defaults struct {
	Logo     string
	Favicon  string
	SiteName string
}

// BuiltinDefaults returns the shipped defaults.
func BuiltinDefaults() Defaults {
	return Defaults{
		Logo:     DefaultLogo,
		Favicon:  DefaultFavicon,
		SiteName: DefaultSiteName,
	}
}

// Snapshot holds resolved site settings. It is never modified after creation.
type Snapshot struct {
	HeaderLogo string
	FooterLogo string
	Favicon    string
	SiteName   string

	values map[string]string
}

// Value returns the raw setting stored under key, or fallback when it is absent or empty.
func (s Snapshot) Value(key, fallback string) string {
	if v := s.values[key]; v != "" {
		return v
	}

	return fallback
}

// Values returns a copy of every raw setting.
func (s Snapshot) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	maps.Copy(out, s.values)

	return out
}

// first returns the first non-empty value among keys, else def.
func first(values map[string]string, def string, keys ...string) string {
	for _, k := range keys {
		if v := values[k]; v != "" {
			return v
		}
	}

	return def
}

// Resolve reduces rows into a Snapshot. For a duplicated key the last row wins.
func Resolve(rows []models.SiteSetting, d Defaults) Snapshot {
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.SettingKey] = row.SettingValue
	}

	return Snapshot{
		HeaderLogo: first(values, d.Logo, KeySiteLogo, KeyHeaderLogo),
		FooterLogo: first(values, d.Logo, KeyFooterLogo, KeySiteLogo),
		Favicon:    first(values, d.Favicon, KeySiteFavicon, KeyFavicon),
		SiteName:   first(values, d.SiteName, KeySiteName),
		values:     values,
	}
}

// Resolver keeps the current settings Snapshot of the process.
type Resolver struct {
	source   SettingSource
	defaults Defaults

	mu      sync.RWMutex
	current Snapshot
	issued  uint64
	applied uint64
}

// NewResolver returns a Resolver whose initial Snapshot holds only the defaults.
func NewResolver(source SettingSource, defaults Defaults) *Resolver {
	return &Resolver{
		source:   source,
		defaults: defaults,
		current:  Resolve(nil, defaults),
	}
}

// Load reads all settings and publishes a new Snapshot. On a read failure the
// error is logged and the previous Snapshot is kept. The current Snapshot is
// returned in every case.
func (r *Resolver) Load(ctx context.Context) Snapshot {
	r.mu.Lock()
	r.issued++
	seq := r.issued
	r.mu.Unlock()

	rows, err := r.source.AllSettings(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq <= r.applied {
		settingLoads.WithLabelValues(resultStale).Inc()

		return r.current
	}

	r.applied = seq

	if err != nil {
		settingLoads.WithLabelValues(resultError).Inc()
		log.Error().Err(err).Msg("failed to load site settings, keeping previous values")

		return r.current
	}

	settingLoads.WithLabelValues(resultOK).Inc()

	r.current = Resolve(rows, r.defaults)

	return r.current
}

// Snapshot returns the current Snapshot without touching the store.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.current
}
