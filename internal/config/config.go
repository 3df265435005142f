// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvConfigJSON names the environment variable holding a JSON document
	// that is merged over the file configuration.
	EnvConfigJSON = "HOTEL_SITE_CONFIG_JSON"

	// envPrefix is the prefix for single value overrides, e.g. HOTEL_SITE_DB_PASSWORD.
	envPrefix = "HOTEL_SITE"

	defaultShutDownTime  = 5
	defaultSessionExpiry = 12 * time.Hour
	defaultMailTimeout   = 15 * time.Second

	defaultLDAPPort       = 389
	defaultLDAPSPort      = 636
	defaultLDAPTimeout    = 10 * time.Second
	defaultLDAPUserFilter = "(uid={username})"

	defaultContactRequestsPerMinute = 3
	defaultContactBurst             = 5
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config from env")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the service can not start without and
// fills in defaults for optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	switch strings.ToLower(c.DB.GormEngine) {
	case "", EngineMySQL:
		c.DB.GormEngine = EngineMySQL
	case EnginePostgres, EngineSQLite:
		c.DB.GormEngine = strings.ToLower(c.DB.GormEngine)
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	switch strings.ToLower(c.Storage.Driver) {
	case "", StorageMinIO, StorageS3:
		c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	default:
		return errors.Wrap(ErrUnknownStorageDriver, invalidErrMessage)
	}

	if err := validateLDAP(&c.Auth.LDAP); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if c.Mail.Enabled && c.Mail.Host == "" {
		return errors.Wrap(ErrEmptyMailHost, invalidErrMessage)
	}

	if c.Mail.Timeout == 0 {
		c.Mail.Timeout = defaultMailTimeout
	}

	if c.Contact.RequestsPerMinute <= 0 {
		c.Contact.RequestsPerMinute = defaultContactRequestsPerMinute
	}

	if c.Contact.Burst <= 0 {
		c.Contact.Burst = defaultContactBurst
	}

	return nil
}

func validateLDAP(l *LDAPAuth) error {
	if !l.Enabled {
		return nil
	}

	if l.Host == "" {
		return ErrEmptyLDAPHost
	}

	if l.BaseDN == "" {
		return ErrEmptyLDAPBaseDN
	}

	if l.Port == 0 {
		l.Port = defaultLDAPPort
		if l.UseSSL {
			l.Port = defaultLDAPSPort
		}
	}

	if l.UserFilter == "" {
		l.UserFilter = defaultLDAPUserFilter
	}

	if l.Timeout == 0 {
		l.Timeout = defaultLDAPTimeout
	}

	return nil
}
