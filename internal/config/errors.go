package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if config db.gormengine is not supported.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be mysql, postgres or sqlite")

	// ErrUnknownStorageDriver error if config storage.driver is not supported.
	ErrUnknownStorageDriver = errors.New("toml config storage.driver must be minio, s3 or empty")

	// ErrEmptyLDAPHost error if ldap is enabled without a host.
	ErrEmptyLDAPHost = errors.New("toml config auth.ldap.host can not be empty when ldap is enabled")

	// ErrEmptyLDAPBaseDN error if ldap is enabled without a base dn.
	ErrEmptyLDAPBaseDN = errors.New("toml config auth.ldap.basedn can not be empty when ldap is enabled")

	// ErrEmptyMailHost error if mail is enabled without a host.
	ErrEmptyMailHost = errors.New("toml config mail.host can not be empty when mail is enabled")
)
