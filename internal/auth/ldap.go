package auth

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/db/models"
)

var (
	// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
	ErrLDAPDisabled = errors.New("ldap authentication is disabled")

	// ErrMultipleUsersFound is returned when the user filter matches more than one entry.
	ErrMultipleUsersFound = errors.New("ldap user filter matched more than one entry")
)

// LDAPConn is the part of *ldap.Conn the provider uses.
type LDAPConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// LDAPDialer opens a directory connection.
type LDAPDialer func() (LDAPConn, error)

// LDAPOption customises an LDAPProvider.
type LDAPOption func(*LDAPProvider)

// WithLDAPDialer replaces the network dialer, e.g. with an in-memory directory.
func WithLDAPDialer(d LDAPDialer) LDAPOption {
	return func(p *LDAPProvider) { p.dial = d }
}

// LDAPProvider authenticates admin users against a directory and provisions
// them locally with the configured default role.
type LDAPProvider struct {
	cfg         config.LDAPAuth
	db          *gorm.DB
	defaultRole string
	dial        LDAPDialer
}

// NewLDAPProvider returns a provider for cfg. cfg is expected to have passed
// config validation, which fills in port, filter and timeout.
func NewLDAPProvider(cfg config.LDAPAuth, db *gorm.DB, opts ...LDAPOption) (*LDAPProvider, error) {
	if !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}

	if cfg.UsernameAttr == "" {
		cfg.UsernameAttr = "uid"
	}

	if cfg.EmailAttr == "" {
		cfg.EmailAttr = "mail"
	}

	if cfg.FirstNameAttr == "" {
		cfg.FirstNameAttr = "givenName"
	}

	if cfg.LastNameAttr == "" {
		cfg.LastNameAttr = "sn"
	}

	p := &LDAPProvider{cfg: cfg, db: db, defaultRole: cfg.DefaultRole}
	if p.defaultRole == "" {
		p.defaultRole = models.RoleEditor
	}

	p.dial = p.connect

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// URL returns the directory address, ldaps:// when UseSSL is set.
func (p *LDAPProvider) URL() string {
	scheme := "ldap://"
	if p.cfg.UseSSL {
		scheme = "ldaps://"
	}

	return scheme + net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))
}

func (p *LDAPProvider) connect() (LDAPConn, error) {
	var tlsConfig *tls.Config
	if p.cfg.UseSSL || p.cfg.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.cfg.SkipVerify, //nolint:gosec // opt-in for self-signed directories
			ServerName:         p.cfg.Host,
		}
	}

	conn, err := ldap.DialURL(p.URL(), ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	if !p.cfg.UseSSL && p.cfg.UseTLS {
		if err = conn.StartTLS(tlsConfig); err != nil {
			closeLDAP(conn)

			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if p.cfg.Timeout > 0 {
		conn.SetTimeout(p.cfg.Timeout)
	}

	return conn, nil
}

func closeLDAP(conn LDAPConn) {
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close LDAP connection")
	}
}

// Authenticate looks the user up with the service account, binds as the user
// to check password and returns the local account, creating it on first login.
// A wrong password yields ErrInvalidPassword, an unknown user ErrUserNotFound.
func (p *LDAPProvider) Authenticate(username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	conn, err := p.dial()
	if err != nil {
		return nil, err
	}
	defer closeLDAP(conn)

	if p.cfg.BindDN != "" {
		if err = conn.Bind(p.cfg.BindDN, p.cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("failed to bind with service account: %w", err)
		}
	}

	entry, err := p.searchUser(conn, username)
	if err != nil {
		return nil, err
	}

	if err = conn.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidPassword
		}

		return nil, fmt.Errorf("failed to bind as user: %w", err)
	}

	return p.upsertUser(username, entry)
}

func (p *LDAPProvider) searchUser(conn LDAPConn, username string) (*ldap.Entry, error) {
	req := ldap.NewSearchRequest(
		p.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2, // one match is expected, two is enough to detect ambiguity
		int(p.cfg.Timeout.Seconds()),
		false,
		strings.ReplaceAll(p.cfg.UserFilter, "{username}", ldap.EscapeFilter(username)),
		[]string{p.cfg.UsernameAttr, p.cfg.EmailAttr, p.cfg.FirstNameAttr, p.cfg.LastNameAttr},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	if res == nil {
		return nil, ErrUserNotFound
	}

	switch len(res.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return res.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

// upsertUser keys directory users by DN. Profile fields follow the directory
// on every login, role and active flag stay under local control.
func (p *LDAPProvider) upsertUser(username string, entry *ldap.Entry) (*models.User, error) {
	if name := entry.GetAttributeValue(p.cfg.UsernameAttr); name != "" {
		username = name
	}

	var user models.User

	err := p.db.Where("external_id = ? AND auth_source = ?", entry.DN, models.AuthSourceLDAP).
		First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return p.provision(username, entry)
	case err != nil:
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	user.Email = entry.GetAttributeValue(p.cfg.EmailAttr)
	user.FirstName = entry.GetAttributeValue(p.cfg.FirstNameAttr)
	user.LastName = entry.GetAttributeValue(p.cfg.LastNameAttr)

	if err = p.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &user, nil
}

func (p *LDAPProvider) provision(username string, entry *ldap.Entry) (*models.User, error) {
	var taken int64
	if err := p.db.Model(&models.User{}).Where("username = ?", username).Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if taken > 0 {
		return nil, ErrUserNameOrEmailExists
	}

	var role models.Role
	if err := p.db.Where(models.WhereNameIs, p.defaultRole).First(&role).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, p.defaultRole)
	}

	user := models.User{
		Active:     true,
		Username:   username,
		Email:      entry.GetAttributeValue(p.cfg.EmailAttr),
		FirstName:  entry.GetAttributeValue(p.cfg.FirstNameAttr),
		LastName:   entry.GetAttributeValue(p.cfg.LastNameAttr),
		AuthSource: models.AuthSourceLDAP,
		ExternalID: entry.DN,
		RoleID:     role.ID,
	}

	if err := p.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("username", username).Str("role", p.defaultRole).Msg("provisioned LDAP user")

	return &user, nil
}
