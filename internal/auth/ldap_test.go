package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth/ldaptest"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/db/models"
)

const (
	serviceDN = "cn=hotel-site,ou=services,dc=example,dc=com"
	maraDN    = "uid=mara,ou=people,dc=example,dc=com"
)

func ldapConfig() config.LDAPAuth {
	return config.LDAPAuth{
		Enabled:      true,
		Host:         "ldap.example.com",
		Port:         389,
		BindDN:       serviceDN,
		BindPassword: "service-secret",
		BaseDN:       "ou=people,dc=example,dc=com",
		UserFilter:   "(uid={username})",
		Timeout:      5 * time.Second,
	}
}

func newDirectory() *ldaptest.Directory {
	dir := ldaptest.New(serviceDN, "service-secret")
	dir.AddUser(maraDN, "harbour-view", map[string][]string{
		"uid":       {"mara"},
		"mail":      {"mara@example.com"},
		"givenName": {"Mara"},
		"sn":        {"Quinn"},
	})

	return dir
}

func newLDAP(t *testing.T, db *gorm.DB, cfg config.LDAPAuth, dir *ldaptest.Directory) *LDAPProvider {
	t.Helper()

	p, err := NewLDAPProvider(cfg, db, WithLDAPDialer(func() (LDAPConn, error) { return dir, nil }))
	require.NoError(t, err)

	return p
}

func TestNewLDAPProviderDisabled(t *testing.T) {
	p, err := NewLDAPProvider(config.LDAPAuth{}, newTestDB(t))
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrLDAPDisabled)
}

func TestLDAPProviderURL(t *testing.T) {
	cfg := ldapConfig()

	p, err := NewLDAPProvider(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "ldap://ldap.example.com:389", p.URL())

	cfg.UseSSL = true
	cfg.Port = 636

	p, err = NewLDAPProvider(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "ldaps://ldap.example.com:636", p.URL())
}

func TestLDAPAuthenticateProvisionsUser(t *testing.T) {
	db := newTestDB(t)
	dir := newDirectory()
	p := newLDAP(t, db, ldapConfig(), dir)

	user, err := p.Authenticate("mara", "harbour-view")
	require.NoError(t, err)

	assert.Equal(t, "mara", user.Username)
	assert.Equal(t, "mara@example.com", user.Email)
	assert.Equal(t, "Mara Quinn", user.DisplayName())
	assert.Equal(t, models.AuthSourceLDAP, user.AuthSource)
	assert.Equal(t, maraDN, user.ExternalID)
	assert.Equal(t, roleID(t, db, models.RoleEditor), user.RoleID)
	assert.Empty(t, user.Password)

	assert.Equal(t, []string{serviceDN, maraDN}, dir.Binds())
	assert.Equal(t, 1, dir.Closed())

	// second login updates the profile and keeps the row
	dir.AddUser(maraDN, "harbour-view", map[string][]string{
		"uid": {"mara"}, "mail": {"mara.quinn@example.com"}, "givenName": {"Mara"}, "sn": {"Quinn"},
	})

	again, err := p.Authenticate("mara", "harbour-view")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "mara.quinn@example.com", again.Email)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// the local provider never accepts directory accounts
	_, err = NewLocalProvider(db).Authenticate("mara", "harbour-view", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLDAPAuthenticateDefaultRole(t *testing.T) {
	db := newTestDB(t)

	cfg := ldapConfig()
	cfg.DefaultRole = models.RoleAdmin

	user, err := newLDAP(t, db, cfg, newDirectory()).Authenticate("mara", "harbour-view")
	require.NoError(t, err)
	assert.Equal(t, roleID(t, db, models.RoleAdmin), user.RoleID)

	cfg.DefaultRole = "concierge"
	dir := newDirectory()
	dir.AddUser("uid=noor,ou=people,dc=example,dc=com", "pw", map[string][]string{"uid": {"noor"}})

	_, err = newLDAP(t, db, cfg, dir).Authenticate("noor", "pw")
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestLDAPAuthenticateFailures(t *testing.T) {
	db := newTestDB(t)
	dir := newDirectory()
	dir.AddUser("uid=twin,ou=a,dc=example,dc=com", "pw", map[string][]string{"uid": {"twin"}})
	dir.AddUser("uid=twin,ou=b,dc=example,dc=com", "pw", map[string][]string{"uid": {"twin"}})

	p := newLDAP(t, db, ldapConfig(), dir)

	tests := []struct {
		name               string
		username, password string
		want               error
	}{
		{"wrong password", "mara", "nope", ErrInvalidPassword},
		{"unknown user", "nobody", "pw", ErrUserNotFound},
		{"ambiguous filter", "twin", "pw", ErrMultipleUsersFound},
		{"empty password", "mara", "", ErrEmptyCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Authenticate(tt.username, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	cfg := ldapConfig()
	cfg.BindPassword = "rotated"

	_, err := newLDAP(t, db, cfg, dir).Authenticate("mara", "harbour-view")
	require.Error(t, err)
	assert.True(t, ldap.IsErrorWithCode(errors.Unwrap(err), ldap.LDAPResultInvalidCredentials))
	assert.NotErrorIs(t, err, ErrInvalidPassword, "a broken service account is not a user error")

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLDAPAuthenticateConflictsAndDisabled(t *testing.T) {
	db := newTestDB(t)

	_, err := NewLocalProvider(db).CreateUser("mara", "front@example.com", "pw", "", "", roleID(t, db, models.RoleEditor))
	require.NoError(t, err)

	p := newLDAP(t, db, ldapConfig(), newDirectory())

	_, err = p.Authenticate("mara", "harbour-view")
	assert.ErrorIs(t, err, ErrUserNameOrEmailExists)

	require.NoError(t, db.Where("username = ?", "mara").Delete(&models.User{}).Error)

	user, err := p.Authenticate("mara", "harbour-view")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("active", false).Error)

	_, err = p.Authenticate("mara", "harbour-view")
	assert.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestLDAPDialFailure(t *testing.T) {
	errDown := errors.New("directory down")

	p, err := NewLDAPProvider(ldapConfig(), newTestDB(t),
		WithLDAPDialer(func() (LDAPConn, error) { return nil, errDown }))
	require.NoError(t, err)

	_, err = p.Authenticate("mara", "harbour-view")
	assert.ErrorIs(t, err, errDown)
}
