package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AuthSource tells how an admin account signs in.
type AuthSource string

const (
	// AuthSourceLocal accounts carry an argon2id password hash.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceLDAP accounts are provisioned on first directory login.
	AuthSourceLDAP AuthSource = "ldap"
	// AuthSourceOIDC accounts are provisioned on first OpenID Connect login.
	AuthSourceOIDC AuthSource = "oidc"
)

// User is an account of the admin panel. Visitors of the public site never
// have one.
type User struct {
	ID         uint64     `gorm:"primaryKey"`
	Username   string     `gorm:"unique;size:100;not null" form:"username"`
	Email      string     `gorm:"size:255;not null"`
	FirstName  string     `gorm:"size:100"`
	LastName   string     `gorm:"size:100"`
	Password   string     `gorm:"size:255" form:"password" json:"-"`
	TOTPSecret string     `gorm:"column:totp_secret;size:64" json:"-"`
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// ExternalID holds the OIDC subject or the LDAP DN.
	ExternalID string `gorm:"size:255"`
	Active     bool
	RoleID     uint `gorm:"column:role_id;not null"`
	Role       Role `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE" json:"-"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasTOTP reports whether a second factor is enrolled.
func (u User) HasTOTP() bool {
	return u.TOTPSecret != ""
}

// DisplayName returns "First Last", or the username when both are empty.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

// HashPassword returns the argon2id encoding of password.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}

	return hash, nil
}

// VerifyPassword compares password with the stored hash. Accounts without
// a hash never match.
func (u *User) VerifyPassword(password string) bool {
	if u.Password == "" {
		return false
	}

	ok, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", u.Username).Msg("stored password hash is unreadable")

		return false
	}

	return ok
}
