package config

import (
	"time"

	"github.com/harbourhotels/hotel-site/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Storage   Storage
	Mail      Mail
	Contact   Contact
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic        bool    // enable static file browsing (for development purposes only)
	CacheEnabled        bool    // true = enable cache, false = disable cache
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // encryption key for cookies
	Session             Session // session settings
}

// Auth holds the admin panel login settings.
type Auth struct {
	LocalDB LocalDBAuth
	LDAP    LDAPAuth
	OIDC    OIDCAuth
}

// LocalDBAuth controls username/password login.
type LocalDBAuth struct {
	Enabled bool
}

// LDAPAuth configures directory login. It is tried after the local database,
// users are provisioned on first login with DefaultRole.
type LDAPAuth struct {
	Enabled       bool
	Host          string
	Port          int  // defaults to 389, or 636 with UseSSL
	UseSSL        bool // ldaps://
	UseTLS        bool // StartTLS on a plain connection
	SkipVerify    bool
	BindDN        string // service account used for the user search, empty binds anonymously
	BindPassword  string
	BaseDN        string
	UserFilter    string // {username} is replaced with the escaped login name
	UsernameAttr  string
	EmailAttr     string
	FirstNameAttr string
	LastNameAttr  string
	Timeout       time.Duration
	DefaultRole   string
}

// OIDCAuth configures OpenID Connect login for the admin panel.
type OIDCAuth struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	DefaultRole  string // role given to users provisioned on first login
}

// Storage configures the blob store used for image uploads.
type Storage struct {
	Driver         string // minio, s3 or empty to disable uploads
	PublicURL      string // base url the uploaded objects are served from
	Prefix         string // object key prefix
	MaxUploadBytes int64
	MaxImageWidth  int
	MaxImageHeight int
	MaxImagePixels int64 // width*height limit checked before decoding
	MinIO          MinIO
	S3             S3
}

// MinIO holds connection options for a MinIO/S3-compatible endpoint.
type MinIO struct {
	Endpoint         string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Region           string
	Bucket           string
	AutoCreateBucket bool
}

// S3 holds connection options for AWS S3.
type S3 struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // optional custom endpoint
	UsePathStyle    bool
}

// Mail configures the contact form relay.
type Mail struct {
	Enabled       bool
	Host          string
	Port          int
	Username      string
	Password      string
	AuthMechanism string // login or plain
	ImplicitTLS   bool   // TLS from the first byte (port 465), otherwise STARTTLS when offered
	SkipVerify    bool
	From          string
	To            string
	Timeout       time.Duration
}

// Contact configures the public contact form.
type Contact struct {
	RequestsPerMinute int
	Burst             int
}

const (
	// StorageMinIO selects the MinIO blob backend.
	StorageMinIO = "minio"
	// StorageS3 selects the AWS S3 blob backend.
	StorageS3 = "s3"
)
