// Package daemon wires configuration, database, stores and the web service together.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/blob"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/db/controller/section"
	"github.com/harbourhotels/hotel-site/internal/db/controller/setting"
	"github.com/harbourhotels/hotel-site/internal/mail"
	"github.com/harbourhotels/hotel-site/internal/web"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
}

// Start serves HTTP on the configured port and blocks until a shutdown signal
// has been handled.
func (d *Daemon) Start() error {
	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)

	log.Info().Str("addr", addr).Str("url", d.cfg.Webserver.URL).Msg("starting web service")

	go func() {
		if err := d.webService.Start(addr); err != nil {
			log.Error().Err(err).Msg("web service stopped")
		}
	}()

	d.webService.WaitShutdown()

	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// New opens the database, seeds it and builds the web service with every
// optional backend the configuration enables.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = Seed(cfg, db); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	session.Init(sessionStorage(cfg))

	resolver := content.NewResolver(setting.Repository{DB: db}, content.BuiltinDefaults())
	resolver.Load(ctx)

	deps := &handler.Deps{
		Cfg:      cfg,
		DB:       db,
		Auth:     auth.NewService(db),
		Registry: content.NewRegistry(section.Repository{DB: db}),
		Resolver: resolver,
	}

	bucket, err := blob.New(ctx, cfg.Storage)

	switch {
	case errors.Is(err, blob.ErrDisabled):
		log.Info().Msg("no storage driver configured, image uploads are disabled")
	case err != nil:
		return nil, fmt.Errorf("failed to connect blob storage: %w", err)
	default:
		deps.Uploader = blob.NewUploader(bucket, cfg.Storage)

		log.Info().Str("driver", cfg.Storage.Driver).Msg("image uploads enabled")
	}

	if cfg.Mail.Enabled {
		deps.Mailer = mail.NewRelay(cfg.Mail)
	} else {
		log.Warn().Msg("mail relay is disabled, the contact form will answer with an error")
	}

	if cfg.Auth.LDAP.Enabled {
		provider, err := auth.NewLDAPProvider(cfg.Auth.LDAP, db)
		if err != nil {
			return nil, err
		}

		log.Info().Str("url", provider.URL()).Msg("LDAP authentication enabled")

		deps.LDAP = provider
	}

	if cfg.Auth.OIDC.Enabled {
		provider, err := auth.NewOIDCProvider(ctx, cfg.Auth.OIDC, db)
		if err != nil {
			return nil, err
		}

		deps.OIDC = provider
	}

	webService, err := web.New(deps)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		db:         db,
		webService: webService,
	}, nil
}
