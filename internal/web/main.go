package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	fiberlogger "github.com/harbourhotels/hotel-site/internal/logger/adapter/fiber"
	"github.com/harbourhotels/hotel-site/internal/web/handler"
	"github.com/harbourhotels/hotel-site/internal/web/handler/admin/media"
	"github.com/harbourhotels/hotel-site/internal/web/handler/admin/section"
	"github.com/harbourhotels/hotel-site/internal/web/handler/admin/settings/booking"
	sitesettings "github.com/harbourhotels/hotel-site/internal/web/handler/admin/settings/site"
	"github.com/harbourhotels/hotel-site/internal/web/handler/admin/user"
	oidchandler "github.com/harbourhotels/hotel-site/internal/web/handler/auth/oidc"
	"github.com/harbourhotels/hotel-site/internal/web/handler/dashboard"
	"github.com/harbourhotels/hotel-site/internal/web/handler/login"
	"github.com/harbourhotels/hotel-site/internal/web/handler/logout"
	"github.com/harbourhotels/hotel-site/internal/web/handler/site"
	"github.com/harbourhotels/hotel-site/internal/web/head"
	"github.com/harbourhotels/hotel-site/internal/web/icon"
	"github.com/harbourhotels/hotel-site/internal/web/markup"
	authmiddleware "github.com/harbourhotels/hotel-site/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"

	defaultBodyLimit = 4 << 20
	bodyLimitSlack   = 1 << 20
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	s.alive.Store(true)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the server gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// newEngine builds the template engine with the helpers the templates use.
func newEngine(cfg *config.Config) *html.Engine {
	templateEngine := html.NewFileSystem(templateFS(), ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	templateEngine.AddFunc("iterate", func(count int) []int {
		result := make([]int, count)
		for i := range result {
			result[i] = i
		}

		return result
	})
	templateEngine.AddFunc("add", func(a, b int) int {
		return a + b
	})
	templateEngine.AddFunc("sub", func(a, b int) int {
		return a - b
	})
	templateEngine.AddFunc("icon", icon.Render)
	templateEngine.AddFunc("markdown", markup.Markdown)
	templateEngine.AddFunc("asset", markup.Asset)

	return templateEngine
}

func bodyLimit(cfg *config.Config) int {
	limit := int(cfg.Storage.MaxUploadBytes) + bodyLimitSlack
	if limit < defaultBodyLimit {
		return defaultBodyLimit
	}

	return limit
}

// handlers lists every route group in registration order.
func handlers() []handler.Service {
	return []handler.Service{
		&site.Handler,
		&login.Handler,
		&logout.Handler,
		&oidchandler.Handler,
		&dashboard.Handler,
		&section.Handler,
		&sitesettings.Handler,
		&booking.Handler,
		&media.Handler,
		&user.Handler,
	}
}

// New creates the web service and registers every handler.
func New(deps *handler.Deps) (*Service, error) {
	if deps == nil || deps.Cfg == nil || deps.DB == nil {
		return nil, handler.ErrNilDeps
	}

	cfg := deps.Cfg

	if deps.Auth == nil {
		deps.Auth = auth.NewService(deps.DB)
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize:    8192,
			AppName:           "hotel-site",
			CaseSensitive:     true,
			Prefork:           false,
			Immutable:         true,
			Views:             newEngine(cfg),
			PassLocalsToViews: true,
			BodyLimit:         bodyLimit(cfg),
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
	}

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Log:           cfg.Log,
		CheckAliveURI: CheckAlivePath,
		SkipPrefixes:  []string{"/static/", MetricsPath},
		User:          accessUser,
		Area:          accessArea,
	}))

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
				MaxAge:     staticMaxAge(cfg),
			},
		),
	)

	if deps.Resolver != nil {
		app.Use(head.Middleware(siteFavicon(deps.Resolver)))
	}

	app.Use(authmiddleware.Middleware)
	app.Use(auth.AddPermissionsToLocals(deps.Auth))

	for _, h := range handlers() {
		if err := h.Init(app, deps); err != nil {
			return nil, err
		}
	}

	return service, nil
}

// siteFavicon returns the resolved favicon filtered like the templates' asset
// function. Rejected values come back empty and leave pages untouched.
func siteFavicon(resolver *content.Resolver) func() string {
	return func() string {
		return string(markup.Asset(resolver.Snapshot().Favicon))
	}
}

func accessUser(c *fiber.Ctx) string {
	if u, ok := c.Locals(authmiddleware.LocalsCurrentUser).(models.User); ok {
		return u.Username
	}

	return ""
}

func accessArea(c *fiber.Ctx) string {
	if authmiddleware.IsAdminPath(c.Path()) {
		return "admin"
	}

	return fiberlogger.AreaPublic
}

func staticMaxAge(cfg *config.Config) int {
	if !cfg.Webserver.CacheEnabled {
		return 0
	}

	return int((24 * time.Hour).Seconds())
}
