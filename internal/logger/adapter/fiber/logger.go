// Package fiber provides the zerolog access log middleware of the web service.
package fiber

import (
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/harbourhotels/hotel-site/internal/logger"
)

// AreaPublic is the area of requests without an Area classifier.
const AreaPublic = "public"

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
	Name:    "hotel_site_http_request_duration_seconds",
	Help:    "HTTP request latency by site area and status class.",
	Buckets: prometheus.DefBuckets,
}, []string{"area", "class"})

// Config of the access log middleware.
type Config struct {
	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool

	// Log selects the access log writers (console and/or rolling file).
	Log logger.Log

	// Output replaces the writers selected by Log when set.
	Output io.Writer

	// CacheControlError is sent with responses that failed in the error handler.
	CacheControlError string

	// CheckAliveURI is not logged when Log.DisableCheckAlive is set.
	CheckAliveURI string

	// SkipPrefixes are path prefixes never written to the access log, e.g. /static/.
	SkipPrefixes []string

	// User returns the signed in user name of a request, if any.
	User func(c *fiber.Ctx) string

	// Area classifies a request, e.g. "admin" or "public".
	Area func(c *fiber.Ctx) string
}

func (cfg Config) writer() io.Writer {
	if cfg.Output != nil {
		return cfg.Output
	}

	var writers []io.Writer

	if cfg.Log.File.Enabled {
		if w := newRollingAccessFile(&cfg.Log); w != nil {
			writers = append(writers, w)
		}
	}

	if cfg.Log.Console.Enabled && cfg.Log.EnableAccessLogToConsole {
		if cfg.Log.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{"level"},
			})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	if len(writers) == 0 {
		return nil
	}

	return zerolog.MultiLevelWriter(writers...)
}

func (cfg Config) skip(uri string) bool {
	if cfg.Log.DisableCheckAlive && cfg.CheckAliveURI != "" && uri == cfg.CheckAliveURI {
		return true
	}

	for _, prefix := range cfg.SkipPrefixes {
		if strings.HasPrefix(uri, prefix) {
			return true
		}
	}

	return false
}

// statusClass renders 404 as "4xx".
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx" //nolint:mnd
}

// requestURI rebuilds the URI from the original path and the query string.
// fasthttp collapses duplicate slashes in RequestURI, the log keeps them.
func requestURI(c *fiber.Ctx) string {
	uri := c.Path()
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		uri += "?" + string(q)
	}

	return uri
}

// New returns the access log middleware. Every request is observed in the
// latency histogram, the log line is written only when a writer is configured.
func New(cfg Config) fiber.Handler {
	var (
		once       sync.Once
		errHandler fiber.ErrorHandler
		access     *zerolog.Logger
	)

	if cfg.CacheControlError == "" {
		cfg.CacheControlError = "max-age=0"
	}

	if w := cfg.writer(); w != nil {
		l := zerolog.New(w).With().Timestamp().Str("type", "access").Logger().Level(zerolog.NoLevel)
		access = &l
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		once.Do(func() {
			errHandler = c.App().ErrorHandler
		})

		start := time.Now()

		chainErr := c.Next()
		if chainErr != nil {
			if err := errHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
				c.Response().Header.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()

		area := AreaPublic
		if cfg.Area != nil {
			area = cfg.Area(c)
		}

		requestDuration.WithLabelValues(area, statusClass(status)).Observe(elapsed.Seconds())

		uri := requestURI(c)
		if access == nil || cfg.skip(uri) {
			return nil
		}

		event := access.Log().
			Str("ip", c.IP()).
			Int("status", status).
			Dur("duration", elapsed).
			Str("uri", uri).
			Str("method", c.Method()).
			Bytes("host", c.Request().Host()).
			Str("area", area).
			Str("referer", c.Get(fiber.HeaderReferer)).
			Str("user_agent", c.Get(fiber.HeaderUserAgent))

		if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
			event = event.Str("forwarded_for", fwd)
		}

		if cfg.User != nil {
			if user := cfg.User(c); user != "" {
				event = event.Str("user", user)
			}
		}

		if chainErr != nil {
			event = event.Err(chainErr)
		}

		event.Send()

		return nil
	}
}

// newRollingAccessFile uses lumberjack to create file based access log.
func newRollingAccessFile(cfg *logger.Log) io.Writer {
	if cfg.File.Path != "" {
		if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil {
			log.Error().Err(err).Str("path", cfg.File.Path).Msg("can't create log directory")

			return nil
		}
	}

	return &lumberjack.Logger{
		Filename:   path.Join(cfg.File.Path, cfg.File.AccessLog),
		MaxSize:    cfg.File.AccessMaxSize,
		MaxAge:     cfg.File.AccessMaxAge,
		MaxBackups: cfg.File.AccessMaxBackups,
	}
}
