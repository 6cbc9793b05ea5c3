package stubapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cuemby/pipectl/pkg/log"
	"github.com/cuemby/pipectl/pkg/metrics"
	"github.com/cuemby/pipectl/pkg/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// DefaultAPIRoot is the path prefix the REST surface is mounted under
const DefaultAPIRoot = "/api/v1"

// Options configures a Server
type Options struct {
	// APIRoot is the path prefix of the REST routes (default /api/v1)
	APIRoot string

	// Token, when set, must be presented as "Authorization: Bearer <token>"
	// on every API route. Health and metrics routes stay open.
	Token string

	// CurrentUserID is the account /users/me resolves to
	CurrentUserID string

	// Version is reported by /health
	Version string

	// CollectInterval is how often store gauges are refreshed
	CollectInterval time.Duration
}

// Server is the development backend
type Server struct {
	echo      *echo.Echo
	store     storage.Store
	opts      Options
	health    *metrics.HealthChecker
	collector *metrics.Collector
	logger    zerolog.Logger

	// writes serializes read-modify-write handlers and id allocation
	writes sync.Mutex
}

// New creates a Server over store and registers its routes
func New(store storage.Store, opts Options) *Server {
	if opts.APIRoot == "" {
		opts.APIRoot = DefaultAPIRoot
	}
	opts.APIRoot = "/" + strings.Trim(opts.APIRoot, "/")
	if opts.CurrentUserID == "" {
		opts.CurrentUserID = SeedAdminID
	}

	s := &Server{
		echo:      echo.New(),
		store:     store,
		opts:      opts,
		health:    metrics.NewHealthChecker(opts.Version, "storage"),
		collector: metrics.NewCollector(store, opts.CollectInterval),
		logger:    log.WithComponent("stubapi"),
	}
	s.health.Set("storage", true, "")

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.Use(middleware.Recover())
	e.Use(s.logRequests)

	e.GET("/health", s.handleHealth)
	e.GET("/ready", s.handleReady)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group(opts.APIRoot)
	if opts.Token != "" {
		api.Use(s.requireToken)
	}
	s.agentRoutes(api.Group("/agent"))
	s.roleRoutes(api.Group("/role"))
	s.userRoutes(api.Group("/users"))
	s.settingsRoutes(api.Group("/general-settings"))
	s.pluginRoutes(api.Group("/plugins"))

	return s
}

// Handler exposes the server for httptest and embedding
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.collector.Start()
	s.logger.Info().Str("addr", addr).Str("api_root", s.opts.APIRoot).Msg("Development backend listening")

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the collector and drains open requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.collector.Stop()
	s.health.Set("storage", false, "shutting down")
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	h := s.health.Health()
	return c.JSON(metrics.HealthCode(h), h)
}

func (s *Server) handleReady(c echo.Context) error {
	r := s.health.Readiness()
	return c.JSON(metrics.HealthCode(r), r)
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	want := []byte("Bearer " + s.opts.Token)
	return func(c echo.Context) error {
		got := []byte(c.Request().Header.Get(echo.HeaderAuthorization))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid token")
		}
		return next(c)
	}
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// let the error handler pick the final status before logging it
			c.Error(err)
		}

		req := c.Request()
		s.logger.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Msg("Request served")
		return nil
	}
}

// param returns a decoded path parameter
func param(c echo.Context, name string) string {
	raw := c.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
