package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/mydarah/bot/logger"
	"github.com/mydarah/bot/models"
	"github.com/mydarah/bot/reports"
)

// DataAdmin is what the admin endpoints need from the data service.
type DataAdmin interface {
	Snapshot() (*models.Snapshot, error)
	Refresh(ctx context.Context) error
	UpdateIfNeeded(ctx context.Context) (bool, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, name string) (*reports.Report, error)
}

// Pinger reports database health; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type VersionLister interface {
	ListVersions(ctx context.Context) ([]models.DataSourceVersion, error)
}

// Deps groups the services behind the admin API. DB and Versions may be nil.
type Deps struct {
	Data     DataAdmin
	Reports  ReportGenerator
	DB       Pinger
	Versions VersionLister
}

type Server struct {
	router *echo.Echo
	deps   Deps
}

func NewServer(deps Deps, debug bool) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = httpErrorHandler
	e.Logger.SetLevel(log.WARN)
	if debug {
		e.Logger.SetLevel(log.DEBUG)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Infof(c.Request().Context(), "API: %s %s %d %s", v.Method, v.URI, v.Status, v.Latency.Round(time.Millisecond))
			return nil
		},
	}))

	s := &Server{router: e, deps: deps}

	api := e.Group("/api")
	api.GET("/health", s.Health)
	api.GET("/datasets", s.ListDatasets)
	api.GET("/reports/:name", s.GetReport)

	admin := api.Group("/admin")
	admin.POST("/refresh", s.ForceRefresh)
	admin.POST("/check-update", s.CheckAndUpdate)
	admin.GET("/versions", s.ListVersions)

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Serve(addr string) error {
	logger.Infof(context.Background(), "API: listening on %s", addr)
	if err := s.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.router.Shutdown(ctx)
}
