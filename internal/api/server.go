// Package api exposes the analysis service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/trace"

	"review-sentiment/internal/common/config"
	apperrors "review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/models"
)

// Analyzer is the application surface the HTTP layer depends on.
type Analyzer interface {
	Analyze(ctx context.Context, appName string) (*models.AnalysisResponse, error)
	SearchApps(ctx context.Context, query string) ([]models.AppInfo, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	ServiceName     string
	Gatherer        prometheus.Gatherer
	ReadinessChecks map[string]ReadinessCheck
}

type Server struct {
	echo   *echo.Echo
	cfg    config.ServerConfig
	logger logger.Logger
}

func NewServer(cfg config.ServerConfig, svc Analyzer, log logger.Logger, opts Options) *Server {
	if opts.ServiceName == "" {
		opts.ServiceName = "review-sentiment"
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	log = log.With(map[string]interface{}{"component": "api"})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Debug

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(otelecho.Middleware(opts.ServiceName, otelecho.WithSkipper(func(c echo.Context) bool {
		return isProbe(c.Path())
	})))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(requestLogger(log))
	e.Use(apperrors.Middleware(log))

	h := newHandlers(svc, log, opts.ReadinessChecks)
	registerRoutes(e, h, opts.Gatherer)

	return &Server{echo: e, cfg: cfg, logger: log}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.echo.Server.ReadTimeout = config.GetDuration(s.cfg.ReadTimeout)
	s.echo.Server.WriteTimeout = config.GetDuration(s.cfg.WriteTimeout)

	s.logger.Info("HTTP server listening", map[string]interface{}{
		"address":        s.cfg.Address(),
		"allowedOrigins": s.cfg.AllowedOrigins,
	})
	if err := s.echo.Start(s.cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	grace := config.GetDuration(s.cfg.ShutdownGrace)
	if grace <= 0 {
		grace = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return isProbe(c.Path())
		},
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}
			if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
				fields["trace_id"] = sc.TraceID().String()
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				log.Warn("request failed", fields)
				return nil
			}
			log.Info("request completed", fields)
			return nil
		},
	})
}

func isProbe(path string) bool {
	return path == "/health" || path == "/ready" || path == "/metrics"
}
