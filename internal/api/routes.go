package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func registerRoutes(e *echo.Echo, h *handlers, gatherer prometheus.Gatherer) {
	e.GET("/", h.root)
	e.POST("/analyze", h.analyze)
	e.GET("/search-apps/:query", h.searchApps)

	e.GET("/health", h.health)
	e.GET("/ready", h.ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
