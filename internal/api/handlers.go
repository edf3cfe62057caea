package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/common/validation"
)

const readinessTimeout = 2 * time.Second

type analyzeRequest struct {
	AppName string `json:"appName"`
}

type handlers struct {
	svc       Analyzer
	validator *validation.Validator
	checks    map[string]ReadinessCheck
	logger    logger.Logger
}

func newHandlers(svc Analyzer, log logger.Logger, checks map[string]ReadinessCheck) *handlers {
	return &handlers{
		svc:       svc,
		validator: validation.MustValidator(validation.AnalyzeRequestSchema),
		checks:    checks,
		logger:    log,
	}
}

func (h *handlers) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Play Store Analyzer API is running",
	})
}

func (h *handlers) analyze(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperrors.NewInvalidRequestError("unable to read request body")
	}

	if result := h.validator.Validate(body); !result.Valid {
		return apperrors.NewInvalidRequestError(result.Summary())
	}

	var req analyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.NewInvalidRequestError(err.Error())
	}

	resp, err := h.svc.Analyze(c.Request().Context(), req.AppName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) searchApps(c echo.Context) error {
	query := c.Param("query")
	if unescaped, err := url.PathUnescape(query); err == nil {
		query = unescaped
	}

	apps, err := h.svc.SearchApps(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apps)
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handlers) ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failures := make(map[string]string)
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		h.logger.Warn("readiness check failed", map[string]interface{}{"failures": failures})
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not ready",
			"failures": failures,
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
