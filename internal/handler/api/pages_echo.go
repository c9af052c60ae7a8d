package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	models "WikiSeer/internal/domain/models"
	domrepo "WikiSeer/internal/domain/repository"
	"WikiSeer/internal/usecase"
	pkgcache "WikiSeer/pkg/cache"
	xhttp "WikiSeer/pkg/http"
	xlogger "WikiSeer/pkg/logger"
	"WikiSeer/pkg/util"

	"github.com/labstack/echo/v4"
)

var listCacheKey = pkgcache.GenerateKey("pages", "list")

// PagesEchoHandler serves the page-view query API.
type PagesEchoHandler struct {
	logger   *xlogger.Logger
	svc      *usecase.ForecastService
	cache    pkgcache.Service
	cacheTTL time.Duration
}

func NewPagesEchoHandler(logger *xlogger.Logger, svc *usecase.ForecastService) *PagesEchoHandler {
	return &PagesEchoHandler{
		logger:   logger,
		svc:      svc,
		cacheTTL: 30 * time.Second,
	}
}

// SetCache enables caching of the title listing.
func (h *PagesEchoHandler) SetCache(c pkgcache.Service, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.cacheTTL = ttl
	}
}

func (h *PagesEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/page", h.ListPages)
	e.GET("/page/:title/timeseries", h.Timeseries)
	e.GET("/page/:title/forecast", h.Forecast)
	e.GET("/health", h.Health)
	e.GET("/ruok", h.Ruok)
}

// ListPages returns every title with stored history.
func (h *PagesEchoHandler) ListPages(c echo.Context) error {
	ctx := c.Request().Context()

	if h.cache != nil {
		var titles []string
		if err := h.cache.Get(ctx, listCacheKey, &titles); err == nil && len(titles) > 0 {
			return c.JSON(http.StatusOK, titles)
		}
	}

	titles, err := h.svc.ListTitles(ctx)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.DetailResponse(c, http.StatusNotFound, "No pages found.")
		}
		h.logger.Error("list pages error", xlogger.Error(err))
		return xhttp.DetailResponse(c, http.StatusInternalServerError, "Internal server error.")
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, listCacheKey, titles, h.cacheTTL); err != nil {
			h.logger.Warn("list pages cache set error", xlogger.Error(err))
		}
	}
	return c.JSON(http.StatusOK, titles)
}

// Timeseries returns the stored daily counts for one title.
func (h *PagesEchoHandler) Timeseries(c echo.Context) error {
	req := &models.PageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	series, err := h.svc.GetSeries(c.Request().Context(), req.Title)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.DetailResponse(c, http.StatusNotFound,
				fmt.Sprintf("No timeseries data found for %s.", req.Title))
		}
		h.logger.Error("timeseries error", xlogger.String("title", req.Title), xlogger.Error(err))
		return xhttp.DetailResponse(c, http.StatusInternalServerError, "Internal server error.")
	}

	return c.JSON(http.StatusOK, toTimeSeriesResponse(series))
}

// Forecast returns the stored history plus a forecast when today's model is
// available. A missing model degrades to a null forecast, not an error.
func (h *PagesEchoHandler) Forecast(c echo.Context) error {
	req := &models.PageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.svc.GetTimeseriesForecast(c.Request().Context(), req.Title)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.DetailResponse(c, http.StatusNotFound,
				fmt.Sprintf("No timeseries data found for %s.", req.Title))
		}
		h.logger.Error("forecast error", xlogger.String("title", req.Title), xlogger.Error(err))
		return xhttp.DetailResponse(c, http.StatusInternalServerError, "Internal server error.")
	}

	out := models.TimeSeriesForecastResponse{
		TimeSeries: toTimeSeriesResponse(res.TimeSeries),
	}
	if res.Forecast != nil {
		out.Forecast = &models.ForecastResponse{
			StartDate: util.FormatDate(res.Forecast.StartDate),
			Median:    res.Forecast.Median,
			Lower:     res.Forecast.Lower,
			Upper:     res.Forecast.Upper,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// Health reports liveness. Always 200; dependency state is on /metrics.
func (h *PagesEchoHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Ruok answers the canary probe.
func (h *PagesEchoHandler) Ruok(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func toTimeSeriesResponse(s models.TimeSeries) models.TimeSeriesResponse {
	return models.TimeSeriesResponse{
		Title:     s.Title,
		StartDate: util.FormatDate(s.StartDate()),
		PageViews: s.Values(),
	}
}
