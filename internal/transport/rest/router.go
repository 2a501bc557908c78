package rest

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers every route on a fresh echo instance. A nil gatherer serves
// the default Prometheus registry.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	if logger != nil {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:  true,
			LogURI:     true,
			LogStatus:  true,
			LogLatency: true,
			LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
				logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
				return nil
			},
		}))
	}

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/stages", h.ListStages)
	e.POST("/jobs", h.CreateJob)
	e.GET("/jobs/:id", h.GetJob)
	e.GET("/jobs/:id/callbacks", h.GetCallbacks)
	e.GET("/jobs/:id/engagement", h.GetEngagement)
	e.GET("/jobs/:id/stages/:stage/status", h.GetStageStatus)

	return e
}
