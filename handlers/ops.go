package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterOpsHandlers serves GET /healthz and GET /metrics, meant for the metrics port.
func RegisterOpsHandlers(router EchoRouter, store Pinger, gatherer prometheus.Gatherer) {
	router.GET("/healthz", func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
	})
	router.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
