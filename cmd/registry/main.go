package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myregistry/api"
	"myregistry/app"
	"myregistry/config"
	"myregistry/handlers"
	"myregistry/interfaces"
	"myregistry/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger := app.NewLogger(os.Stderr, "info")
		level.Error(logger).Log("msg", "Failed to load configuration", "err", err)
		return err
	}

	// Initialize logger
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)
	level.Info(logger).Log("msg", "Starting registry service")
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"service_port_http", cfg.HTTPPort,
		"service_port_metrics", cfg.MetricsPort,
		"store_backend", cfg.Store.Backend,
		"expiration", cfg.Expiration(),
		"sweep_interval", cfg.SweepInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := service.NewTimeProvider(service.MillisecondUTC)

	var store interfaces.Store
	{
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err = app.OpenStore(openCtx, cfg.Store, clock, logger)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to open store", "backend", cfg.Store.Backend, "err", err)
			return err
		}
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			level.Error(logger).Log("msg", "Failed to close store", "err", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Create registry service
	registry := service.NewRegistry(store, clock, logger,
		service.WithExpiration(cfg.Expiration()),
		service.WithStoreTimeout(cfg.Store.Timeout),
		service.WithSweepTimeout(cfg.SweepTimeout),
		service.WithMetrics(service.NewMetrics(promRegistry)),
	)

	// Create HTTP server (Echo)
	var e *echo.Echo
	{
		doc, err := api.Load()
		if err != nil {
			level.Error(logger).Log("msg", "Failed to load OpenAPI document", "err", err)
			return err
		}
		validator, err := handlers.NewRequestValidator(doc)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to create request validator", "err", err)
			return err
		}

		e = newEcho(logger)
		e.Use(validator)
		handlers.RegisterHandlers(e, handlers.NewHTTPServer(registry, logger))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return serve(gctx, e, cfg.HTTPPort, "HTTP", logger)
	})

	if cfg.MetricsPort != 0 {
		ops := newEcho(logger)
		handlers.RegisterOpsHandlers(ops, store, promRegistry)
		g.Go(func() error {
			return serve(gctx, ops, cfg.MetricsPort, "metrics", logger)
		})
	}

	if cfg.SweepInterval > 0 {
		sweeper := service.NewSweeper(registry, cfg.SweepInterval, logger)
		g.Go(func() error {
			return sweeper.Run(gctx)
		})
	} else {
		level.Info(logger).Log("msg", "In-process sweeper disabled, expiration relies on an external driver")
	}

	err = g.Wait()
	if err != nil {
		level.Error(logger).Log("msg", "Service stopped with error", "err", err)
	}
	level.Info(logger).Log("msg", "Server stopped")
	return err
}

func newEcho(logger log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	service.RegisterErrorHandler(e, logger)
	return e
}

// serve runs e on port until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, e *echo.Echo, port int, name string, logger log.Logger) error {
	addr := fmt.Sprintf(":%d", port)
	errCh := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "Starting "+name+" server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	level.Info(logger).Log("msg", "Shutting down "+name+" server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "Error during "+name+" server shutdown", "err", err)
		return err
	}
	return nil
}
