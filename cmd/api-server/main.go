package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/booking-backend/internal/api"
	"github.com/hackgods/booking-backend/internal/appointment"
	"github.com/hackgods/booking-backend/internal/backend"
	"github.com/hackgods/booking-backend/internal/config"
	"github.com/hackgods/booking-backend/internal/identity"
	"github.com/hackgods/booking-backend/internal/logging"
	"github.com/hackgods/booking-backend/internal/telemetry"
)

const serviceName = "api-server"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(serviceName, "dev").Error("config load error", "err", err)
		os.Exit(1)
	}

	logger := logging.New(serviceName, cfg.Env)
	logger.Info("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort, "backend", cfg.StoreBackend)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(rootCtx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		Version:      cfg.Version,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.Error("telemetry setup error", "err", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("telemetry shutdown error", "err", err)
		}
	}()

	stores, err := backend.Open(rootCtx, cfg, logger)
	if err != nil {
		logger.Error("store backend error", "err", err)
		os.Exit(1)
	}
	defer stores.Close()

	checks := []api.HealthCheck{{Name: stores.Name, Check: stores.Ping}}

	ids := identity.NewService(stores.Users, identity.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.TokenIssuer,
		TokenTTL: cfg.TokenTTL,
	})
	appts := appointment.NewService(stores.Appointments)

	router := api.NewRouter(api.RouterConfig{
		Identity:       ids,
		Appointments:   appts,
		Logger:         logger,
		HealthChecks:   checks,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateBurst:  cfg.AuthRateBurst,
		RequestTimeout: cfg.RequestTimeout,
		Env:            cfg.Env,
		Version:        cfg.Version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       time.Minute,
	}

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		logger.Info("http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down api-server")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
