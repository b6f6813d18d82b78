package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/dstanley/maplecart/internal"
	"github.com/dstanley/maplecart/internal/billing"
	"github.com/dstanley/maplecart/internal/events"
	"github.com/dstanley/maplecart/internal/handler"
	"github.com/dstanley/maplecart/internal/ledger"
	"github.com/dstanley/maplecart/internal/middleware"
	"github.com/dstanley/maplecart/internal/postgres"
	"github.com/dstanley/maplecart/internal/service"
	"github.com/dstanley/maplecart/internal/telemetry"
)

func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Migrations run over database/sql with the pgx stdlib driver; the
	// application itself uses the pgx pool.
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)

	var provider billing.Provider
	if cfg.Stripe.SecretKey != "" {
		provider, err = billing.NewStripeProvider(cfg.Stripe.SecretKey)
		if err != nil {
			return fmt.Errorf("failed to initialize Stripe provider: %w", err)
		}
		logger.Info("Stripe billing provider initialized")
	} else {
		provider = billing.NewMockProvider()
		logger.Warn("STRIPE_SECRET_KEY not set, using mock billing provider")
	}

	var publisher events.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		logger.Info("NATS publisher connected", "url", cfg.NATS.URL)
	} else {
		publisher = &events.NoopPublisher{}
		logger.Info("NATS_URL not set, order events disabled")
	}
	defer publisher.Close()

	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics(registry, "maplecart")
	businessMetrics := telemetry.NewBusinessMetrics(registry)

	l := ledger.New(decimal.NewFromFloat(cfg.TaxRate))
	locks := service.NewUserLocks()

	accountService := service.NewAccountService(store, logger)
	catalogService := service.NewCatalogService(store)
	cartService := service.NewCartService(store, l, locks, businessMetrics, logger)
	checkoutService := service.NewCheckoutService(store, locks, businessMetrics, logger)
	orderService := service.NewOrderService(store, l, locks, provider, publisher, businessMetrics, logger, cfg.Currency)
	addressService := service.NewAddressService(store, locks)
	paymentService := service.NewPaymentService(store, locks)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(httpMetrics.Middleware())
	e.Use(middleware.ResolveUser(store))
	e.Use(middleware.RequestLogger(logger))

	h := handler.New(accountService, catalogService, cartService, checkoutService,
		orderService, addressService, paymentService, logger)
	h.RegisterRoutes(e, middleware.RequireUser())

	if cfg.Metrics.Enabled {
		e.GET("/metrics", httpMetrics.Handler())
	}

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("Server starting", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
