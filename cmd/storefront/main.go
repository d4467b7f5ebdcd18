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

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/loomcart/storefront/internal/commerce"
	"github.com/loomcart/storefront/internal/di"
	"github.com/loomcart/storefront/internal/handlers"
	"github.com/loomcart/storefront/internal/platform/config"
	"github.com/loomcart/storefront/internal/platform/idempotency"
	"github.com/loomcart/storefront/internal/platform/observability"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	container, err := di.NewContainer(cfg, observability.EventLogger(logger))
	if err != nil {
		logger.Fatal("failed to wire dependencies", zap.Error(err))
	}

	shape, err := container.ServiceShape()
	if err != nil {
		logger.Fatal("invalid service area shape", zap.Error(err))
	}

	health := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck("commerce", func(ctx context.Context) error {
			_, err := container.Commerce.GetCart(ctx, commerceProbeAuth())
			if err != nil && !isBusinessOutcome(err) {
				return err
			}
			return nil
		}),
	)

	// Double submits happen when shoppers mash the pay button; replay the first
	// outcome instead of creating a second order.
	submitGuard := idempotency.Middleware(
		idempotency.NewMemoryStore(),
		idempotency.WithMethods(http.MethodPost),
		idempotency.WithOptionalKey(),
		idempotency.WithLogger(zap.NewStdLog(logger.Named("idempotency"))),
	)
	checkoutRoutes := handlers.NewCheckoutHandlers(container.Services.Checkout).Routes

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithServiceabilityRoutes(handlers.NewServiceabilityHandlers(
			container.Services.Serviceability,
			shape,
			cfg.ServiceArea.CountryCode,
			cfg.ServiceArea.State,
		).Routes),
		handlers.WithCartRoutes(handlers.NewCouponHandlers(container.Services.Coupons).Routes),
		handlers.WithAddressRoutes(handlers.NewAddressHandlers(container.Services.Addresses).Routes),
		handlers.WithCheckoutRoutes(func(r chi.Router) {
			r.Use(submitGuard)
			checkoutRoutes(r)
		}),
		handlers.WithPaymentRoutes(handlers.NewPaymentHandlers(container.Services.Reconciliation).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(container.Commerce, container.Sessions).Routes),
		handlers.WithSessionRoutes(handlers.NewSessionHandlers(container.Sessions).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// commerceProbeAuth runs the readiness probe without customer credentials.
func commerceProbeAuth() commerce.Auth {
	return commerce.Auth{}
}

// isBusinessOutcome reports whether the commerce API answered with a negative
// status rather than failing to answer. The probe only cares about reachability.
func isBusinessOutcome(err error) bool {
	_, ok := commerce.AsRejection(err)
	return ok
}
