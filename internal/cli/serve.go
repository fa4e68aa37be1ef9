package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/config"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/events"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/logging"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/server"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/service"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cart HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLoggerV2("cart-calculator")
	gin.SetMode(gin.ReleaseMode)
	handlers.BuildVersion = version

	m := metrics.New(true)
	var metricsHandler http.Handler
	if cfg.Features.EnableMetrics {
		metricsHandler = m.Handler()
	}

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	cartService, err := service.NewCartService(cfg, publisher, m)
	if err != nil {
		return err
	}

	h := handlers.NewHandlers(cartService, cfg)
	srv := server.New(h, cfg, metricsHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                cfg.Server.Port,
			"enable_order_events": cfg.Features.EnableOrderEvents,
			"enable_metrics":      cfg.Features.EnableMetrics,
		})
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", logging.Fields{"error": err.Error()})
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
		return err
	}

	logger.Info("Server exited")
	return nil
}

func newPublisher(cfg *config.Config, logger *logging.LoggerV2) events.Publisher {
	if !cfg.Features.EnableOrderEvents {
		return events.NoopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.Kafka, logger)
}
