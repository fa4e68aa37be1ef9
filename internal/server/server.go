package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/config"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/logging"
)

type Server struct {
	config     *config.Config
	router     *gin.Engine
	handlers   *handlers.Handlers
	metrics    http.Handler
	httpServer *http.Server
	logger     *logging.LoggerV2
}

// New builds the router. metricsHandler may be nil to leave /metrics out.
func New(h *handlers.Handlers, cfg *config.Config, metricsHandler http.Handler) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		metrics:  metricsHandler,
		logger:   logging.NewLoggerV2("server"),
	}
	router.Use(s.requestLogger())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)
	s.router.GET("/version", s.handlers.Version)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/cart", s.handlers.GetCart)
		v1.DELETE("/cart", s.handlers.ClearCart)
		v1.GET("/cart/items", s.handlers.ListItems)
		v1.POST("/cart/items", s.handlers.AddItem)
		v1.DELETE("/cart/items/*name", s.handlers.RemoveItem)
		v1.GET("/cart/subtotal", s.handlers.GetSubtotal)
		v1.GET("/cart/total", s.handlers.GetTotal)

		v1.GET("/pricing", s.handlers.GetPricing)
		v1.POST("/pricing/discount", s.handlers.ApplyDiscount)
		v1.POST("/pricing/shipping", s.handlers.CalculateShipping)
		v1.POST("/pricing/tax", s.handlers.CalculateTax)

		v1.POST("/quotes", s.handlers.CreateQuote)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("Request handled", logging.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		})
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server", logging.Fields{"addr": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
