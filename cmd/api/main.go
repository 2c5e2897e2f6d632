package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ktpapi/docs"
	"ktpapi/internal/app"
	"ktpapi/internal/config"
	handlers "ktpapi/internal/http/handler"
	"ktpapi/internal/http/middleware"
	"ktpapi/internal/logging"
	"ktpapi/internal/otel"
)

const maxUploadBytes = 10 << 20

// @title KTP Extraction API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := logging.LoadLocation(cfg.Timezone)
	level, err := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(os.Stdout, level, loc)
	if err != nil {
		logger.Warn("invalid_log_level", slog.String("value", cfg.LogLevel))
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Error("tracing_init_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	if cfg.APIKey == "" {
		logger.Warn("api_key_not_configured")
	}

	stack, err := app.Build(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("startup_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer stack.Close()

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("metrics_init_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    maxUploadBytes,
	})

	origins := strings.Join(cfg.AllowedOriginsList(), ",")
	server.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST",
		AllowHeaders:     "X-API-Key,Content-Type",
		AllowCredentials: origins != "*",
	}))
	server.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	server.Use(middleware.RequestID())
	server.Use(middleware.AccessLog(logger))
	server.Use(promMiddleware.Handler())

	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(server, handlers.Deps{
		DB:      stack.DB,
		Service: stack.Service,
		APIKey:  cfg.APIKey,
		Logger:  logger,
	})

	// Swagger UI with dynamic host and scheme
	server.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.ShutdownWithContext(sctx); err != nil {
			logger.Error("server_shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("server_starting",
		slog.String("addr", addr),
		slog.String("db_dialect", string(stack.Dialect)),
		slog.Any("document_types", stack.Registry.Types()),
	)
	if err := server.Listen(addr); err != nil {
		logger.Error("server_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server_stopped")
}
