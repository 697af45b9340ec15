package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"group-service/internal/config"
	"group-service/internal/content"
	"group-service/internal/db"
	"group-service/internal/handlers"
	"group-service/internal/logging"
	"group-service/internal/membership"
	"group-service/internal/middleware"
	"group-service/internal/notify"
	"group-service/internal/observability"
	"group-service/internal/preferences"
	"group-service/internal/proposals"
	"group-service/internal/rabbitmq"
	"group-service/internal/store"
	"group-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Otel.Endpoint, cfg.App.Name, cfg.App.Environment)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	st, closeStore := openStore(cfg, logger)
	defer closeStore()

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logging.Component(logger, "rabbitmq"))
	defer publisher.Close()
	logger.Info().
		Str("mode", rabbitmq.PublisherMode(publisher)).
		Str("noop_reason", rabbitmq.PublisherNoopReason(publisher)).
		Msg("event publisher ready")

	dispatcher, closeDispatcher := openDispatcher(cfg, publisher, logger)
	defer closeDispatcher()
	breaker := notify.NewBreakerDispatcher(dispatcher, notify.BreakerConfig{
		Name:             "push",
		FailureThreshold: cfg.Push.BreakerFailures,
		Cooldown:         cfg.Push.BreakerCooldown,
		HalfOpenRequests: cfg.Push.BreakerHalfOpen,
		Timeout:          cfg.Push.DispatchTimeout,
	}, logging.Component(logger, "push"))

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	prefs := preferences.NewCachedSource(preferences.NewStoreSource(st), redisClient, cfg.Prefs.CacheTTL, logging.Component(logger, "preferences"))

	fanout := notify.NewFanout(st, prefs, breaker, logging.Component(logger, "fanout"), notify.WithConcurrency(cfg.Fanout.Concurrency))
	groups := membership.NewEngine(st, fanout, logging.Component(logger, "membership"))
	votes := proposals.NewEngine(st, groups, fanout, logging.Component(logger, "proposals"))
	posts := content.NewEngine(st, groups, fanout, logging.Component(logger, "content"))
	inbox := notify.NewInbox(st, prefs)

	audit := telemetry.NewAuditEmitter(publisher, cfg.AMQP.AuditRouteKey, cfg.App.Name, cfg.App.Environment, logging.Component(logger, "audit"))

	if cfg.App.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.App.Name))
	router.Use(observability.RequestIDMiddleware())
	router.Use(observability.AccessLog(logging.Component(logger, "http")))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "push_breaker": breaker.State()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, breaker, cfg.Debug.Routes)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET is empty, every authenticated request will be rejected")
	}
	api := router.Group("/", middleware.AuthMiddleware([]byte(cfg.Auth.JWTSecret)))
	handlers.RegisterRoutes(api,
		handlers.NewGroupHandler(groups, audit),
		handlers.NewProposalHandler(votes, audit),
		handlers.NewContentHandler(posts, audit),
		handlers.NewNotificationHandler(inbox),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Str("push", cfg.Push.Transport).Msg("group service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracing shutdown")
	}
}

func openStore(cfg *config.Config, logger zerolog.Logger) (store.Store, func()) {
	if cfg.Store.Driver == "memory" {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), func() {}
	}

	database, err := db.Connect(cfg.DB.DSN, logging.Component(logger, "db"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	return store.NewPostgresStore(database), func() { database.Close() }
}

func openDispatcher(cfg *config.Config, publisher rabbitmq.Publisher, logger zerolog.Logger) (notify.Dispatcher, func()) {
	switch cfg.Push.Transport {
	case "nats":
		conn, err := notify.ConnectNATS(cfg.NATS.URL, cfg.NATS.MaxReconnects, cfg.NATS.ReconnectWait, logging.Component(logger, "nats"))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, push dispatch disabled")
			return notify.NewNoopDispatcher(logger), func() {}
		}
		return notify.NewNATSDispatcher(conn, cfg.Push.Topic), func() { conn.Drain() }
	case "amqp":
		return notify.NewQueueDispatcher(publisher, cfg.Push.Topic), func() {}
	default:
		return notify.NewNoopDispatcher(logger), func() {}
	}
}
