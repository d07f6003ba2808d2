package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.uber.org/zap"

	"voicechat-service/internal/common/clock"
	"voicechat-service/internal/config"
	"voicechat-service/internal/game"
	"voicechat-service/internal/geo"
	"voicechat-service/internal/match"
	"voicechat-service/internal/moderation"
	"voicechat-service/internal/observability"
	"voicechat-service/internal/rabbitmq"
	"voicechat-service/internal/registry"
	"voicechat-service/internal/session"
	"voicechat-service/internal/telemetry"
	"voicechat-service/internal/ws"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.AppEnv)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := initTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			defer shutdown(context.Background())
		}
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	logger.Info("event publisher ready", zap.String("mode", rabbitmq.PublisherMode(publisher)))

	audit := telemetry.NewAuditEmitter(publisher, "voicechat.audit", "voicechat-service", cfg.AppEnv, logger)

	clk := clock.New()
	reg := registry.New(clk, logger)
	sessions := session.New(cfg.SessionRetention, clk, logger)
	mod := moderation.New(nil, audit, logger)
	matcher := match.New(reg, sessions, mod, logger)
	games := game.New(cfg.GameRetention, clk, logger)
	geoResolver := geo.New(cfg.GeoAPIURL, logger)

	hub := ws.NewHub(logger)
	dispatcher := ws.New(ws.Config{
		CallbackExpiry:    cfg.CallbackExpiry,
		CallbackRetention: cfg.CallbackRetention,
		SweepInterval:     cfg.SweepInterval,
		StatsInterval:     cfg.StatsInterval,
	}, hub, reg, sessions, matcher, games, mod, geoResolver, clk, logger)
	go dispatcher.Run(ctx)

	wsHandler := ws.NewHandler(dispatcher, audit, logger)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("voicechat-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/ws", wsHandler.Handle)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, dispatcher.Snapshot())
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("voicechat-service listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		os.Exit(1)
	}
	return logger
}

func initTracer(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("voicechat-service"),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
