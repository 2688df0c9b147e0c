package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"

	"trade-chat-service/internal/clients"
	"trade-chat-service/internal/config"
	"trade-chat-service/internal/db"
	"trade-chat-service/internal/handlers"
	"trade-chat-service/internal/middleware"
	"trade-chat-service/internal/observability"
	"trade-chat-service/internal/rabbitmq"
	"trade-chat-service/internal/repositories"
	"trade-chat-service/internal/telemetry"
	"trade-chat-service/internal/ws"
)

const serviceName = "trade-chat-service"

func main() {
	cfg := config.Load()
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logrus.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing := initTracer(cfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logrus.Warnf("tracer shutdown: %v", err)
		}
	}()

	cache := connectRedis(cfg)

	userClient := clients.NewUserClient(cfg.UserServiceURL, cfg.ResolverTimeout, cache, cfg.ResolverCacheTTL)
	itemClient := clients.NewItemClient(cfg.ItemServiceURL, cfg.ResolverTimeout, cache, cfg.ResolverCacheTTL)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	logrus.Infof("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, serviceName, cfg.Environment)
	observability.SetPublisher(publisher)

	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	readRepo := repositories.NewReadRepo(database)

	hub := ws.NewHub()

	roomHandler := handlers.NewRoomHandler(roomRepo, readRepo, userClient, itemClient, hub, audit)
	messageHandler := handlers.NewMessageHandler(roomRepo, messageRepo, readRepo, userClient, hub, audit)
	roomWS := ws.NewRoomWebSocketHandler(hub, roomRepo, userClient)
	userWS := ws.NewUserWebSocketHandler(hub, userClient)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	identity := middleware.IdentityMiddleware(userClient)

	router.POST("/rooms", identity, roomHandler.StartRoom)
	router.GET("/rooms", identity, roomHandler.ListRooms)
	router.GET("/rooms/:room_id", identity, roomHandler.GetRoom)
	router.DELETE("/rooms/:room_id", identity, roomHandler.DeleteRoom)
	router.POST("/rooms/:room_id/messages", identity, messageHandler.PostMessage)
	router.GET("/rooms/:room_id/messages", identity, messageHandler.ListMessages)
	router.GET("/rooms/:room_id/messages/search", identity, messageHandler.SearchMessages)
	router.POST("/rooms/:room_id/read", identity, messageHandler.MarkRead)

	router.GET("/ws/rooms/:room_id", roomWS.Handle)
	router.GET("/ws/user", userWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	logrus.Infof("listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("server error: %v", err)
	}
}

func connectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.Warnf("redis unavailable, resolver cache disabled: %v", err)
		_ = client.Close()
		return nil
	}
	logrus.Infof("redis connected addr=%s", cfg.RedisAddr)
	return client
}

func initTracer(cfg config.Config) func(context.Context) error {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		logrus.Warnf("tracing disabled: %v", err)
		return func(context.Context) error { return nil }
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		)),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown
}
