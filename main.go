package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/config"
	"pairchat-service/internal/db"
	"pairchat-service/internal/handlers"
	"pairchat-service/internal/media"
	"pairchat-service/internal/middleware"
	"pairchat-service/internal/observability"
	"pairchat-service/internal/rabbitmq"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/session"
	"pairchat-service/internal/telemetry"
	"pairchat-service/internal/ws"
)

const serviceName = "pairchat-service"

func main() {
	cfg := config.Load()

	shutdownTracing, err := observability.InitTracing(context.Background(), serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	var sessions session.Store
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		sessions = redisStore
		log.Println("session store: redis")
	} else {
		sessions = session.NewMemoryStore()
		log.Println("session store: memory")
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	if reason := rabbitmq.PublisherNoopReason(publisher); reason != "" {
		log.Printf("event publisher noop reason: %s", reason)
	}
	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, serviceName, cfg.Environment)

	if amqpPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(amqpPublisher)
		defer amqpPublisher.Close()
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	federated := auth.NewFederatedVerifier(cfg.FederatedSecret)
	authenticator := auth.NewAuthenticator(issuer, sessions)

	userRepo := repositories.NewUserRepo(database)
	requestRepo := repositories.NewRequestRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	uploader := media.NewClient(cfg.UploadEndpoint, cfg.UploadPreset)

	hub := ws.NewHub()

	authHandler := handlers.NewAuthHandler(userRepo, issuer, federated, sessions, audit)
	userHandler := handlers.NewUserHandler(userRepo, audit)
	requestHandler := handlers.NewRequestHandler(requestRepo, userRepo, hub, audit)
	chatHandler := handlers.NewChatHandler(conversationRepo, messageRepo, userRepo, hub, audit)
	mediaHandler := handlers.NewMediaHandler(uploader, cfg.UploadFolder, audit)

	conversationWS := ws.NewConversationWebSocketHandler(hub, messageRepo, authenticator)
	requestWS := ws.NewRequestWebSocketHandler(hub, requestRepo, authenticator)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authenticator)

	router.POST("/auth/signup", authHandler.Signup)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/token", authHandler.FederatedLogin)
	router.POST("/auth/logout", authHandler.Logout)

	router.GET("/users", authMiddleware, userHandler.List)
	router.GET("/users/me", authMiddleware, userHandler.Me)
	router.PUT("/users/me/avatar", authMiddleware, userHandler.UpdateAvatar)

	router.POST("/requests", authMiddleware, requestHandler.Send)
	router.GET("/requests/incoming", authMiddleware, requestHandler.ListIncoming)
	router.GET("/requests/outgoing", authMiddleware, requestHandler.ListOutgoing)
	router.POST("/requests/:request_id/accept", authMiddleware, requestHandler.Accept)
	router.POST("/requests/:request_id/reject", authMiddleware, requestHandler.Reject)

	router.GET("/conversations", authMiddleware, chatHandler.ListConversations)
	router.GET("/conversations/:peer_id/messages", authMiddleware, chatHandler.LoadMessages)
	router.POST("/conversations/:peer_id/messages", authMiddleware, chatHandler.PostMessage)

	router.POST("/media", authMiddleware, mediaHandler.Upload)

	router.GET("/ws/conversations/:peer_id", conversationWS.Handle)
	router.GET("/ws/requests", requestWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
