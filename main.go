package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chatapp/internal/chat"
	"chatapp/internal/config"
	"chatapp/internal/crypto"
	"chatapp/internal/db"
	"chatapp/internal/handlers"
	"chatapp/internal/middleware"
	"chatapp/internal/observability"
	"chatapp/internal/rabbitmq"
	"chatapp/internal/repositories"
	"chatapp/internal/session"
	"chatapp/internal/telemetry"
	"chatapp/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing := telemetry.InitTracing(ctx, "chatapp", cfg.Environment, cfg.OTLPEndpoint)
	defer shutdownTracing(ctx)

	database, err := db.Connect(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Printf("event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.chatapp", "chatapp", cfg.Environment)

	cipher, err := crypto.New(cfg.EncryptSecret)
	if err != nil {
		log.Fatalf("failed to build cipher: %v", err)
	}
	sessions := session.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	requestRepo := repositories.NewFriendRequestRepo(database)

	hub := ws.NewHub()
	presence := ws.NewPresence(userRepo, hub)

	chatService := chat.NewChatService(chatRepo, messageRepo, userRepo, hub)
	messageService := chat.NewMessageService(chatRepo, messageRepo, userRepo, cipher, hub)
	friendService := chat.NewFriendService(userRepo, requestRepo, hub)

	dispatcher := ws.NewDispatcher(chatService, messageService, friendService, hub)
	socket := ws.NewHandler(hub, userRepo, chatService, sessions, presence, dispatcher)

	authHandler := handlers.NewAuthHandler(userRepo, sessions, audit, cfg.RefreshTTL)
	userHandler := handlers.NewUserHandler(userRepo)
	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageService)
	friendHandler := handlers.NewFriendHandler(friendService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware("chatapp"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)

	authRequired := middleware.AuthMiddleware(sessions)

	api := router.Group("/api", authRequired)

	api.GET("/users/me", userHandler.Me)
	api.PATCH("/users/me", userHandler.UpdateMe)
	api.GET("/users/search", userHandler.Search)

	api.POST("/chats", chatHandler.Create)
	api.GET("/chats", chatHandler.List)
	api.GET("/chats/:chat_id", chatHandler.Details)
	api.DELETE("/chats/:chat_id", chatHandler.Delete)
	api.POST("/chats/:chat_id/invite", chatHandler.Invite)
	api.POST("/chats/:chat_id/read", chatHandler.MarkRead)

	api.GET("/chats/:chat_id/messages", messageHandler.List)
	api.POST("/chats/:chat_id/messages", messageHandler.Send)
	api.PATCH("/messages/:message_id", messageHandler.Edit)
	api.DELETE("/messages/:message_id", messageHandler.Delete)
	api.POST("/messages/:message_id/reactions", messageHandler.React)

	api.GET("/friends", friendHandler.List)
	api.DELETE("/friends/:friend_id", friendHandler.Remove)
	api.GET("/friends/requests", friendHandler.ListRequests)
	api.POST("/friends/requests", friendHandler.SendRequest)
	api.POST("/friends/requests/:request_id/accept", friendHandler.Accept)
	api.POST("/friends/requests/:request_id/decline", friendHandler.Decline)

	router.GET("/ws", socket.Handle)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
