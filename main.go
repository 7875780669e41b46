package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"campus-connect/internal/config"
	"campus-connect/internal/db"
	"campus-connect/internal/handlers"
	"campus-connect/internal/middleware"
	"campus-connect/internal/observability"
	"campus-connect/internal/rabbitmq"
	"campus-connect/internal/repositories"
	"campus-connect/internal/services"
	"campus-connect/internal/telemetry"
	"campus-connect/internal/ws"
)

type stores struct {
	users     repositories.UserRepository
	relations repositories.RelationshipRepository
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
}

func openStores(cfg config.Config) stores {
	if cfg.InMemory() {
		log.Printf("store driver=memory, data is not persisted")
		mem := repositories.NewMemoryStore()
		return stores{users: mem, relations: mem, chats: mem, messages: mem}
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	return stores{
		users:     repositories.NewUserRepo(database),
		relations: repositories.NewRelationshipRepo(database),
		chats:     repositories.NewChatRepo(database),
		messages:  repositories.NewMessageRepo(database),
	}
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s reason=%s", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, "audit_log", cfg.ServiceName, cfg.Environment)

	st := openStores(cfg)

	followService := services.NewFollowService(st.users, st.relations, st.chats)
	discoveryService := services.NewDiscoveryService(st.users, st.relations, cfg.DiscoverySampleSize)

	hub := ws.NewHub()
	relay := ws.NewRelay(hub, st.users, st.chats, st.messages)

	followHandler := handlers.NewFollowHandler(followService, audit)
	discoveryHandler := handlers.NewDiscoveryHandler(discoveryService)
	chatHandler := handlers.NewChatHandler(st.chats, st.messages)
	socketHandler := ws.NewSocketHandler(hub, relay, cfg.JWTSecret, cfg.WSSendBuffer)

	router := gin.New()

	// middlewares
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", socketHandler.Handle)

	api := router.Group("/")
	if cfg.AuthEnabled() {
		api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	} else {
		log.Printf("JWT_SECRET not set, requests are not authenticated")
	}

	api.POST("/follows/request", followHandler.RequestFollow)
	api.POST("/follows/unfollow", followHandler.Unfollow)
	api.POST("/follows/approve", followHandler.ApproveFollow)
	api.GET("/users/:user_id/discovery", discoveryHandler.Discover)

	api.GET("/chats", chatHandler.ListChats)
	api.GET("/chats/:chat_id/messages", chatHandler.GetChatMessages)
	api.POST("/chats/:chat_id/messages/:message_id/seen", chatHandler.MarkSeen)

	handlers.RegisterDebugRoutes(router, audit, hub, cfg.DebugRoutes)

	log.Printf("campus-connect listening port=%s env=%s", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
