package main

import (
	"context"
	"log"

	"chat-relay/config"
	"chat-relay/internal/handler"
	"chat-relay/internal/metrics"
	"chat-relay/internal/rag"
	"chat-relay/internal/redis"
	"chat-relay/internal/relay"
	"chat-relay/internal/server"
	"chat-relay/internal/websocket"
	"chat-relay/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.IsProduction() {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	defer l.Sync()
	logger.SetGlobalLogger(l)

	l.Infof("Environment: %s", cfg.Environment)

	ctx := context.Background()

	m := metrics.New()

	var presence redis.PresenceTracker = redis.NewNoOpPresence()
	var online handler.OnlineCounter
	if cfg.PresenceEnabled {
		client, err := redis.NewClient(ctx, redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		store := redis.NewPresenceStore(client, cfg.PresenceTTL)
		presence = store
		online = store
		l.Infof("Presence tracking enabled on %s:%s", cfg.RedisHost, cfg.RedisPort)
	}

	// a missing RAG_SERVICE_URL is reported per message, not here
	ragClient := rag.NewClient(rag.Config{
		BaseURL:       cfg.RAGServiceURL,
		AllowInsecure: cfg.AllowInsecureUpstream,
		Timeout:       cfg.RAGTimeout,
	})
	if cfg.RAGServiceURL != "" {
		l.Logger.Info("rag service configured",
			zap.String("endpoint", ragClient.Endpoint()),
			zap.Bool("allow_insecure_upstream", cfg.AllowInsecureUpstream),
			zap.Duration("timeout", cfg.RAGTimeout),
		)
		if cfg.AllowInsecureUpstream && rag.IsSecure(ragClient.Endpoint()) {
			l.Warnf("TLS certificate verification is disabled for %s", ragClient.Endpoint())
		}
	}
	chatRelay := relay.New(relay.Config{UpstreamURL: cfg.RAGServiceURL}, ragClient, l, m)

	wsLogger := websocket.NewConnectionLogger(l.Logger)
	hub := websocket.NewHub(presence, m, wsLogger)

	srv := server.New(cfg, l)
	srv.OnShutdown(hub.Shutdown)
	srv.SetupRoutes(&server.Handlers{
		Index:     handler.NewIndexHandler(cfg.Environment, hub, online),
		WebSocket: websocket.NewHandler(hub, chatRelay, m, wsLogger),
		Metrics:   m,
	})

	if err := srv.Start(); err != nil {
		l.Errorf("Server exited with error: %v", err)
		l.Sync()
		log.Fatal(err)
	}
}
