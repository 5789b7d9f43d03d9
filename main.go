package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"him-messenger/internal/auth"
	"him-messenger/internal/config"
	"him-messenger/internal/db"
	"him-messenger/internal/gateway"
	"him-messenger/internal/handlers"
	"him-messenger/internal/rabbitmq"
	"him-messenger/internal/repositories"
	"him-messenger/internal/telemetry"
	"him-messenger/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := telemetry.InitTracing(context.Background(), "him-messenger", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(database); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("database migrations applied")
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()

	audit := telemetry.NewAuditEmitter(publisher, "audit.him-messenger", "him-messenger", cfg.Environment, logger)

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	hub := ws.NewHub(logger)

	authFn := handlers.NewAuthFunction(userRepo, tokens, audit, logger)
	messagesFn := handlers.NewMessagesFunction(chatRepo, messageRepo, userRepo, tokens, hub, publisher, logger)
	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, tokens, logger)

	router := gateway.NewRouter(authFn, messagesFn, chatWS, logger)
	gateway.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	logger.Info("starting server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
