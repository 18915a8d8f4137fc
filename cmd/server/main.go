package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-gateway/config"
	"checkout-gateway/internal/api"
	"checkout-gateway/internal/broker"
	"checkout-gateway/internal/gateway"
	"checkout-gateway/internal/payment"
	"checkout-gateway/internal/redisclient"
	"checkout-gateway/internal/service"
	"checkout-gateway/internal/store"
	"checkout-gateway/internal/util"
	"checkout-gateway/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting checkout gateway")

	tp, err := util.InitTracer("checkout-gateway", cfg.Observ.JaegerEndpoint, cfg.Server.Env)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Server.SessionTTL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicCheckout))

	eventPublisher := broker.NewEventPublisher(producer)

	gatewayClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIToken, cfg.Gateway.ServiceID, cfg.Gateway.Timeout)

	methods := payment.DefaultRegistry(gatewayClient, db, payment.URLs{
		ReturnURL:   cfg.Server.StorefrontURL + "/checkout/finish",
		ExchangeURL: cfg.Gateway.ExchangeURL,
	}, cfg.Gateway.TerminalID)

	checkoutService := service.NewCheckoutService(db, db, methods, eventPublisher)
	returnService := service.NewReturnService(db, db, gatewayClient, methods, cfg.Gateway, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	auditConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout, cfg.Kafka.ConsumerGroup)
	auditWorker := worker.NewAuditWorker(auditConsumer, db, redisClient)
	go func() {
		if err := auditWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Audit worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(checkoutService, returnService, redisClient, db, api.Options{
		StorefrontURL: cfg.Server.StorefrontURL,
		SessionCookie: cfg.Server.SessionCookie,
		SessionTTL:    cfg.Server.SessionTTL,
		SecureCookie:  cfg.Server.Env == "production",
	})
	handler.AddReadinessCheck("database", db)
	handler.AddReadinessCheck("redis", redisClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := auditWorker.Stop(); err != nil {
		logger.Error("Error stopping audit worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
