package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stocklot/internal/api"
	"stocklot/internal/config"
	"stocklot/internal/db"
	"stocklot/internal/events"
	"stocklot/internal/jobs"
	"stocklot/internal/mail"
	"stocklot/internal/redisx"
	"stocklot/internal/repository"
	"stocklot/internal/service"
	"stocklot/internal/websocket"
	"stocklot/pkg/ratelimit"
	"stocklot/pkg/utils"
)

func main() {
	// .env нужен только для локальной разработки, в production
	// переменные приходят из окружения
	_ = godotenv.Load()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Инициализация базы данных
	conn, err := db.Open(cfg.Database.DSN())
	if err != nil {
		logger.Sugar().Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.Setup(conn, logger); err != nil {
		logger.Sugar().Fatalf("Failed to setup database: %v", err)
	}

	logger.Info("Connected to database successfully")

	// Инициализация репозиториев
	buyRequestRepo := repository.NewBuyRequestRepository(conn)
	offerRepo := repository.NewOfferRepository(conn)
	listingRepo := repository.NewListingRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	userRepo := repository.NewUserRepository(conn)
	feeConfigRepo := repository.NewFeeConfigRepository(conn)
	webhookRepo := repository.NewWebhookRepository(conn)
	notificationRepo := repository.NewNotificationRepository(conn)
	outboxRepo := repository.NewOutboxRepository(conn)

	// Инициализация сервисов
	policy := service.NewStaticPolicyEvaluator(cfg.Marketplace.BlockedProvinces)

	orderService := service.NewOrderService(
		orderRepo,
		buyRequestRepo,
		offerRepo,
		userRepo,
		feeConfigRepo,
		webhookRepo,
		policy,
		cfg.Payments.WebhookSecret,
	)

	buyRequestService := service.NewBuyRequestService(
		buyRequestRepo,
		offerRepo,
		listingRepo,
		outboxRepo,
	)
	buyRequestService.SetOfferLimiter(ratelimit.NewKeyedLimiter(
		cfg.Marketplace.OfferRatePerMinute/60,
		cfg.Marketplace.OfferBurst,
	))

	notificationService := service.NewNotificationService(notificationRepo, userRepo, logger)
	if cfg.Mail.GatewayURL != "" {
		notificationService.SetEmailSender(mail.NewSender(
			cfg.Mail.GatewayURL,
			cfg.Mail.APIKey,
			cfg.Mail.FromEmail,
			logger,
		))
	}

	// Redis кэш идемпотентности опционален: без него replay идет
	// через unique index в БД
	if rdb, err := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		logger.Sugar().Warnf("Redis unavailable, idempotency fast-path disabled: %v", err)
	} else {
		orderService.SetIdempotencyCache(redisx.NewIdempotencyCache(rdb))
		defer rdb.Close()
	}

	// Инициализация WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	notificationService.SetWebSocketHub(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbox relay: публикация доменных событий в Kafka
	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	relay := events.NewRelay(outboxRepo, producer, cfg.Jobs.RelayInterval, logger)
	go relay.Run(ctx)

	// Фоновые задачи: истечение заявок, отмена брошенных заказов,
	// архивация конфигураций комиссий, дообработка застрявших webhook'ов
	sweeper := jobs.NewSweeper(buyRequestService, orderService, feeConfigRepo, orderService, cfg.Jobs.SweepInterval, logger)
	go sweeper.Run(ctx)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		OrderService:        orderService,
		BuyRequestService:   buyRequestService,
		NotificationService: notificationService,
		FeeConfigRepo:       feeConfigRepo,
		Hub:                 hub,
		PaymentProvider:     cfg.Payments.Provider,
		Logger:              logger,
	}

	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Sugar().Infof("Starting server on %s", server.Addr)
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Sugar().Fatalf("Server failed: %v", err)
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Sugar().Fatalf("Server failed: %v", err)
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Останавливаем фоновые циклы, затем дожимаем outbox,
	// чтобы не терять события при деплое
	cancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := relay.Drain(drainCtx); err != nil {
		logger.Sugar().Warnf("Outbox drain incomplete: %v", err)
	}
	drainCancel()

	if err := producer.Close(); err != nil {
		logger.Sugar().Warnf("Error closing Kafka producer: %v", err)
	}

	hub.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
