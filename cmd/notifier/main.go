package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stocklot/internal/config"
	"stocklot/internal/db"
	"stocklot/internal/events"
	"stocklot/internal/mail"
	"stocklot/internal/repository"
	"stocklot/internal/service"
	"stocklot/pkg/utils"
)

// Notifier - отдельный consumer доменных событий. Читает топик заказов
// из Kafka и раскладывает события в уведомления пользователей (БД +
// email). Масштабируется независимо от API сервера через consumer
// group.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	conn, err := db.Open(cfg.Database.DSN())
	if err != nil {
		logger.Sugar().Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	notificationRepo := repository.NewNotificationRepository(conn)
	userRepo := repository.NewUserRepository(conn)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, logger)
	if cfg.Mail.GatewayURL != "" {
		notificationService.SetEmailSender(mail.NewSender(
			cfg.Mail.GatewayURL,
			cfg.Mail.APIKey,
			cfg.Mail.FromEmail,
			logger,
		))
	}

	consumer := events.NewConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		notificationService,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Sugar().Infof("Notifier started, topic=%s group=%s", cfg.Kafka.Topic, cfg.Kafka.GroupID)

	consumer.Run(ctx)

	if err := consumer.Close(); err != nil {
		logger.Sugar().Warnf("Error closing consumer: %v", err)
	}

	logger.Info("Notifier exited")
}
