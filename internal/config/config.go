package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Payments    PaymentsConfig
	Mail        MailConfig
	Jobs        JobsConfig
	Marketplace MarketplaceConfig
	Logging     LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// RedisConfig - настройки Redis (кэш идемпотентности)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig - настройки брокера событий
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// PaymentsConfig - настройки платежного провайдера
type PaymentsConfig struct {
	Provider      string
	WebhookSecret string
}

// MailConfig - настройки email шлюза
type MailConfig struct {
	GatewayURL string
	APIKey     string
	FromEmail  string
}

// JobsConfig - интервалы фоновых задач
type JobsConfig struct {
	SweepInterval time.Duration
	RelayInterval time.Duration
}

// MarketplaceConfig - доменные параметры маркетплейса
type MarketplaceConfig struct {
	// BlockedProvinces - провинции под ограничением перемещения живых
	// животных (вспышки болезней), через запятую
	BlockedProvinces []string

	// OfferRatePerMinute - лимит офферов продавца в минуту
	OfferRatePerMinute float64
	OfferBurst         float64
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "stocklot"),
			User:     getEnv("DB_USER", "stocklot"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "stocklot.order-events"),
			GroupID: getEnv("KAFKA_GROUP_ID", "stocklot-notifier"),
		},
		Payments: PaymentsConfig{
			Provider:      getEnv("PAYMENT_PROVIDER", "payfast"),
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		},
		Mail: MailConfig{
			GatewayURL: getEnv("MAIL_GATEWAY_URL", ""),
			APIKey:     getEnv("MAIL_API_KEY", ""),
			FromEmail:  getEnv("MAIL_FROM", "noreply@stocklot.co.za"),
		},
		Jobs: JobsConfig{
			SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", 1*time.Minute),
			RelayInterval: getEnvAsDuration("RELAY_INTERVAL", 1*time.Second),
		},
		Marketplace: MarketplaceConfig{
			BlockedProvinces:   getEnvAsList("BLOCKED_PROVINCES", nil),
			OfferRatePerMinute: getEnvAsFloat("OFFER_RATE_PER_MINUTE", 10),
			OfferBurst:         getEnvAsFloat("OFFER_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация критичных параметров безопасности
	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// Секрет webhook обязателен: без него подписи провайдера
	// не проверяются и любой может "оплатить" заказ
	if c.Payments.WebhookSecret == "" {
		return fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required for webhook signature verification")
	}

	if c.Payments.WebhookSecret == "change-me-in-production" {
		return fmt.Errorf("PAYMENT_WEBHOOK_SECRET must be changed from default value in production")
	}

	if len(c.Payments.WebhookSecret) < 32 {
		return fmt.Errorf("PAYMENT_WEBHOOK_SECRET must be at least 32 characters for security")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}

	if c.Jobs.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %v", c.Jobs.SweepInterval)
	}

	if c.Jobs.RelayInterval <= 0 {
		return fmt.Errorf("RELAY_INTERVAL must be positive, got %v", c.Jobs.RelayInterval)
	}

	if c.Marketplace.OfferRatePerMinute <= 0 {
		return fmt.Errorf("OFFER_RATE_PER_MINUTE must be positive, got %v", c.Marketplace.OfferRatePerMinute)
	}

	if c.Marketplace.OfferBurst < c.Marketplace.OfferRatePerMinute {
		return fmt.Errorf("OFFER_BURST must be at least OFFER_RATE_PER_MINUTE")
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
