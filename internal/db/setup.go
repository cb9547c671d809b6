package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"stocklot/internal/models"
	"stocklot/internal/repository"
)

// Open открывает соединение с Postgres и проверяет его ping'ом
func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return conn, nil
}

// schema - идемпотентный bootstrap всех таблиц и индексов.
//
// Ключевые constraint'ы, на которые опирается сервисный слой:
//   - order_groups.idempotency_key UNIQUE: replay принятия оффера
//   - webhook_events (provider, provider_event_id) UNIQUE: дедупликация
//     доставок платежного провайдера
//   - buy_request_offers partial UNIQUE (request_id, seller_id) по
//     pending: один активный оффер продавца на заявку
//   - fee_configs partial UNIQUE по is_active: ровно одна активная
//     конфигурация комиссий
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                TEXT PRIMARY KEY,
		email             TEXT NOT NULL UNIQUE,
		password_hash     TEXT NOT NULL,
		role              TEXT NOT NULL,
		kyc_status        TEXT NOT NULL DEFAULT 'none',
		service_provinces TEXT[],
		created_at        TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS addresses (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		line1      TEXT NOT NULL,
		city       TEXT NOT NULL,
		province   TEXT NOT NULL,
		country    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS listings (
		id               TEXT PRIMARY KEY,
		seller_id        TEXT NOT NULL REFERENCES users(id),
		species          TEXT NOT NULL,
		breed            TEXT NOT NULL,
		product_type     TEXT NOT NULL,
		unit_price_cents BIGINT NOT NULL,
		available_qty    INTEGER NOT NULL CHECK (available_qty >= 0),
		province         TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS buy_requests (
		id                 TEXT PRIMARY KEY,
		buyer_id           TEXT NOT NULL REFERENCES users(id),
		species            TEXT NOT NULL,
		breed              TEXT NOT NULL,
		product_type       TEXT NOT NULL,
		qty                INTEGER NOT NULL,
		unit               TEXT NOT NULL,
		target_price_cents BIGINT,
		province           TEXT NOT NULL,
		country            TEXT NOT NULL,
		notes              TEXT,
		status             TEXT NOT NULL,
		moderation_status  TEXT NOT NULL,
		spam_score         INTEGER NOT NULL DEFAULT 0,
		expires_at         TIMESTAMPTZ NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_buy_requests_status_expires
		ON buy_requests (status, expires_at)`,

	`CREATE TABLE IF NOT EXISTS buy_request_offers (
		id                TEXT PRIMARY KEY,
		request_id        TEXT NOT NULL REFERENCES buy_requests(id),
		seller_id         TEXT NOT NULL REFERENCES users(id),
		listing_id        TEXT REFERENCES listings(id),
		offer_price_cents BIGINT NOT NULL,
		qty               INTEGER NOT NULL,
		message           TEXT,
		status            TEXT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_one_pending_per_seller
		ON buy_request_offers (request_id, seller_id)
		WHERE status = 'pending'`,

	`CREATE TABLE IF NOT EXISTS fee_configs (
		id                      TEXT PRIMARY KEY,
		name                    TEXT NOT NULL,
		platform_fee_bps        BIGINT NOT NULL,
		vat_bps                 BIGINT NOT NULL,
		commission_bps          BIGINT NOT NULL,
		payout_fee_bps          BIGINT NOT NULL,
		processing_fee_bps      BIGINT NOT NULL,
		escrow_fee_cents        BIGINT NOT NULL,
		min_delivery_cents      BIGINT NOT NULL,
		per_unit_delivery_cents BIGINT NOT NULL,
		abattoir_per_unit_cents BIGINT NOT NULL,
		effective_from          TIMESTAMPTZ NOT NULL,
		effective_to            TIMESTAMPTZ,
		is_active               BOOLEAN NOT NULL DEFAULT FALSE,
		is_archived             BOOLEAN NOT NULL DEFAULT FALSE,
		created_at              TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_fee_configs_single_active
		ON fee_configs (is_active)
		WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS order_groups (
		id                    TEXT PRIMARY KEY,
		tracking_number       TEXT NOT NULL UNIQUE,
		buyer_id              TEXT NOT NULL REFERENCES users(id),
		status                TEXT NOT NULL,
		delivery_mode         TEXT NOT NULL,
		address_id            TEXT,
		abattoir_id           TEXT,
		merchandise_cents     BIGINT NOT NULL,
		delivery_cents        BIGINT NOT NULL,
		abattoir_cents        BIGINT NOT NULL,
		platform_fee_cents    BIGINT NOT NULL,
		vat_cents             BIGINT NOT NULL,
		grand_total_cents     BIGINT NOT NULL,
		price_lock_expires_at TIMESTAMPTZ NOT NULL,
		idempotency_key       TEXT UNIQUE,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_groups_stale
		ON order_groups (status, price_lock_expires_at)`,

	`CREATE TABLE IF NOT EXISTS seller_orders (
		id               TEXT PRIMARY KEY,
		order_group_id   TEXT NOT NULL REFERENCES order_groups(id),
		offer_id         TEXT NOT NULL,
		seller_id        TEXT NOT NULL REFERENCES users(id),
		buyer_id         TEXT NOT NULL REFERENCES users(id),
		listing_id       TEXT REFERENCES listings(id),
		qty              INTEGER NOT NULL,
		unit_price_cents BIGINT NOT NULL,
		total_cents      BIGINT NOT NULL,
		status           TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_seller_orders_group
		ON seller_orders (order_group_id)`,

	`CREATE TABLE IF NOT EXISTS escrow_records (
		id             TEXT PRIMARY KEY,
		order_group_id TEXT NOT NULL REFERENCES order_groups(id),
		buyer_id       TEXT NOT NULL,
		seller_id      TEXT NOT NULL,
		amount_cents   BIGINT NOT NULL,
		status         TEXT NOT NULL,
		funded_at      TIMESTAMPTZ,
		released_at    TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_escrow_records_group
		ON escrow_records (order_group_id)`,

	`CREATE TABLE IF NOT EXISTS seller_order_fees (
		id                   TEXT PRIMARY KEY,
		seller_order_id      TEXT NOT NULL REFERENCES seller_orders(id),
		fee_config_id        TEXT NOT NULL,
		commission_cents     BIGINT NOT NULL,
		payout_fee_cents     BIGINT NOT NULL,
		processing_fee_cents BIGINT NOT NULL,
		escrow_fee_cents     BIGINT NOT NULL,
		created_at           TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS payouts (
		id              TEXT PRIMARY KEY,
		seller_order_id TEXT NOT NULL REFERENCES seller_orders(id),
		seller_id       TEXT NOT NULL,
		amount_cents    BIGINT NOT NULL,
		status          TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS webhook_events (
		id                TEXT PRIMARY KEY,
		provider          TEXT NOT NULL,
		provider_event_id TEXT NOT NULL,
		event_type        TEXT NOT NULL,
		payload           BYTEA NOT NULL,
		processed         BOOLEAN NOT NULL DEFAULT FALSE,
		processed_at      TIMESTAMPTZ,
		received_at       TIMESTAMPTZ NOT NULL,
		UNIQUE (provider, provider_event_id)
	)`,

	`CREATE TABLE IF NOT EXISTS outbox_events (
		id             TEXT PRIMARY KEY,
		event_type     TEXT NOT NULL,
		correlation_id TEXT NOT NULL,
		payload        BYTEA NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		published_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
		ON outbox_events (created_at)
		WHERE published_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id        SERIAL PRIMARY KEY,
		user_id   TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		type      TEXT NOT NULL,
		channel   TEXT NOT NULL,
		message   TEXT NOT NULL,
		meta      BYTEA
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user
		ON notifications (user_id, timestamp DESC)`,
}

// Setup создает схему и сидирует дефолтную конфигурацию комиссий
func Setup(conn *sql.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	seeded, err := ensureDefaultFeeConfig(conn)
	if err != nil {
		return fmt.Errorf("seed fee config: %w", err)
	}
	if seeded {
		logger.Info("seeded default fee config")
	}

	logger.Info("database schema ready")
	return nil
}

// ensureDefaultFeeConfig создает активную конфигурацию комиссий, если
// ни одной нет. Ставки берутся из дефолтов моделей.
func ensureDefaultFeeConfig(conn *sql.DB) (bool, error) {
	repo := repository.NewFeeConfigRepository(conn)

	count, err := repo.CountActive()
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	cfg := &models.FeeConfig{
		ID:                   uuid.NewString(),
		Name:                 "default",
		PlatformFeeBps:       models.DefaultPlatformFeeBps,
		VATBps:               models.DefaultVATBps,
		CommissionBps:        models.DefaultCommissionBps,
		PayoutFeeBps:         models.DefaultPayoutFeeBps,
		ProcessingFeeBps:     models.DefaultProcessingFeeBps,
		EscrowFeeCents:       models.DefaultEscrowFeeCents,
		MinDeliveryCents:     models.DefaultMinDeliveryCents,
		PerUnitDeliveryCents: models.DefaultPerUnitDeliveryCents,
		AbattoirPerUnitCents: models.DefaultAbattoirPerUnitCents,
		EffectiveFrom:        time.Now(),
		IsActive:             true,
	}
	if err := repo.Create(cfg); err != nil {
		return false, err
	}
	return true, nil
}
