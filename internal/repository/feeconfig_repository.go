package repository

import (
	"database/sql"
	"errors"
	"time"

	"stocklot/internal/models"
)

// Ошибки репозитория конфигурации комиссий
var (
	ErrFeeConfigNotFound = errors.New("no active fee config")
)

// FeeConfigRepository - работа с таблицей fee_configs
type FeeConfigRepository struct {
	db *sql.DB
}

// NewFeeConfigRepository создает новый экземпляр репозитория
func NewFeeConfigRepository(db *sql.DB) *FeeConfigRepository {
	return &FeeConfigRepository{db: db}
}

const feeConfigColumns = `id, name, platform_fee_bps, vat_bps, commission_bps, payout_fee_bps, processing_fee_bps,
		escrow_fee_cents, min_delivery_cents, per_unit_delivery_cents, abattoir_per_unit_cents,
		effective_from, effective_to, is_active, is_archived, created_at`

func scanFeeConfig(row interface{ Scan(...interface{}) error }) (*models.FeeConfig, error) {
	c := &models.FeeConfig{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.PlatformFeeBps,
		&c.VATBps,
		&c.CommissionBps,
		&c.PayoutFeeBps,
		&c.ProcessingFeeBps,
		&c.EscrowFeeCents,
		&c.MinDeliveryCents,
		&c.PerUnitDeliveryCents,
		&c.AbattoirPerUnitCents,
		&c.EffectiveFrom,
		&c.EffectiveTo,
		&c.IsActive,
		&c.IsArchived,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetActive возвращает активную конфигурацию комиссий.
// Инвариант "не более одной активной" обеспечивает partial unique index.
func (r *FeeConfigRepository) GetActive() (*models.FeeConfig, error) {
	query := `SELECT ` + feeConfigColumns + ` FROM fee_configs WHERE is_active = TRUE`

	cfg, err := scanFeeConfig(r.db.QueryRow(query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFeeConfigNotFound
		}
		return nil, err
	}
	return cfg, nil
}

// Create создает конфигурацию комиссий
func (r *FeeConfigRepository) Create(cfg *models.FeeConfig) error {
	query := `
		INSERT INTO fee_configs (id, name, platform_fee_bps, vat_bps, commission_bps, payout_fee_bps, processing_fee_bps,
			escrow_fee_cents, min_delivery_cents, per_unit_delivery_cents, abattoir_per_unit_cents,
			effective_from, effective_to, is_active, is_archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	cfg.CreatedAt = time.Now()

	_, err := r.db.Exec(
		query,
		cfg.ID,
		cfg.Name,
		cfg.PlatformFeeBps,
		cfg.VATBps,
		cfg.CommissionBps,
		cfg.PayoutFeeBps,
		cfg.ProcessingFeeBps,
		cfg.EscrowFeeCents,
		cfg.MinDeliveryCents,
		cfg.PerUnitDeliveryCents,
		cfg.AbattoirPerUnitCents,
		cfg.EffectiveFrom,
		cfg.EffectiveTo,
		cfg.IsActive,
		cfg.IsArchived,
		cfg.CreatedAt,
	)
	return err
}

// CountActive возвращает количество активных конфигураций (0 или 1)
func (r *FeeConfigRepository) CountActive() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM fee_configs WHERE is_active = TRUE`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ArchiveExpired помечает архивными неактивные конфигурации с истекшим
// effective_to. Тело идемпотентно - вызывается sweeper'ом по расписанию.
func (r *FeeConfigRepository) ArchiveExpired(now time.Time) (int64, error) {
	query := `
		UPDATE fee_configs
		SET is_archived = TRUE
		WHERE is_active = FALSE AND is_archived = FALSE AND effective_to IS NOT NULL AND effective_to < $1`

	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
