package repository

import (
	"database/sql"
	"errors"

	"stocklot/internal/models"
)

// Ошибки репозитория эскроу
var (
	ErrEscrowNotFound = errors.New("escrow record not found")
)

// EscrowRepository - чтение таблицы escrow_records
//
// Переходы статусов эскроу выполняются только внутри транзакций
// OrderRepository (MarkPaidTx, CompleteTx, CancelTx), чтобы состояние
// эскроу не могло разойтись с состоянием группы заказа.
type EscrowRepository struct {
	db *sql.DB
}

// NewEscrowRepository создает новый экземпляр репозитория
func NewEscrowRepository(db *sql.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// GetByOrderGroupID возвращает запись эскроу группы заказа
func (r *EscrowRepository) GetByOrderGroupID(groupID string) (*models.EscrowRecord, error) {
	query := `
		SELECT id, order_group_id, buyer_id, seller_id, amount_cents, status, funded_at, released_at, created_at
		FROM escrow_records
		WHERE order_group_id = $1`

	e := &models.EscrowRecord{}
	err := r.db.QueryRow(query, groupID).Scan(
		&e.ID,
		&e.OrderGroupID,
		&e.BuyerID,
		&e.SellerID,
		&e.AmountCents,
		&e.Status,
		&e.FundedAt,
		&e.ReleasedAt,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEscrowNotFound
		}
		return nil, err
	}
	return e, nil
}

// CountByStatus возвращает количество записей эскроу в статусе
func (r *EscrowRepository) CountByStatus(status string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM escrow_records WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
