package repository

import (
	"database/sql"
	"errors"
	"time"

	"stocklot/internal/models"
)

// Ошибки репозитория заказов
var (
	ErrOrderNotFound       = errors.New("order group not found")
	ErrOrderNotCancellable = errors.New("order group is not in a cancellable state")
	ErrOrderBadTransition  = errors.New("order group status transition not allowed")
	ErrInsufficientQty     = errors.New("listing quantity no longer covers the requested qty")
)

// OrderRepository - работа с таблицами order_groups, seller_orders,
// escrow_records, seller_order_fees и payouts
//
// Создание заказа, отмена, оплата и завершение выполняются одной
// транзакцией Postgres: частичное состояние (группа без эскроу,
// списанный остаток без заказа) невозможно по построению.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository создает новый экземпляр репозитория
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrderParams - все строки, создаваемые при принятии оффера
type CreateOrderParams struct {
	Group       *models.OrderGroup
	SellerOrder *models.SellerOrder
	Escrow      *models.EscrowRecord
	Fees        *models.SellerOrderFees
	Outbox      *models.OutboxEvent

	// OfferID/RequestID переводятся в accepted/fulfilled в той же транзакции
	OfferID   string
	RequestID string
}

const orderGroupColumns = `id, tracking_number, buyer_id, status, delivery_mode, address_id, abattoir_id,
		merchandise_cents, delivery_cents, abattoir_cents, platform_fee_cents, vat_cents, grand_total_cents,
		price_lock_expires_at, idempotency_key, created_at, updated_at`

func scanOrderGroup(row interface{ Scan(...interface{}) error }) (*models.OrderGroup, error) {
	g := &models.OrderGroup{}
	var abattoirID sql.NullString
	err := row.Scan(
		&g.ID,
		&g.TrackingNumber,
		&g.BuyerID,
		&g.Status,
		&g.DeliveryMode,
		&g.AddressID,
		&abattoirID,
		&g.Totals.MerchandiseCents,
		&g.Totals.DeliveryCents,
		&g.Totals.AbattoirCents,
		&g.Totals.PlatformFeeCents,
		&g.Totals.VATCents,
		&g.Totals.GrandTotalCents,
		&g.PriceLockExpiresAt,
		&g.IdempotencyKey,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.AbattoirID = abattoirID.String
	return g, nil
}

// CreateOrderGroupTx атомарно создает группу заказа со всеми дочерними
// записями, резервирует остаток лота и переводит оффер/заявку в
// терминальные статусы.
//
// Guarded decrement (available_qty >= qty) конкурентно-безопасен:
// если два принятия оффера суммарно превышают остаток, проигравшая
// транзакция целиком откатывается с ErrInsufficientQty.
func (r *OrderRepository) CreateOrderGroupTx(p CreateOrderParams) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	p.Group.CreatedAt = now
	p.Group.UpdatedAt = now

	var abattoirID interface{}
	if p.Group.AbattoirID != "" {
		abattoirID = p.Group.AbattoirID
	}

	_, err = tx.Exec(`
		INSERT INTO order_groups (id, tracking_number, buyer_id, status, delivery_mode, address_id, abattoir_id,
			merchandise_cents, delivery_cents, abattoir_cents, platform_fee_cents, vat_cents, grand_total_cents,
			price_lock_expires_at, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		p.Group.ID,
		p.Group.TrackingNumber,
		p.Group.BuyerID,
		p.Group.Status,
		p.Group.DeliveryMode,
		p.Group.AddressID,
		abattoirID,
		p.Group.Totals.MerchandiseCents,
		p.Group.Totals.DeliveryCents,
		p.Group.Totals.AbattoirCents,
		p.Group.Totals.PlatformFeeCents,
		p.Group.Totals.VATCents,
		p.Group.Totals.GrandTotalCents,
		p.Group.PriceLockExpiresAt,
		p.Group.IdempotencyKey,
		p.Group.CreatedAt,
		p.Group.UpdatedAt,
	)
	if err != nil {
		return err
	}

	var listingID interface{}
	if p.SellerOrder.ListingID != "" {
		listingID = p.SellerOrder.ListingID
	}

	p.SellerOrder.CreatedAt = now
	_, err = tx.Exec(`
		INSERT INTO seller_orders (id, order_group_id, offer_id, seller_id, buyer_id, listing_id, qty, unit_price_cents, total_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.SellerOrder.ID,
		p.SellerOrder.OrderGroupID,
		p.SellerOrder.OfferID,
		p.SellerOrder.SellerID,
		p.SellerOrder.BuyerID,
		listingID,
		p.SellerOrder.Qty,
		p.SellerOrder.UnitPriceCents,
		p.SellerOrder.TotalCents,
		p.SellerOrder.Status,
		p.SellerOrder.CreatedAt,
	)
	if err != nil {
		return err
	}

	p.Escrow.CreatedAt = now
	_, err = tx.Exec(`
		INSERT INTO escrow_records (id, order_group_id, buyer_id, seller_id, amount_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.Escrow.ID,
		p.Escrow.OrderGroupID,
		p.Escrow.BuyerID,
		p.Escrow.SellerID,
		p.Escrow.AmountCents,
		p.Escrow.Status,
		p.Escrow.CreatedAt,
	)
	if err != nil {
		return err
	}

	p.Fees.CreatedAt = now
	_, err = tx.Exec(`
		INSERT INTO seller_order_fees (id, seller_order_id, fee_config_id, commission_cents, payout_fee_cents, processing_fee_cents, escrow_fee_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.Fees.ID,
		p.Fees.SellerOrderID,
		p.Fees.FeeConfigID,
		p.Fees.CommissionCents,
		p.Fees.PayoutFeeCents,
		p.Fees.ProcessingFeeCents,
		p.Fees.EscrowFeeCents,
		p.Fees.CreatedAt,
	)
	if err != nil {
		return err
	}

	// Резервирование остатка, только если оффер привязан к лоту
	if p.SellerOrder.ListingID != "" {
		result, err := tx.Exec(`
			UPDATE listings
			SET available_qty = available_qty - $1, updated_at = $2
			WHERE id = $3 AND available_qty >= $1`,
			p.SellerOrder.Qty, now, p.SellerOrder.ListingID,
		)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrInsufficientQty
		}
	}

	// Принятый оффер неизменяем, заявка уходит в fulfilled
	result, err := tx.Exec(`
		UPDATE buy_request_offers SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.OfferStatusAccepted, now, p.OfferID, models.OfferStatusPending,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOfferNotFound
	}

	result, err = tx.Exec(`
		UPDATE buy_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.BuyRequestStatusFulfilled, now, p.RequestID, models.BuyRequestStatusOpen,
	)
	if err != nil {
		return err
	}
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBuyRequestNotFound
	}

	if err := insertOutboxTx(tx, p.Outbox, now); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID возвращает группу заказа по ID
func (r *OrderRepository) GetByID(id string) (*models.OrderGroup, error) {
	query := `SELECT ` + orderGroupColumns + ` FROM order_groups WHERE id = $1`

	group, err := scanOrderGroup(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return group, nil
}

// GetByIDAndBuyer возвращает группу заказа покупателя
func (r *OrderRepository) GetByIDAndBuyer(id, buyerID string) (*models.OrderGroup, error) {
	query := `SELECT ` + orderGroupColumns + ` FROM order_groups WHERE id = $1 AND buyer_id = $2`

	group, err := scanOrderGroup(r.db.QueryRow(query, id, buyerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return group, nil
}

// GetByIdempotencyKey возвращает группу, созданную с указанным ключом
// идемпотентности. Используется для replay повторной отправки.
func (r *OrderRepository) GetByIdempotencyKey(key string) (*models.OrderGroup, error) {
	query := `SELECT ` + orderGroupColumns + ` FROM order_groups WHERE idempotency_key = $1`

	group, err := scanOrderGroup(r.db.QueryRow(query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return group, nil
}

// GetSellerOrdersByGroup возвращает дочерние заказы группы
func (r *OrderRepository) GetSellerOrdersByGroup(groupID string) ([]*models.SellerOrder, error) {
	query := `
		SELECT id, order_group_id, offer_id, seller_id, buyer_id, listing_id, qty, unit_price_cents, total_cents, status, created_at
		FROM seller_orders
		WHERE order_group_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.SellerOrder
	for rows.Next() {
		so := &models.SellerOrder{}
		var listingID sql.NullString
		err := rows.Scan(
			&so.ID,
			&so.OrderGroupID,
			&so.OfferID,
			&so.SellerID,
			&so.BuyerID,
			&listingID,
			&so.Qty,
			&so.UnitPriceCents,
			&so.TotalCents,
			&so.Status,
			&so.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		so.ListingID = listingID.String
		orders = append(orders, so)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetFeeSnapshot возвращает снимок комиссий дочернего заказа
func (r *OrderRepository) GetFeeSnapshot(sellerOrderID string) (*models.SellerOrderFees, error) {
	query := `
		SELECT id, seller_order_id, fee_config_id, commission_cents, payout_fee_cents, processing_fee_cents, escrow_fee_cents, created_at
		FROM seller_order_fees
		WHERE seller_order_id = $1`

	f := &models.SellerOrderFees{}
	err := r.db.QueryRow(query, sellerOrderID).Scan(
		&f.ID,
		&f.SellerOrderID,
		&f.FeeConfigID,
		&f.CommissionCents,
		&f.PayoutFeeCents,
		&f.ProcessingFeeCents,
		&f.EscrowFeeCents,
		&f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return f, nil
}

// UpdatePriceLock сохраняет пересчитанные totals и новое окно price lock
func (r *OrderRepository) UpdatePriceLock(id string, totals models.OrderTotals, expiresAt time.Time) error {
	query := `
		UPDATE order_groups
		SET merchandise_cents = $1, delivery_cents = $2, abattoir_cents = $3,
			platform_fee_cents = $4, vat_cents = $5, grand_total_cents = $6,
			price_lock_expires_at = $7, updated_at = $8
		WHERE id = $9 AND status = $10`

	result, err := r.db.Exec(query,
		totals.MerchandiseCents,
		totals.DeliveryCents,
		totals.AbattoirCents,
		totals.PlatformFeeCents,
		totals.VATCents,
		totals.GrandTotalCents,
		expiresAt,
		time.Now(),
		id,
		models.OrderStatusPendingPayment,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CancelTx отменяет группу в статусе pending_payment: возвращает
// зарезервированный остаток на лоты, помечает эскроу void и пишет
// событие отмены в outbox.
//
// Guard по статусу внутри транзакции закрывает гонку с оплатой:
// если webhook успел перевести группу в paid, отмена откатывается.
func (r *OrderRepository) CancelTx(groupID string, outbox *models.OutboxEvent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.Exec(`
		UPDATE order_groups SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.OrderStatusCancelled, now, groupID, models.OrderStatusPendingPayment,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotCancellable
	}

	// Возврат остатка по каждому дочернему заказу с привязанным лотом
	rows, err := tx.Query(`
		SELECT listing_id, qty FROM seller_orders
		WHERE order_group_id = $1 AND listing_id IS NOT NULL`, groupID)
	if err != nil {
		return err
	}
	type reserved struct {
		listingID string
		qty       int
	}
	var recs []reserved
	for rows.Next() {
		var rec reserved
		if err := rows.Scan(&rec.listingID, &rec.qty); err != nil {
			rows.Close()
			return err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, rec := range recs {
		if _, err := tx.Exec(`
			UPDATE listings SET available_qty = available_qty + $1, updated_at = $2 WHERE id = $3`,
			rec.qty, now, rec.listingID,
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		UPDATE escrow_records SET status = $1 WHERE order_group_id = $2 AND status = $3`,
		models.EscrowStatusVoid, groupID, models.EscrowStatusInit,
	); err != nil {
		return err
	}

	if err := insertOutboxTx(tx, outbox, now); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkPaidTx переводит группу в paid и эскроу в funded после
// подтвержденного платежа
func (r *OrderRepository) MarkPaidTx(groupID string, outbox *models.OutboxEvent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.Exec(`
		UPDATE order_groups SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.OrderStatusPaid, now, groupID, models.OrderStatusPendingPayment,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderBadTransition
	}

	if _, err := tx.Exec(`
		UPDATE escrow_records SET status = $1, funded_at = $2 WHERE order_group_id = $3 AND status = $4`,
		models.EscrowStatusFunded, now, groupID, models.EscrowStatusInit,
	); err != nil {
		return err
	}

	if err := insertOutboxTx(tx, outbox, now); err != nil {
		return err
	}

	return tx.Commit()
}

// CompleteTx завершает оплаченную группу: эскроу released, создается
// выплата продавцу, событие в outbox
func (r *OrderRepository) CompleteTx(groupID string, payout *models.Payout, outbox *models.OutboxEvent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.Exec(`
		UPDATE order_groups SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.OrderStatusComplete, now, groupID, models.OrderStatusPaid,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderBadTransition
	}

	if _, err := tx.Exec(`
		UPDATE escrow_records SET status = $1, released_at = $2 WHERE order_group_id = $3 AND status = $4`,
		models.EscrowStatusReleased, now, groupID, models.EscrowStatusFunded,
	); err != nil {
		return err
	}

	payout.CreatedAt = now
	if _, err := tx.Exec(`
		INSERT INTO payouts (id, seller_order_id, seller_id, amount_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		payout.ID,
		payout.SellerOrderID,
		payout.SellerID,
		payout.AmountCents,
		payout.Status,
		payout.CreatedAt,
	); err != nil {
		return err
	}

	if err := insertOutboxTx(tx, outbox, now); err != nil {
		return err
	}

	return tx.Commit()
}

// RefundTx обрабатывает возврат средств: оплаченная группа переходит в
// cancelled, эскроу из funded в refunded, остаток возвращается на лоты
func (r *OrderRepository) RefundTx(groupID string, outbox *models.OutboxEvent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.Exec(`
		UPDATE order_groups SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.OrderStatusCancelled, now, groupID, models.OrderStatusPaid,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderBadTransition
	}

	if _, err := tx.Exec(`
		UPDATE escrow_records SET status = $1 WHERE order_group_id = $2 AND status = $3`,
		models.EscrowStatusRefunded, groupID, models.EscrowStatusFunded,
	); err != nil {
		return err
	}

	rows, err := tx.Query(`
		SELECT listing_id, qty FROM seller_orders
		WHERE order_group_id = $1 AND listing_id IS NOT NULL`, groupID)
	if err != nil {
		return err
	}
	type reserved struct {
		listingID string
		qty       int
	}
	var recs []reserved
	for rows.Next() {
		var rec reserved
		if err := rows.Scan(&rec.listingID, &rec.qty); err != nil {
			rows.Close()
			return err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, rec := range recs {
		if _, err := tx.Exec(`
			UPDATE listings SET available_qty = available_qty + $1, updated_at = $2 WHERE id = $3`,
			rec.qty, now, rec.listingID,
		); err != nil {
			return err
		}
	}

	if err := insertOutboxTx(tx, outbox, now); err != nil {
		return err
	}

	return tx.Commit()
}

// GetStalePendingPayment возвращает ID групп в pending_payment, чей price
// lock истек раньше указанного момента. Используется sweeper'ом для
// автоотмены брошенных заказов.
func (r *OrderRepository) GetStalePendingPayment(lockExpiredBefore time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM order_groups
		WHERE status = $1 AND price_lock_expires_at < $2
		ORDER BY price_lock_expires_at
		LIMIT $3`

	rows, err := r.db.Query(query, models.OrderStatusPendingPayment, lockExpiredBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
