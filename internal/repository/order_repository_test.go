package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"stocklot/internal/models"
)

// ============================================================
// OrderRepository Tests
// ============================================================

func TestNewOrderRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewOrderRepository(db)
	if repo == nil {
		t.Fatal("NewOrderRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func testCreateOrderParams() CreateOrderParams {
	key := "idem-1"
	return CreateOrderParams{
		Group: &models.OrderGroup{
			ID:             "og-1",
			TrackingNumber: "TRK17000000001A2B3C4D",
			BuyerID:        "buyer-1",
			Status:         models.OrderStatusPendingPayment,
			DeliveryMode:   models.DeliveryModeSeller,
			AddressID:      "addr-1",
			Totals: models.OrderTotals{
				MerchandiseCents: 200000,
				DeliveryCents:    5000,
				PlatformFeeCents: 5000,
				VATCents:         750,
				GrandTotalCents:  210750,
			},
			PriceLockExpiresAt: time.Now().Add(models.PriceLockDuration),
			IdempotencyKey:     &key,
		},
		SellerOrder: &models.SellerOrder{
			ID:             "so-1",
			OrderGroupID:   "og-1",
			OfferID:        "offer-1",
			SellerID:       "seller-1",
			BuyerID:        "buyer-1",
			ListingID:      "listing-1",
			Qty:            10,
			UnitPriceCents: 20000,
			TotalCents:     200000,
			Status:         models.OrderStatusPendingPayment,
		},
		Escrow: &models.EscrowRecord{
			ID:           "esc-1",
			OrderGroupID: "og-1",
			BuyerID:      "buyer-1",
			SellerID:     "seller-1",
			AmountCents:  210750,
			Status:       models.EscrowStatusInit,
		},
		Fees: &models.SellerOrderFees{
			ID:              "fee-1",
			SellerOrderID:   "so-1",
			FeeConfigID:     "cfg-1",
			CommissionCents: 10000,
		},
		Outbox: &models.OutboxEvent{
			ID:            "evt-1",
			EventType:     models.EventOfferAccepted,
			CorrelationID: "og-1",
			Payload:       []byte(`{}`),
		},
		OfferID:   "offer-1",
		RequestID: "req-1",
	}
}

func TestOrderRepositoryCreateOrderGroupTx(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO order_groups`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO seller_orders`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO escrow_records`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO seller_order_fees`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE listings SET available_qty = available_qty - \$1`).
					WithArgs(10, sqlmock.AnyArg(), "listing-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE buy_request_offers SET status = \$1`).
					WithArgs(models.OfferStatusAccepted, sqlmock.AnyArg(), "offer-1", models.OfferStatusPending).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE buy_requests SET status = \$1`).
					WithArgs(models.BuyRequestStatusFulfilled, sqlmock.AnyArg(), "req-1", models.BuyRequestStatusOpen).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO outbox_events`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectError: nil,
		},
		{
			name: "insufficient qty rolls back the whole transaction",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO order_groups`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO seller_orders`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO escrow_records`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO seller_order_fees`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE listings SET available_qty = available_qty - \$1`).
					WithArgs(10, sqlmock.AnyArg(), "listing-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectError: ErrInsufficientQty,
		},
		{
			name: "offer already accepted rolls back",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO order_groups`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO seller_orders`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO escrow_records`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO seller_order_fees`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE listings SET available_qty = available_qty - \$1`).
					WithArgs(10, sqlmock.AnyArg(), "listing-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE buy_request_offers SET status = \$1`).
					WithArgs(models.OfferStatusAccepted, sqlmock.AnyArg(), "offer-1", models.OfferStatusPending).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectError: ErrOfferNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewOrderRepository(db)
			err = repo.CreateOrderGroupTx(testCreateOrderParams())

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func orderGroupRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tracking_number", "buyer_id", "status", "delivery_mode", "address_id", "abattoir_id",
		"merchandise_cents", "delivery_cents", "abattoir_cents", "platform_fee_cents", "vat_cents", "grand_total_cents",
		"price_lock_expires_at", "idempotency_key", "created_at", "updated_at",
	}).AddRow(
		"og-1", "TRK17000000001A2B3C4D", "buyer-1", "pending_payment", "seller", "addr-1", nil,
		int64(200000), int64(5000), int64(0), int64(5000), int64(750), int64(210750),
		now.Add(models.PriceLockDuration), "idem-1", now, now,
	)
}

func TestOrderRepositoryGetByID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		id          string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			id:   "og-1",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM order_groups WHERE id = \$1`).
					WithArgs("og-1").
					WillReturnRows(orderGroupRows(now))
			},
			expectError: nil,
		},
		{
			name: "not found",
			id:   "og-999",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM order_groups WHERE id = \$1`).
					WithArgs("og-999").
					WillReturnError(sql.ErrNoRows)
			},
			expectError: ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewOrderRepository(db)
			result, err := repo.GetByID(tt.id)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if result.Totals.GrandTotalCents != 210750 {
					t.Errorf("expected GrandTotalCents=210750, got %d", result.Totals.GrandTotalCents)
				}
				if result.Status != models.OrderStatusPendingPayment {
					t.Errorf("expected status=pending_payment, got %s", result.Status)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestOrderRepositoryGetByIdempotencyKey(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM order_groups WHERE idempotency_key = \$1`).
		WithArgs("idem-1").
		WillReturnRows(orderGroupRows(now))

	repo := NewOrderRepository(db)
	result, err := repo.GetByIdempotencyKey("idem-1")

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result.ID != "og-1" {
		t.Errorf("expected ID=og-1, got %s", result.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOrderRepositoryUpdatePriceLock(t *testing.T) {
	totals := models.OrderTotals{
		MerchandiseCents: 220000,
		DeliveryCents:    5000,
		PlatformFeeCents: 5500,
		VATCents:         825,
		GrandTotalCents:  231325,
	}
	expiresAt := time.Now().Add(models.PriceLockDuration)

	tests := []struct {
		name        string
		id          string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			id:   "og-1",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE order_groups`).
					WithArgs(int64(220000), int64(5000), int64(0), int64(5500), int64(825), int64(231325),
						expiresAt, sqlmock.AnyArg(), "og-1", models.OrderStatusPendingPayment).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name: "already paid",
			id:   "og-2",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE order_groups`).
					WithArgs(int64(220000), int64(5000), int64(0), int64(5500), int64(825), int64(231325),
						expiresAt, sqlmock.AnyArg(), "og-2", models.OrderStatusPendingPayment).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewOrderRepository(db)
			err = repo.UpdatePriceLock(tt.id, totals, expiresAt)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestOrderRepositoryCancelTx(t *testing.T) {
	outbox := &models.OutboxEvent{
		ID:            "evt-2",
		EventType:     models.EventOrderCancelled,
		CorrelationID: "og-1",
		Payload:       []byte(`{}`),
	}

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success restores listing qty",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE order_groups SET status = \$1`).
					WithArgs(models.OrderStatusCancelled, sqlmock.AnyArg(), "og-1", models.OrderStatusPendingPayment).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT listing_id, qty FROM seller_orders`).
					WithArgs("og-1").
					WillReturnRows(sqlmock.NewRows([]string{"listing_id", "qty"}).AddRow("listing-1", 10))
				mock.ExpectExec(`UPDATE listings SET available_qty = available_qty \+ \$1`).
					WithArgs(10, sqlmock.AnyArg(), "listing-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE escrow_records SET status = \$1`).
					WithArgs(models.EscrowStatusVoid, "og-1", models.EscrowStatusInit).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO outbox_events`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectError: nil,
		},
		{
			name: "already paid is not cancellable",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE order_groups SET status = \$1`).
					WithArgs(models.OrderStatusCancelled, sqlmock.AnyArg(), "og-1", models.OrderStatusPendingPayment).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectError: ErrOrderNotCancellable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewOrderRepository(db)
			err = repo.CancelTx("og-1", outbox)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestOrderRepositoryMarkPaidTx(t *testing.T) {
	outbox := &models.OutboxEvent{
		ID:            "evt-3",
		EventType:     models.EventOrderPaid,
		CorrelationID: "og-1",
		Payload:       []byte(`{}`),
	}

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE order_groups SET status = \$1`).
					WithArgs(models.OrderStatusPaid, sqlmock.AnyArg(), "og-1", models.OrderStatusPendingPayment).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE escrow_records SET status = \$1, funded_at = \$2`).
					WithArgs(models.EscrowStatusFunded, sqlmock.AnyArg(), "og-1", models.EscrowStatusInit).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO outbox_events`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectError: nil,
		},
		{
			name: "cancelled order cannot become paid",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE order_groups SET status = \$1`).
					WithArgs(models.OrderStatusPaid, sqlmock.AnyArg(), "og-1", models.OrderStatusPendingPayment).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectError: ErrOrderBadTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewOrderRepository(db)
			err = repo.MarkPaidTx("og-1", outbox)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestOrderRepositoryCompleteTx(t *testing.T) {
	payout := &models.Payout{
		ID:            "pay-1",
		SellerOrderID: "so-1",
		SellerID:      "seller-1",
		AmountCents:   190000,
		Status:        models.PayoutStatusPending,
	}
	outbox := &models.OutboxEvent{
		ID:            "evt-4",
		EventType:     models.EventEscrowReleased,
		CorrelationID: "og-1",
		Payload:       []byte(`{}`),
	}

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE order_groups SET status = \$1`).
		WithArgs(models.OrderStatusComplete, sqlmock.AnyArg(), "og-1", models.OrderStatusPaid).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE escrow_records SET status = \$1, released_at = \$2`).
		WithArgs(models.EscrowStatusReleased, sqlmock.AnyArg(), "og-1", models.EscrowStatusFunded).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO payouts`).
		WithArgs("pay-1", "so-1", "seller-1", int64(190000), models.PayoutStatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO outbox_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewOrderRepository(db)
	err = repo.CompleteTx("og-1", payout, outbox)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOrderRepositoryGetStalePendingPayment(t *testing.T) {
	cutoff := time.Now().Add(-time.Hour)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow("og-1").AddRow("og-2")
	mock.ExpectQuery(`SELECT id FROM order_groups`).
		WithArgs(models.OrderStatusPendingPayment, cutoff, 100).
		WillReturnRows(rows)

	repo := NewOrderRepository(db)
	ids, err := repo.GetStalePendingPayment(cutoff, 100)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 ids, got %d", len(ids))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
