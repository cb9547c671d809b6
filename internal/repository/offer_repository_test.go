package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"stocklot/internal/models"
)

// ============================================================
// OfferRepository Tests
// ============================================================

func TestNewOfferRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewOfferRepository(db)
	if repo == nil {
		t.Fatal("NewOfferRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestOfferRepositoryCreate(t *testing.T) {
	tests := []struct {
		name        string
		offer       *models.Offer
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			offer: &models.Offer{
				ID:              "offer-1",
				RequestID:       "req-1",
				SellerID:        "seller-1",
				ListingID:       "listing-1",
				OfferPriceCents: 20000,
				Qty:             10,
				Status:          models.OfferStatusPending,
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO buy_request_offers`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name: "duplicate pending offer",
			offer: &models.Offer{
				ID:              "offer-2",
				RequestID:       "req-1",
				SellerID:        "seller-1",
				OfferPriceCents: 21000,
				Qty:             10,
				Status:          models.OfferStatusPending,
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO buy_request_offers`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			expectError: ErrOfferAlreadyExists,
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

			repo := NewOfferRepository(db)
			err = repo.Create(tt.offer)

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

func offerRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "request_id", "seller_id", "listing_id", "offer_price_cents", "qty", "message", "status", "created_at", "updated_at",
	}).AddRow("offer-1", "req-1", "seller-1", "listing-1", int64(20000), 10, "", "pending", now, now)
}

func TestOfferRepositoryGetPendingByIDAndRequest(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM buy_request_offers WHERE id = \$1 AND request_id = \$2 AND status = \$3`).
					WithArgs("offer-1", "req-1", models.OfferStatusPending).
					WillReturnRows(offerRows(now))
			},
			expectError: nil,
		},
		{
			name: "already accepted",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM buy_request_offers WHERE id = \$1 AND request_id = \$2 AND status = \$3`).
					WithArgs("offer-1", "req-1", models.OfferStatusPending).
					WillReturnError(sql.ErrNoRows)
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

			repo := NewOfferRepository(db)
			result, err := repo.GetPendingByIDAndRequest("offer-1", "req-1")

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if result.ListingID != "listing-1" {
					t.Errorf("expected ListingID=listing-1, got %s", result.ListingID)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestOfferRepositoryExistsPendingBySeller(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("req-1", "seller-1", models.OfferStatusPending).
		WillReturnRows(rows)

	repo := NewOfferRepository(db)
	exists, err := repo.ExistsPendingBySeller("req-1", "seller-1")

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected exists=true")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOfferRepositoryGetByRequestID(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "request_id", "seller_id", "listing_id", "offer_price_cents", "qty", "message", "status", "created_at", "updated_at",
	}).
		AddRow("offer-2", "req-1", "seller-2", nil, int64(21000), 10, "fresh stock", "pending", now, now).
		AddRow("offer-1", "req-1", "seller-1", "listing-1", int64(20000), 10, "", "pending", now, now)
	mock.ExpectQuery(`SELECT .+ FROM buy_request_offers WHERE request_id = \$1 ORDER BY created_at DESC`).
		WithArgs("req-1").
		WillReturnRows(rows)

	repo := NewOfferRepository(db)
	result, err := repo.GetByRequestID("req-1")

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 offers, got %d", len(result))
	}
	if result[0].ListingID != "" {
		t.Errorf("expected empty ListingID for unlinked offer, got %s", result[0].ListingID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOfferRepositoryUpdateStatus(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		status      string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name:   "decline pending offer",
			id:     "offer-1",
			status: models.OfferStatusDeclined,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE buy_request_offers`).
					WithArgs(models.OfferStatusDeclined, sqlmock.AnyArg(), "offer-1", models.OfferStatusPending).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name:   "accepted offer is immutable",
			id:     "offer-1",
			status: models.OfferStatusDeclined,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE buy_request_offers`).
					WithArgs(models.OfferStatusDeclined, sqlmock.AnyArg(), "offer-1", models.OfferStatusPending).
					WillReturnResult(sqlmock.NewResult(0, 0))
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

			repo := NewOfferRepository(db)
			err = repo.UpdateStatus(tt.id, tt.status)

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
