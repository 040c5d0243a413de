package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/internal/wallet"
	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	"github.com/betchat/betchat-backend/pkg/pagination"
)

type testWalletService struct {
	balanceFn func(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	entriesFn func(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error)
}

func (s *testWalletService) Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.balanceFn(ctx, userID)
}

func (s *testWalletService) Entries(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error) {
	return s.entriesFn(ctx, userID, params)
}

func (s *testWalletService) DebitTx(context.Context, *gorm.DB, wallet.MovementInput) error {
	return nil
}

func (s *testWalletService) CreditTx(context.Context, *gorm.DB, wallet.MovementInput) error {
	return nil
}

func TestWalletBalanceForCaller(t *testing.T) {
	userID := uuid.New()
	svc := &testWalletService{
		balanceFn: func(_ context.Context, gotUser uuid.UUID) (*models.Wallet, error) {
			if gotUser != userID {
				t.Fatalf("expected caller wallet got %s", gotUser)
			}
			return &models.Wallet{UserID: userID, BalanceKobo: 150000, UpdatedAt: time.Now()}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/wallet", "", userID, nil)
	resp := httptest.NewRecorder()
	WalletBalance(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload walletResponse
	decodeData(t, resp, &payload)
	if payload.UserID != userID || payload.Balance != 150000 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestWalletBalanceRequiresIdentity(t *testing.T) {
	svc := &testWalletService{}
	req := authedRequest(http.MethodGet, "/api/v1/wallet", "", uuid.Nil, nil)
	resp := httptest.NewRecorder()
	WalletBalance(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestWalletEntriesPage(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	entries := []models.LedgerEntry{
		{ID: uuid.New(), UserID: userID, Type: enums.LedgerEntryTypePayout, AmountKobo: 50000, EventID: &eventID, CreatedAt: time.Now()},
		{ID: uuid.New(), UserID: userID, Type: enums.LedgerEntryTypeStake, AmountKobo: -20000, EventID: &eventID, CreatedAt: time.Now().Add(-time.Hour)},
	}
	svc := &testWalletService{
		entriesFn: func(_ context.Context, gotUser uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error) {
			if gotUser != userID {
				t.Fatalf("expected caller entries got %s", gotUser)
			}
			if params.Limit != 2 {
				t.Fatalf("expected limit 2 got %d", params.Limit)
			}
			return entries, "more", nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/wallet/entries?limit=2", "", userID, nil)
	resp := httptest.NewRecorder()
	WalletEntries(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload ledgerEntryListResponse
	decodeData(t, resp, &payload)
	if len(payload.Items) != 2 || payload.NextCursor != "more" {
		t.Fatalf("unexpected page %+v", payload)
	}
	if payload.Items[0].Type != string(enums.LedgerEntryTypePayout) || payload.Items[0].Amount != 50000 {
		t.Fatalf("unexpected entry %+v", payload.Items[0])
	}
	if payload.Items[1].Amount != -20000 {
		t.Fatal("expected debit entries to keep their sign")
	}
}
