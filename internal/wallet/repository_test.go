package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	"github.com/betchat/betchat-backend/pkg/pagination"
)

func setupWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	wallets := `
CREATE TABLE IF NOT EXISTS wallets (
  user_id TEXT PRIMARY KEY,
  balance_kobo INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	entries := `
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount_kobo INTEGER NOT NULL,
  event_id TEXT,
  challenge_id TEXT,
  metadata TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(wallets).Error)
	require.NoError(t, db.Exec(entries).Error)
	return db
}

func TestRepositoryCreditCreatesWallet(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.Credit(ctx, userID, 50000))

	wallet, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), wallet.BalanceKobo)

	require.NoError(t, repo.Credit(ctx, userID, 25000))
	wallet, err = repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(75000), wallet.BalanceKobo)
}

func TestRepositoryDebitGuardsBalance(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.Credit(ctx, userID, 30000))

	require.NoError(t, repo.Debit(ctx, userID, 20000))

	err := repo.Debit(ctx, userID, 20000)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	wallet, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), wallet.BalanceKobo)
}

func TestRepositoryDebitMissingWallet(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)

	err := repo.Debit(context.Background(), uuid.New(), 10000)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestRepositoryListEntriesPaginates(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		entry := &models.LedgerEntry{
			ID:         uuid.New(),
			UserID:     userID,
			Type:       enums.LedgerEntryTypePayout,
			AmountKobo: int64(1000 * (i + 1)),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.CreateEntry(ctx, entry))
	}

	page, err := repo.ListEntries(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	// limit+1 buffer row signals a next page
	require.Len(t, page, 3)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID})
	rest, err := repo.ListEntries(ctx, userID, pagination.Params{Limit: 10, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 3)
	for _, entry := range rest {
		assert.True(t, entry.CreatedAt.Before(page[1].CreatedAt))
	}
}
