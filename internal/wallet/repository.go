package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/pagination"
)

// ErrInsufficientFunds is returned when a guarded debit matches no row, either
// because the wallet is missing or its balance is below the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Repository manages wallet balances and the ledger journal. Balances are only
// ever mutated through single guarded statements so they can never go negative.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Debit(ctx context.Context, userID uuid.UUID, amountKobo int64) error
	Credit(ctx context.Context, userID uuid.UUID, amountKobo int64) error
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Debit subtracts amountKobo only when the balance covers it. The guard lives
// in the WHERE clause so concurrent debits can never drive the balance
// negative.
func (r *repository) Debit(ctx context.Context, userID uuid.UUID, amountKobo int64) error {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND balance_kobo >= ?", userID, amountKobo).
		UpdateColumn("balance_kobo", gorm.Expr("balance_kobo - ?", amountKobo))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// Credit adds amountKobo, creating the wallet on first touch.
func (r *repository) Credit(ctx context.Context, userID uuid.UUID, amountKobo int64) error {
	wallet := models.Wallet{UserID: userID, BalanceKobo: amountKobo}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance_kobo": gorm.Expr("balance_kobo + excluded.balance_kobo"),
		}),
	}).Create(&wallet).Error
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var entries []models.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
