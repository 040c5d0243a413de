package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's spendable balance in kobo. The balance is only ever
// mutated through guarded single-statement increments, so it can never go
// negative.
type Wallet struct {
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	BalanceKobo int64     `gorm:"column:balance_kobo;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
