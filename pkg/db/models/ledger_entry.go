package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/pkg/enums"
)

// LedgerEntry records an immutable balance movement. AmountKobo is signed:
// negative for debits, positive for credits. Every wallet mutation writes a
// matching entry in the same transaction, so the journal always reconciles
// with the balance.
type LedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Type        enums.LedgerEntryType `gorm:"column:type;type:ledger_entry_type_enum;not null"`
	AmountKobo  int64                 `gorm:"column:amount_kobo;not null"`
	EventID     *uuid.UUID            `gorm:"column:event_id;type:uuid"`
	ChallengeID *uuid.UUID            `gorm:"column:challenge_id;type:uuid"`
	Metadata    json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
