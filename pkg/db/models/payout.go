package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/pkg/enums"
)

// Payout is one participant's claim created when an event is settled or
// cancelled. Rows are created atomically for every entitled participant, then
// paid one at a time; the pending/paid status makes crediting idempotent and
// safely re-invokable after a partial failure.
type Payout struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID    uuid.UUID          `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uq_payouts_event_user"`
	UserID     uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_payouts_event_user"`
	Type       enums.PayoutType   `gorm:"column:type;type:payout_type_enum;not null"`
	Status     enums.PayoutStatus `gorm:"column:status;type:payout_status_enum;not null;default:'pending'"`
	AmountKobo int64              `gorm:"column:amount_kobo;not null"`
	PaidAt     *time.Time         `gorm:"column:paid_at"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
