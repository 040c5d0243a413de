package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/pkg/enums"
)

// Challenge is the two-party analog of an event: exactly one opponent, equal
// stakes held in escrow, winner takes the opposing stake. The creator's stake
// is escrowed at creation, the opponent's at accept.
type Challenge struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title      string                `gorm:"column:title;not null"`
	CreatorID  uuid.UUID             `gorm:"column:creator_id;type:uuid;not null"`
	OpponentID uuid.UUID             `gorm:"column:opponent_id;type:uuid;not null"`
	StakeKobo  int64                 `gorm:"column:stake_kobo;not null"`
	Status     enums.ChallengeStatus `gorm:"column:status;type:challenge_status_enum;not null;default:'open'"`
	WinnerID   *uuid.UUID            `gorm:"column:winner_id;type:uuid"`
	AcceptedAt *time.Time            `gorm:"column:accepted_at"`
	SettledAt  *time.Time            `gorm:"column:settled_at"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
