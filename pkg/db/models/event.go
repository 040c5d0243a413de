package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/pkg/enums"
)

// Event is a time-boxed binary prediction pool. Lifecycle status is never
// stored; it is derived from the clock plus the cancellation/settlement marks
// so a stale column can't disagree with the schedule.
type Event struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title           string         `gorm:"column:title;not null"`
	Description     *string        `gorm:"column:description"`
	Category        string         `gorm:"column:category;not null"`
	Rules           *string        `gorm:"column:rules"`
	CreatorID       uuid.UUID      `gorm:"column:creator_id;type:uuid;not null"`
	StartTime       time.Time      `gorm:"column:start_time;not null"`
	EndTime         time.Time      `gorm:"column:end_time;not null"`
	WagerAmountKobo int64          `gorm:"column:wager_amount_kobo;not null"`
	MaxParticipants int            `gorm:"column:max_participants;not null"`
	IsPrivate       bool           `gorm:"column:is_private;not null;default:false"`
	CancelledAt     *time.Time     `gorm:"column:cancelled_at"`
	SettledAt       *time.Time     `gorm:"column:settled_at"`
	WinningOutcome  *enums.Outcome `gorm:"column:winning_outcome;type:outcome_enum"`
	Pool            *Pool          `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// StatusAt derives the lifecycle state at the supplied instant.
func (e *Event) StatusAt(now time.Time) enums.EventStatus {
	if e.CancelledAt != nil {
		return enums.EventStatusCancelled
	}
	switch {
	case now.Before(e.StartTime):
		return enums.EventStatusScheduled
	case now.After(e.EndTime):
		return enums.EventStatusEnded
	default:
		return enums.EventStatusLive
	}
}

// JoinableAt reports whether stakes may be placed at the supplied instant.
// Live betting is allowed: joins stay open from creation until endTime.
func (e *Event) JoinableAt(now time.Time) bool {
	if e.SettledAt != nil {
		return false
	}
	return e.StatusAt(now).Joinable()
}
