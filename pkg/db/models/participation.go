package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/pkg/enums"
)

// Participation is one user's single, immutable stake on an event. The
// unique index over (event_id, user_id) is the final backstop for the
// at-most-one-participation invariant under concurrent joins.
type Participation struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID    uuid.UUID     `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uq_event_participants_event_user"`
	UserID     uuid.UUID     `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_event_participants_event_user"`
	Prediction enums.Outcome `gorm:"column:prediction;type:outcome_enum;not null"`
	StakeKobo  int64         `gorm:"column:stake_kobo;not null"`
	JoinedAt   time.Time     `gorm:"column:joined_at;autoCreateTime"`
}

// TableName maps the model onto the event_participants table.
func (Participation) TableName() string { return "event_participants" }
