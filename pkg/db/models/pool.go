package models

import (
	"time"

	"github.com/google/uuid"
)

// Pool is the per-event aggregate of staked value split by outcome. All
// amounts are kobo. TotalKobo == YesKobo + NoKobo holds after every mutation
// because the three columns are only ever written by a single UPDATE.
type Pool struct {
	EventID   uuid.UUID `gorm:"column:event_id;type:uuid;primaryKey"`
	TotalKobo int64     `gorm:"column:total_kobo;not null;default:0"`
	YesKobo   int64     `gorm:"column:yes_kobo;not null;default:0"`
	NoKobo    int64     `gorm:"column:no_kobo;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName maps the model onto the event_pools table.
func (Pool) TableName() string { return "event_pools" }

// SideKobo returns the staked amount for one outcome.
func (p *Pool) SideKobo(yes bool) int64 {
	if yes {
		return p.YesKobo
	}
	return p.NoKobo
}
