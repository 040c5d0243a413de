// Package pools owns the per-event staked totals. Totals are mutated through
// one UPDATE statement per stake, which keeps total == yes + no under any
// interleaving of concurrent joins.
package pools

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
)

var (
	// ErrPoolMissing is returned when a stake targets an event without a
	// pool row.
	ErrPoolMissing = errors.New("pool missing")
	// ErrInvalidStakeAmount is returned for a zero or negative stake, which
	// would shrink the pool.
	ErrInvalidStakeAmount = errors.New("invalid stake amount")
)

// Repository manages pool persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pool *models.Pool) error
	Get(ctx context.Context, eventID uuid.UUID) (*models.Pool, error)
	ApplyStake(ctx context.Context, eventID uuid.UUID, prediction enums.Outcome, amountKobo int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a pool repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pool *models.Pool) error {
	return r.db.WithContext(ctx).Create(pool).Error
}

func (r *repository) Get(ctx context.Context, eventID uuid.UUID) (*models.Pool, error) {
	var pool models.Pool
	if err := r.db.WithContext(ctx).First(&pool, "event_id = ?", eventID).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

// ApplyStake increments the total and the chosen side in a single statement.
// Stakes only ever grow the pool; non-positive amounts are rejected here
// regardless of what the caller validated.
func (r *repository) ApplyStake(ctx context.Context, eventID uuid.UUID, prediction enums.Outcome, amountKobo int64) error {
	if amountKobo <= 0 {
		return ErrInvalidStakeAmount
	}
	side := "no_kobo"
	if prediction == enums.OutcomeYes {
		side = "yes_kobo"
	}
	assignments := map[string]interface{}{
		"total_kobo": gorm.Expr("total_kobo + ?", amountKobo),
		side:         gorm.Expr(side+" + ?", amountKobo),
	}
	res := r.db.WithContext(ctx).Model(&models.Pool{}).
		Where("event_id = ?", eventID).
		UpdateColumns(assignments)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPoolMissing
	}
	return nil
}
