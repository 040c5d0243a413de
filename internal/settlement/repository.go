package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
)

// Repository manages payout rows. A row per (event, user) with a
// pending/paid status makes settlement re-invokable: creating is an upsert
// no-op on conflict and paying is guarded on the pending status.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, payouts []models.Payout) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Payout, error)
	ListPendingByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Payout, error)
	ListPending(ctx context.Context, limit int) ([]models.Payout, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateBatch inserts payout rows, skipping any (event, user) pair that
// already has one from an earlier settle attempt.
func (r *repository) CreateBatch(ctx context.Context, payouts []models.Payout) error {
	if len(payouts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&payouts).Error
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Payout, error) {
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPendingByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Payout, error) {
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, enums.PayoutStatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPending(ctx context.Context, limit int) ([]models.Payout, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PayoutStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkPaid flips a pending row to paid. Returns false when another worker
// already paid it.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, enums.PayoutStatusPending).
		UpdateColumns(map[string]interface{}{
			"status":  enums.PayoutStatusPaid,
			"paid_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
