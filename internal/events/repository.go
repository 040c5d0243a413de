package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	"github.com/betchat/betchat-backend/pkg/pagination"
)

// Repository manages event persistence. The cancel/settle marks are written
// with guarded single-statement updates so two operators cannot both win the
// same transition.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, params pagination.Params, filter ListFilter) ([]models.Event, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkSettled(ctx context.Context, id uuid.UUID, outcome enums.Outcome, at time.Time) (bool, error)
	LockOpen(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ListEndedUnresolved(ctx context.Context, now time.Time, limit int) ([]models.Event, error)
}

// ListFilter narrows event listings.
type ListFilter struct {
	Category  string
	CreatorID *uuid.UUID
	// IncludePrivate widens the listing beyond public events.
	IncludePrivate bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an event repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Pool").
		First(&event, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filter ListFilter) ([]models.Event, error) {
	query := r.db.WithContext(ctx).
		Preload("Pool").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}
	if !filter.IncludePrivate {
		query = query.Where("is_private = ?", false)
	}

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

	var rows []models.Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkCancelled stamps cancelled_at if the event is still open. Returns false
// when another transition already won.
func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND cancelled_at IS NULL AND settled_at IS NULL", id).
		UpdateColumn("cancelled_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkSettled stamps settled_at and the winning outcome if the event has not
// been settled or cancelled yet.
func (r *repository) MarkSettled(ctx context.Context, id uuid.UUID, outcome enums.Outcome, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND cancelled_at IS NULL AND settled_at IS NULL", id).
		UpdateColumns(map[string]interface{}{
			"settled_at":      at,
			"winning_outcome": outcome,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// LockOpen takes the event's row lock and confirms the event is still open
// for stakes: not cancelled, not settled, end time in the future. Joins run
// this inside their transaction so a concurrent settle or cancel serializes
// against the join instead of slipping past the pre-check.
func (r *repository) LockOpen(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND cancelled_at IS NULL AND settled_at IS NULL AND end_time > ?", id, now).
		UpdateColumn("updated_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListEndedUnresolved returns events past their end time that have neither
// been settled nor cancelled. The lifecycle sweep announces these and retries
// their payouts.
func (r *repository) ListEndedUnresolved(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Event
	err := r.db.WithContext(ctx).
		Preload("Pool").
		Where("end_time <= ? AND cancelled_at IS NULL AND settled_at IS NULL", now).
		Order("end_time ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
