// Package participations records each user's single stake on an event. The
// unique index over (event_id, user_id) backstops the at-most-one invariant
// when two joins race past the application check.
package participations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
)

// UniqueConstraint is the index name the join path inspects on insert races.
const UniqueConstraint = "uq_event_participants_event_user"

// Counts summarizes participation volume per side.
type Counts struct {
	Total int64
	Yes   int64
	No    int64
}

// Repository manages participation persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, participation *models.Participation) error
	Get(ctx context.Context, eventID, userID uuid.UUID) (*models.Participation, error)
	List(ctx context.Context, eventID uuid.UUID) ([]models.Participation, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (Counts, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a participation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, participation *models.Participation) error {
	return r.db.WithContext(ctx).Create(participation).Error
}

func (r *repository) Get(ctx context.Context, eventID, userID uuid.UUID) (*models.Participation, error) {
	var participation models.Participation
	err := r.db.WithContext(ctx).
		First(&participation, "event_id = ? AND user_id = ?", eventID, userID).Error
	if err != nil {
		return nil, err
	}
	return &participation, nil
}

func (r *repository) List(ctx context.Context, eventID uuid.UUID) ([]models.Participation, error) {
	var rows []models.Participation
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("joined_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountByEvent(ctx context.Context, eventID uuid.UUID) (Counts, error) {
	var counts Counts
	err := r.db.WithContext(ctx).Model(&models.Participation{}).
		Where("event_id = ?", eventID).
		Count(&counts.Total).Error
	if err != nil {
		return Counts{}, err
	}
	err = r.db.WithContext(ctx).Model(&models.Participation{}).
		Where("event_id = ? AND prediction = ?", eventID, enums.OutcomeYes).
		Count(&counts.Yes).Error
	if err != nil {
		return Counts{}, err
	}
	counts.No = counts.Total - counts.Yes
	return counts, nil
}
