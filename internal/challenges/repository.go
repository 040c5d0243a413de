// Package challenges implements head-to-head wagers: one creator, one named
// opponent, equal stakes held in escrow until the challenge resolves.
package challenges

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	"github.com/betchat/betchat-backend/pkg/pagination"
)

// Repository manages challenge persistence. Status transitions are guarded
// single-statement updates keyed on the current status so two racing calls
// cannot both win the same transition.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Challenge, error)
	MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkClosed(ctx context.Context, id uuid.UUID, status enums.ChallengeStatus) (bool, error)
	MarkSettled(ctx context.Context, id, winnerID uuid.UUID, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a challenge repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	var challenge models.Challenge
	err := r.db.WithContext(ctx).First(&challenge, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// ListForUser returns challenges where the user is either party, newest first.
func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Challenge, error) {
	query := r.db.WithContext(ctx).
		Where("creator_id = ? OR opponent_id = ?", userID, userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

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

	var rows []models.Challenge
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkAccepted flips an open challenge to accepted. Returns false when the
// challenge is no longer open.
func (r *repository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("id = ? AND status = ?", id, enums.ChallengeStatusOpen).
		UpdateColumns(map[string]interface{}{
			"status":      enums.ChallengeStatusAccepted,
			"accepted_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkClosed moves an open challenge to declined or cancelled.
func (r *repository) MarkClosed(ctx context.Context, id uuid.UUID, status enums.ChallengeStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("id = ? AND status = ?", id, enums.ChallengeStatusOpen).
		UpdateColumn("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkSettled resolves an accepted challenge with its winner.
func (r *repository) MarkSettled(ctx context.Context, id, winnerID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("id = ? AND status = ?", id, enums.ChallengeStatusAccepted).
		UpdateColumns(map[string]interface{}{
			"status":     enums.ChallengeStatusSettled,
			"winner_id":  winnerID,
			"settled_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
