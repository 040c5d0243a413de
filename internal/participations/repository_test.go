package participations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
)

func setupParticipationTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	schema := `
CREATE TABLE IF NOT EXISTS event_participants (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  prediction TEXT NOT NULL,
  stake_kobo INTEGER NOT NULL,
  joined_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_event_participants_event_user
  ON event_participants (event_id, user_id);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestRepositoryCreateRejectsSecondStake(t *testing.T) {
	db := setupParticipationTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	eventID := uuid.New()
	userID := uuid.New()

	first := &models.Participation{
		ID:         uuid.New(),
		EventID:    eventID,
		UserID:     userID,
		Prediction: enums.OutcomeYes,
		StakeKobo:  20000,
	}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.Participation{
		ID:         uuid.New(),
		EventID:    eventID,
		UserID:     userID,
		Prediction: enums.OutcomeNo,
		StakeKobo:  30000,
	}
	err := repo.Create(ctx, second)
	require.Error(t, err)
}

func TestRepositoryGetNotJoined(t *testing.T) {
	db := setupParticipationTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Get(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListOrderedByJoinedAt(t *testing.T) {
	db := setupParticipationTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	eventID := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	later := &models.Participation{
		ID: uuid.New(), EventID: eventID, UserID: uuid.New(),
		Prediction: enums.OutcomeNo, StakeKobo: 10000, JoinedAt: base.Add(10 * time.Minute),
	}
	earlier := &models.Participation{
		ID: uuid.New(), EventID: eventID, UserID: uuid.New(),
		Prediction: enums.OutcomeYes, StakeKobo: 20000, JoinedAt: base,
	}
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, earlier))

	rows, err := repo.List(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, earlier.ID, rows[0].ID)
	assert.Equal(t, later.ID, rows[1].ID)
}

func TestRepositoryCountByEvent(t *testing.T) {
	db := setupParticipationTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	eventID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Participation{
			ID: uuid.New(), EventID: eventID, UserID: uuid.New(),
			Prediction: enums.OutcomeYes, StakeKobo: 10000,
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Participation{
		ID: uuid.New(), EventID: eventID, UserID: uuid.New(),
		Prediction: enums.OutcomeNo, StakeKobo: 10000,
	}))

	counts, err := repo.CountByEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), counts.Total)
	assert.Equal(t, int64(3), counts.Yes)
	assert.Equal(t, int64(1), counts.No)
}
