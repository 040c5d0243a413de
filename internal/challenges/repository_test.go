package challenges

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
	"github.com/betchat/betchat-backend/pkg/pagination"
)

func setupChallengeTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	schema := `
CREATE TABLE IF NOT EXISTS challenges (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  creator_id TEXT NOT NULL,
  opponent_id TEXT NOT NULL,
  stake_kobo INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  winner_id TEXT,
  accepted_at DATETIME,
  settled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec("DELETE FROM challenges").Error)
	return db
}

func openChallenge() *models.Challenge {
	return &models.Challenge{
		ID:         uuid.New(),
		Title:      "first to finish",
		CreatorID:  uuid.New(),
		OpponentID: uuid.New(),
		StakeKobo:  20000,
		Status:     enums.ChallengeStatusOpen,
	}
}

func TestRepositoryMarkAcceptedOnlyFromOpen(t *testing.T) {
	db := setupChallengeTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	challenge := openChallenge()
	require.NoError(t, repo.Create(ctx, challenge))

	ok, err := repo.MarkAccepted(ctx, challenge.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkAccepted(ctx, challenge.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "accept is a one-shot transition")

	got, err := repo.GetByID(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ChallengeStatusAccepted, got.Status)
	require.NotNil(t, got.AcceptedAt)
}

func TestRepositoryMarkClosedRejectsAccepted(t *testing.T) {
	db := setupChallengeTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	challenge := openChallenge()
	require.NoError(t, repo.Create(ctx, challenge))
	_, err := repo.MarkAccepted(ctx, challenge.ID, time.Now().UTC())
	require.NoError(t, err)

	ok, err := repo.MarkClosed(ctx, challenge.ID, enums.ChallengeStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok, "an accepted challenge cannot be withdrawn")
}

func TestRepositoryMarkSettledRequiresAccepted(t *testing.T) {
	db := setupChallengeTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	challenge := openChallenge()
	require.NoError(t, repo.Create(ctx, challenge))

	ok, err := repo.MarkSettled(ctx, challenge.ID, challenge.CreatorID, now)
	require.NoError(t, err)
	assert.False(t, ok, "open challenges have no second escrow to award")

	_, err = repo.MarkAccepted(ctx, challenge.ID, now)
	require.NoError(t, err)

	ok, err = repo.MarkSettled(ctx, challenge.ID, challenge.CreatorID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ChallengeStatusSettled, got.Status)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, challenge.CreatorID, *got.WinnerID)
}

func TestRepositoryListForUserCoversBothSides(t *testing.T) {
	db := setupChallengeTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	asCreator := openChallenge()
	asCreator.CreatorID = userID
	require.NoError(t, repo.Create(ctx, asCreator))

	asOpponent := openChallenge()
	asOpponent.OpponentID = userID
	require.NoError(t, repo.Create(ctx, asOpponent))

	unrelated := openChallenge()
	require.NoError(t, repo.Create(ctx, unrelated))

	rows, err := repo.ListForUser(ctx, userID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.True(t, row.CreatorID == userID || row.OpponentID == userID)
	}
}
