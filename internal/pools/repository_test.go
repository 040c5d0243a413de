package pools

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
)

func setupPoolTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	schema := `
CREATE TABLE IF NOT EXISTS event_pools (
  event_id TEXT PRIMARY KEY,
  total_kobo INTEGER NOT NULL DEFAULT 0,
  yes_kobo INTEGER NOT NULL DEFAULT 0,
  no_kobo INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestRepositoryApplyStakeKeepsInvariant(t *testing.T) {
	db := setupPoolTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	eventID := uuid.New()

	require.NoError(t, repo.Create(ctx, &models.Pool{EventID: eventID}))

	require.NoError(t, repo.ApplyStake(ctx, eventID, enums.OutcomeYes, 30000))
	require.NoError(t, repo.ApplyStake(ctx, eventID, enums.OutcomeNo, 20000))
	require.NoError(t, repo.ApplyStake(ctx, eventID, enums.OutcomeYes, 10000))

	pool, err := repo.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), pool.TotalKobo)
	assert.Equal(t, int64(40000), pool.YesKobo)
	assert.Equal(t, int64(20000), pool.NoKobo)
	assert.Equal(t, pool.TotalKobo, pool.YesKobo+pool.NoKobo)
}

func TestRepositoryApplyStakeMissingPool(t *testing.T) {
	db := setupPoolTestDB(t)
	repo := NewRepository(db)

	err := repo.ApplyStake(context.Background(), uuid.New(), enums.OutcomeYes, 10000)
	require.ErrorIs(t, err, ErrPoolMissing)
}

func TestRepositoryApplyStakeRejectsNonPositiveAmounts(t *testing.T) {
	db := setupPoolTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	eventID := uuid.New()

	require.NoError(t, repo.Create(ctx, &models.Pool{EventID: eventID}))
	require.NoError(t, repo.ApplyStake(ctx, eventID, enums.OutcomeYes, 30000))

	err := repo.ApplyStake(ctx, eventID, enums.OutcomeYes, -20000)
	require.ErrorIs(t, err, ErrInvalidStakeAmount)

	err = repo.ApplyStake(ctx, eventID, enums.OutcomeNo, 0)
	require.ErrorIs(t, err, ErrInvalidStakeAmount)

	pool, err := repo.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), pool.TotalKobo, "rejected stakes must not move the pool")
	assert.Equal(t, int64(30000), pool.YesKobo)
}

func TestRepositoryApplyStakeConcurrent(t *testing.T) {
	db := setupPoolTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	eventID := uuid.New()

	require.NoError(t, repo.Create(ctx, &models.Pool{EventID: eventID}))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			outcome := enums.OutcomeYes
			if n%2 == 1 {
				outcome = enums.OutcomeNo
			}
			errs[n] = repo.ApplyStake(ctx, eventID, outcome, 10000)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	pool, err := repo.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(80000), pool.TotalKobo)
	assert.Equal(t, pool.TotalKobo, pool.YesKobo+pool.NoKobo)
}
