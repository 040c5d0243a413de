package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
)

func participant(eventID uuid.UUID, prediction enums.Outcome, stakeKobo int64) models.Participation {
	return models.Participation{
		ID:         uuid.New(),
		EventID:    eventID,
		UserID:     uuid.New(),
		Prediction: prediction,
		StakeKobo:  stakeKobo,
	}
}

func TestComputePayoutsProRataShares(t *testing.T) {
	eventID := uuid.New()
	winnerA := participant(eventID, enums.OutcomeYes, 30000)
	winnerB := participant(eventID, enums.OutcomeYes, 20000)
	loser := participant(eventID, enums.OutcomeNo, 50000)

	payouts := ComputePayouts([]models.Participation{winnerA, winnerB, loser}, enums.OutcomeYes)
	require.Len(t, payouts, 2)

	byUser := map[uuid.UUID]models.Payout{}
	for _, p := range payouts {
		byUser[p.UserID] = p
	}
	// 30000 + 30000*50000/50000 and 20000 + 20000*50000/50000.
	assert.Equal(t, int64(60000), byUser[winnerA.UserID].AmountKobo)
	assert.Equal(t, int64(40000), byUser[winnerB.UserID].AmountKobo)
	for _, p := range payouts {
		assert.Equal(t, enums.PayoutTypeWinnings, p.Type)
		assert.Equal(t, enums.PayoutStatusPending, p.Status)
		assert.Equal(t, eventID, p.EventID)
	}
}

func TestComputePayoutsConservesPool(t *testing.T) {
	eventID := uuid.New()
	parts := []models.Participation{
		participant(eventID, enums.OutcomeYes, 10000),
		participant(eventID, enums.OutcomeYes, 17000),
		participant(eventID, enums.OutcomeYes, 23000),
		participant(eventID, enums.OutcomeNo, 31000),
		participant(eventID, enums.OutcomeNo, 19000),
	}
	var pool int64
	for _, p := range parts {
		pool += p.StakeKobo
	}

	payouts := ComputePayouts(parts, enums.OutcomeYes)
	require.Len(t, payouts, 3)

	var paidOut int64
	for _, p := range payouts {
		paidOut += p.AmountKobo
		assert.GreaterOrEqual(t, p.AmountKobo, int64(10000))
	}
	// Floor division leaves the rounding dust with the house, never overpays.
	assert.LessOrEqual(t, paidOut, pool)
	assert.Greater(t, paidOut, pool-int64(len(payouts)))
}

func TestComputePayoutsEmptyWinningSideRefundsEveryone(t *testing.T) {
	eventID := uuid.New()
	parts := []models.Participation{
		participant(eventID, enums.OutcomeNo, 15000),
		participant(eventID, enums.OutcomeNo, 25000),
	}

	payouts := ComputePayouts(parts, enums.OutcomeYes)
	require.Len(t, payouts, 2)
	for i, p := range payouts {
		assert.Equal(t, enums.PayoutTypeRefund, p.Type)
		assert.Equal(t, parts[i].StakeKobo, p.AmountKobo)
		assert.Equal(t, parts[i].UserID, p.UserID)
	}
}

func TestComputePayoutsHugeStakesStayExact(t *testing.T) {
	eventID := uuid.New()
	winner := participant(eventID, enums.OutcomeYes, 3_000_000_000_000_000_000)
	loser := participant(eventID, enums.OutcomeNo, 5_000_000_000_000_000_000)

	payouts := ComputePayouts([]models.Participation{winner, loser}, enums.OutcomeYes)
	require.Len(t, payouts, 1)

	// stake * losingPool is 1.5e37, far past int64; the share must still come
	// out as exactly the losing pool, not wrap negative.
	assert.Equal(t, int64(8_000_000_000_000_000_000), payouts[0].AmountKobo)
	assert.Positive(t, payouts[0].AmountKobo)
}

func TestComputePayoutsHugeUnevenSplitFloors(t *testing.T) {
	eventID := uuid.New()
	winnerA := participant(eventID, enums.OutcomeYes, 2_000_000_000_000_000_001)
	winnerB := participant(eventID, enums.OutcomeYes, 1_000_000_000_000_000_000)
	loser := participant(eventID, enums.OutcomeNo, 3_000_000_000_000_000_000)

	var pool int64
	for _, p := range []models.Participation{winnerA, winnerB, loser} {
		pool += p.StakeKobo
	}

	payouts := ComputePayouts([]models.Participation{winnerA, winnerB, loser}, enums.OutcomeYes)
	require.Len(t, payouts, 2)

	var paidOut int64
	for _, p := range payouts {
		assert.Positive(t, p.AmountKobo)
		assert.GreaterOrEqual(t, p.AmountKobo, int64(1_000_000_000_000_000_000))
		paidOut += p.AmountKobo
	}
	assert.LessOrEqual(t, paidOut, pool)
	assert.Greater(t, paidOut, pool-int64(len(payouts)))
}

func TestComputePayoutsNoParticipants(t *testing.T) {
	assert.Nil(t, ComputePayouts(nil, enums.OutcomeYes))
	assert.Nil(t, ComputePayouts([]models.Participation{}, enums.OutcomeNo))
}

func TestComputePayoutsLosersGetNothing(t *testing.T) {
	eventID := uuid.New()
	winner := participant(eventID, enums.OutcomeNo, 10000)
	loser := participant(eventID, enums.OutcomeYes, 90000)

	payouts := ComputePayouts([]models.Participation{winner, loser}, enums.OutcomeNo)
	require.Len(t, payouts, 1)
	assert.Equal(t, winner.UserID, payouts[0].UserID)
	assert.Equal(t, int64(100000), payouts[0].AmountKobo)
}
