package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/pkg/enums"
)

// EventCreatedEvent announces a new wagering event to its room.
type EventCreatedEvent struct {
	EventID         uuid.UUID `json:"eventId"`
	CreatorID       uuid.UUID `json:"creatorId"`
	Title           string    `json:"title"`
	WagerAmountKobo int64     `json:"wagerAmount"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
}

// NewParticipantEvent signals that a user joined an event's pool.
type NewParticipantEvent struct {
	EventID         uuid.UUID     `json:"eventId"`
	UserID          uuid.UUID     `json:"userId"`
	Prediction      enums.Outcome `json:"prediction"`
	WagerAmountKobo int64         `json:"wagerAmount"`
}

// BetPlacedEvent carries the refreshed pool totals and quoted odds after a join.
type BetPlacedEvent struct {
	EventID       uuid.UUID     `json:"eventId"`
	UserID        uuid.UUID     `json:"userId"`
	Prediction    enums.Outcome `json:"prediction"`
	StakeKobo     int64         `json:"stakeAmount"`
	PoolTotalKobo int64         `json:"poolTotal"`
	PoolYesKobo   int64         `json:"poolYes"`
	PoolNoKobo    int64         `json:"poolNo"`
	YesOdds       string        `json:"yesOdds"`
	NoOdds        string        `json:"noOdds"`
}

// EventCancelledEvent is emitted when the creator cancels before start.
type EventCancelledEvent struct {
	EventID     uuid.UUID `json:"eventId"`
	CancelledAt time.Time `json:"cancelledAt"`
	RefundCount int       `json:"refundCount"`
}

// EventSettledEvent reports the declared outcome and payout summary.
type EventSettledEvent struct {
	EventID        uuid.UUID     `json:"eventId"`
	WinningOutcome enums.Outcome `json:"winningOutcome"`
	WinnerCount    int           `json:"winnerCount"`
	PoolTotalKobo  int64         `json:"poolTotal"`
	SettledAt      time.Time     `json:"settledAt"`
}

// EventEndedEvent marks that betting closed because the end time passed.
type EventEndedEvent struct {
	EventID       uuid.UUID `json:"eventId"`
	EndedAt       time.Time `json:"endedAt"`
	PoolTotalKobo int64     `json:"poolTotal"`
}

// ChallengeCreatedEvent announces a new head-to-head challenge.
type ChallengeCreatedEvent struct {
	ChallengeID uuid.UUID `json:"challengeId"`
	CreatorID   uuid.UUID `json:"creatorId"`
	OpponentID  uuid.UUID `json:"opponentId"`
	Title       string    `json:"title"`
	StakeKobo   int64     `json:"stakeAmount"`
}

// ChallengeAcceptedEvent signals that the opponent matched the stake.
type ChallengeAcceptedEvent struct {
	ChallengeID uuid.UUID `json:"challengeId"`
	OpponentID  uuid.UUID `json:"opponentId"`
	AcceptedAt  time.Time `json:"acceptedAt"`
}

// ChallengeSettledEvent reports the challenge winner and the amount moved.
type ChallengeSettledEvent struct {
	ChallengeID uuid.UUID `json:"challengeId"`
	WinnerID    uuid.UUID `json:"winnerId"`
	AmountKobo  int64     `json:"amount"`
	SettledAt   time.Time `json:"settledAt"`
}
