package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type_enum enum in Postgres.
type OutboxAggregateType string

const (
	AggregateEvent     OutboxAggregateType = "event"
	AggregateChallenge OutboxAggregateType = "challenge"
	AggregateWallet    OutboxAggregateType = "wallet"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateEvent,
	AggregateChallenge,
	AggregateWallet,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type_enum enum in Postgres. The values
// double as the room-broadcast message types delivered to clients.
type OutboxEventType string

const (
	EventEventCreated      OutboxEventType = "event_created"
	EventNewParticipant    OutboxEventType = "new_participant"
	EventBetPlaced         OutboxEventType = "bet_placed"
	EventEventCancelled    OutboxEventType = "event_cancelled"
	EventEventSettled      OutboxEventType = "event_settled"
	EventEventEnded        OutboxEventType = "event_ended"
	EventChallengeCreated  OutboxEventType = "challenge_created"
	EventChallengeAccepted OutboxEventType = "challenge_accepted"
	EventChallengeSettled  OutboxEventType = "challenge_settled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventEventCreated,
	EventNewParticipant,
	EventBetPlaced,
	EventEventCancelled,
	EventEventSettled,
	EventEventEnded,
	EventChallengeCreated,
	EventChallengeAccepted,
	EventChallengeSettled,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason explains why an outbox row was parked.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

// IsValid reports whether the value matches the canonical DLQ reason enum.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
